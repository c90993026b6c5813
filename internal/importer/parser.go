// internal/importer/parser.go
package importer

import (
	"fmt"
	"strings"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/phone"
)

// Delimiter separates cells in text imports.
const Delimiter = ";"

// Header is the exact, ordered column set every import must start with.
var Header = []string{
	"FirstName",
	"LastName",
	"SocialNumber",
	"Address",
	"PostalCode",
	"City",
	"Mobile",
}

// User-facing parse messages.
const (
	MsgNoData          = "No data found: the input needs a header row and at least one data row"
	MsgInvalidFormat   = "Invalid format: the header must be FirstName;LastName;SocialNumber;Address;PostalCode;City;Mobile"
	MsgInvalidFileType = "Invalid file type: only .csv, .xlsx and .xls files are supported"
	MsgParseError      = "Error parsing file"
)

func invalidRowFormat(row int) string {
	return fmt.Sprintf("Row %d: invalid row format", row)
}

func missingRequiredFields(row int) string {
	return fmt.Sprintf("Row %d: missing required fields (FirstName, LastName, Mobile)", row)
}

func invalidPhoneFormat(row int, value string) string {
	return fmt.Sprintf("Row %d: invalid phone format %q", row, value)
}

// ParseResult is the raw parser output, before duplicate resolution.
type ParseResult struct {
	Parsed []model.ParsedMember `json:"parsed_data"`
	Errors []string             `json:"errors"`
}

// ParseText parses a semicolon-delimited blob: one header line followed by
// data lines. Embedded semicolons are not supported.
func ParseText(text string) ParseResult {
	// Excel's "CSV UTF-8" export starts the file with a byte order mark.
	text = strings.TrimPrefix(text, "\ufeff")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(line, Delimiter)
	}
	return parse(rows, false)
}

// ParseRows parses a spreadsheet sheet already materialized as rows of cell
// strings. Trailing blank cells dropped by the sheet reader are restored.
func ParseRows(rows [][]string) ParseResult {
	return parse(rows, true)
}

func parse(rows [][]string, padTrailing bool) ParseResult {
	res := ParseResult{Parsed: []model.ParsedMember{}, Errors: []string{}}
	if len(rows) < 2 {
		res.Errors = append(res.Errors, MsgNoData)
		return res
	}
	if !validHeader(rows[0]) {
		res.Errors = append(res.Errors, MsgInvalidFormat)
		return res
	}

	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		cells := rows[i]
		if padTrailing && len(cells) > 0 && len(cells) < len(Header) {
			padded := make([]string, len(Header))
			copy(padded, cells)
			cells = padded
		}
		if len(cells) != len(Header) {
			res.Errors = append(res.Errors, invalidRowFormat(rowNum))
			continue
		}

		v := make([]string, len(cells))
		for j, c := range cells {
			v[j] = strings.TrimSpace(c)
		}
		firstName, lastName, socialNumber, address, postalCode, city, mobile := v[0], v[1], v[2], v[3], v[4], v[5], v[6]

		if firstName == "" || lastName == "" || mobile == "" {
			res.Errors = append(res.Errors, missingRequiredFields(rowNum))
			continue
		}
		if !phone.Valid(mobile) {
			res.Errors = append(res.Errors, invalidPhoneFormat(rowNum, mobile))
			continue
		}

		res.Parsed = append(res.Parsed, model.ParsedMember{
			FirstName:    firstName,
			LastName:     lastName,
			SocialNumber: socialNumber,
			Address:      address,
			PostalCode:   postalCode,
			City:         city,
			Phone:        mobile,
		})
	}
	return res
}

func validHeader(cells []string) bool {
	if len(cells) != len(Header) {
		return false
	}
	for i, h := range Header {
		if strings.TrimSpace(cells[i]) != h {
			return false
		}
	}
	return true
}
