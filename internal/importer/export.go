// internal/importer/export.go
package importer

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/unclebandit/membercast/internal/model"
)

// ExportSheet is the sheet name used for XLSX exports.
const ExportSheet = "Members"

func exportRow(m model.Member) []string {
	return []string{m.FirstName, m.LastName, m.SocialNumber, m.Address, m.PostalCode, m.City, m.Phone}
}

// WriteCSV writes members in the import text format so the output can be
// imported again.
func WriteCSV(w io.Writer, members []model.Member) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, m := range members {
		if err := cw.Write(exportRow(m)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes members as a single-sheet workbook with the import header.
func WriteXLSX(w io.Writer, members []model.Member) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	// Text style keeps leading zeros and "+" on phones and postal codes.
	style, err := f.NewStyle(&excelize.Style{NumFmt: 49})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	for i, m := range members {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		raw := exportRow(m)
		row := make([]interface{}, len(raw))
		for j, v := range raw {
			row[j] = v
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if len(members) > 0 {
		last, err := excelize.CoordinatesToCellName(len(Header), len(members)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(ExportSheet, "A2", last, style); err != nil {
			return fmt.Errorf("set style: %w", err)
		}
	}
	_, err = f.WriteTo(w)
	return err
}
