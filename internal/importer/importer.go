// internal/importer/importer.go
package importer

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/model"
)

// Result is what an import preview shows the user before commit. Parsed is
// already duplicate-filtered.
type Result struct {
	Parsed     []model.ParsedMember    `json:"parsed_data"`
	Duplicates []model.DuplicateMember `json:"duplicates"`
	Errors     []string                `json:"errors"`
}

type Importer struct {
	logger *zap.Logger
}

func New(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{logger: logger}
}

// ParseFile reads an uploaded file and resolves duplicates against existing.
// The format is picked from the file extension.
func (im *Importer) ParseFile(ctx context.Context, filename string, r io.Reader, existing []model.Member) Result {
	ext := strings.ToLower(filepath.Ext(filename))
	log := im.logger.With(zap.String("file", filename), zap.String("ext", ext))

	var pr ParseResult
	switch ext {
	case ".csv":
		data, err := io.ReadAll(r)
		if err != nil {
			log.Warn("read import file", zap.Error(err))
			return failed(MsgParseError)
		}
		pr = ParseText(string(data))
	case ".xlsx", ".xls":
		rows, err := ReadFirstSheet(r)
		if err != nil {
			log.Warn("open spreadsheet", zap.Error(err))
			return failed(MsgParseError)
		}
		pr = ParseRows(rows)
	default:
		log.Info("rejected import file type")
		return failed(MsgInvalidFileType)
	}

	res := im.resolve(pr, existing)
	log.Info("parsed import file",
		zap.Int("parsed", len(res.Parsed)),
		zap.Int("duplicates", len(res.Duplicates)),
		zap.Int("errors", len(res.Errors)),
	)
	return res
}

// ParseText handles pasted semicolon-delimited text.
func (im *Importer) ParseText(text string, existing []model.Member) Result {
	res := im.resolve(ParseText(text), existing)
	im.logger.Info("parsed import text",
		zap.Int("parsed", len(res.Parsed)),
		zap.Int("duplicates", len(res.Duplicates)),
		zap.Int("errors", len(res.Errors)),
	)
	return res
}

func (im *Importer) resolve(pr ParseResult, existing []model.Member) Result {
	newMembers, dups := ProcessDuplicates(pr.Parsed, existing)
	return Result{Parsed: newMembers, Duplicates: dups, Errors: pr.Errors}
}

func failed(msg string) Result {
	return Result{
		Parsed:     []model.ParsedMember{},
		Duplicates: []model.DuplicateMember{},
		Errors:     []string{msg},
	}
}
