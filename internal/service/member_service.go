// internal/service/member_service.go
package service

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/importer"
	"github.com/unclebandit/membercast/internal/metrics"
	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/repository"
)

type MemberService struct {
	MemberRepo repository.MemberRepositoryInterface
	Importer   *importer.Importer
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// BulkResult summarizes a batch of member writes.
type BulkResult struct {
	Message      string   `json:"message"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors,omitempty"`
}

func (s *MemberService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *MemberService) parser() *importer.Importer {
	if s.Importer == nil {
		return importer.New(s.Logger)
	}
	return s.Importer
}

func (s *MemberService) List(ctx context.Context) ([]model.Member, error) {
	return s.MemberRepo.ListAll(ctx)
}

func (s *MemberService) Get(ctx context.Context, id int64) (*model.Member, error) {
	return s.MemberRepo.GetByID(ctx, id)
}

func (s *MemberService) Create(ctx context.Context, in model.MemberInput) (*model.Member, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	return s.MemberRepo.Create(ctx, in)
}

// Update replaces every editable field of the member, phone included.
func (s *MemberService) Update(ctx context.Context, id int64, in model.MemberInput) (*model.Member, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.MemberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Apply(in)
	m.Phone = in.Phone
	if err := s.MemberRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MemberService) Delete(ctx context.Context, id int64) error {
	return s.MemberRepo.Delete(ctx, id)
}

// Phones returns every member's phone number in list order.
func (s *MemberService) Phones(ctx context.Context) ([]string, error) {
	members, err := s.MemberRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	phones := make([]string, len(members))
	for i, m := range members {
		phones[i] = m.Phone
	}
	return phones, nil
}

// PreviewFile parses an uploaded file and checks it against the stored members.
func (s *MemberService) PreviewFile(ctx context.Context, filename string, r io.Reader) (importer.Result, error) {
	existing, err := s.MemberRepo.ListAll(ctx)
	if err != nil {
		return importer.Result{}, fmt.Errorf("load members: %w", err)
	}
	return s.parser().ParseFile(ctx, filename, r, existing), nil
}

// PreviewText parses pasted text and checks it against the stored members.
func (s *MemberService) PreviewText(ctx context.Context, text string) (importer.Result, error) {
	existing, err := s.MemberRepo.ListAll(ctx)
	if err != nil {
		return importer.Result{}, fmt.Errorf("load members: %w", err)
	}
	return s.parser().ParseText(text, existing), nil
}

// CommitImport writes a previewed import using the given duplicate policy.
func (s *MemberService) CommitImport(ctx context.Context, preview importer.Result, policy importer.DuplicateHandling) (BulkResult, error) {
	plan, err := importer.ProcessImport(preview.Parsed, preview.Duplicates, policy)
	if err != nil {
		return BulkResult{}, err
	}
	s.logger().Info("committing import",
		zap.String("duplicate_handling", string(policy)),
		zap.Int("inserts", len(plan.Inserts)),
		zap.Int("updates", len(plan.Updates)),
	)
	return s.ApplyImport(ctx, plan), nil
}

// ImportMembers inserts members one at a time. A failed row is counted and
// the batch continues.
func (s *MemberService) ImportMembers(ctx context.Context, inputs []model.MemberInput) BulkResult {
	return s.ApplyImport(ctx, importer.ImportPlan{Inserts: inputs})
}

// ApplyImport runs the plan's inserts in order, then its updates in order.
// It never stops early.
func (s *MemberService) ApplyImport(ctx context.Context, plan importer.ImportPlan) BulkResult {
	res := BulkResult{}
	fail := func(what string, err error) {
		res.ErrorCount++
		res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", what, err))
		s.logger().Warn("import row failed", zap.String("row", what), zap.Error(err))
	}

	for _, in := range plan.Inserts {
		_, err := s.MemberRepo.Create(ctx, in)
		s.Metrics.ImportRow("insert", err == nil)
		if err != nil {
			fail(fmt.Sprintf("Failed to add %s %s (%s)", in.FirstName, in.LastName, in.Phone), err)
			continue
		}
		res.SuccessCount++
	}
	for i := range plan.Updates {
		m := plan.Updates[i]
		err := s.MemberRepo.Update(ctx, &m)
		s.Metrics.ImportRow("update", err == nil)
		if err != nil {
			fail(fmt.Sprintf("Failed to update %s %s (%s)", m.FirstName, m.LastName, m.Phone), err)
			continue
		}
		res.SuccessCount++
	}

	if res.ErrorCount > 0 {
		res.Message = fmt.Sprintf("Import completed with some errors: %d successful, %d failed", res.SuccessCount, res.ErrorCount)
	} else {
		res.Message = fmt.Sprintf("Successfully imported %d members", res.SuccessCount)
	}
	return res
}

// Export formats.
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

// Export writes all members in the import format.
func (s *MemberService) Export(ctx context.Context, w io.Writer, format string) error {
	members, err := s.MemberRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	switch format {
	case ExportCSV, "":
		return importer.WriteCSV(w, members)
	case ExportXLSX:
		return importer.WriteXLSX(w, members)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
