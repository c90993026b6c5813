// internal/importer/duplicates.go
package importer

import (
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/phone"
)

// DuplicateHandling is the user's choice for rows that collide with a stored
// member on normalized phone number.
type DuplicateHandling string

const (
	DuplicateSkip      DuplicateHandling = "skip"
	DuplicateOverwrite DuplicateHandling = "overwrite"
	DuplicateKeepBoth  DuplicateHandling = "keep-both"
)

// DuplicateNote is appended to the notes of rows imported with keep-both.
const DuplicateNote = "(Duplicate contact)"

// ParseDuplicateHandling maps a user value to a policy. Empty means skip.
func ParseDuplicateHandling(s string) (DuplicateHandling, error) {
	switch DuplicateHandling(strings.ToLower(strings.TrimSpace(s))) {
	case "", DuplicateSkip:
		return DuplicateSkip, nil
	case DuplicateOverwrite:
		return DuplicateOverwrite, nil
	case DuplicateKeepBoth:
		return DuplicateKeepBoth, nil
	}
	return "", fmt.Errorf("%w: %q", appErrors.ErrInvalidDuplicatePolicy, s)
}

// ProcessDuplicates splits parsed rows into rows that are new and rows whose
// phone already exists in existing. Both outputs keep input order. Rows are
// only compared against existing, never against each other.
func ProcessDuplicates(parsed []model.ParsedMember, existing []model.Member) ([]model.ParsedMember, []model.DuplicateMember) {
	byPhone := make(map[string]int, len(existing))
	for i := len(existing) - 1; i >= 0; i-- {
		byPhone[phone.Normalize(existing[i].Phone)] = i
	}

	newMembers := []model.ParsedMember{}
	duplicates := []model.DuplicateMember{}
	for _, p := range parsed {
		if idx, ok := byPhone[phone.Normalize(p.Phone)]; ok {
			duplicates = append(duplicates, model.DuplicateMember{
				ParsedMember: p,
				Existing:     existing[idx],
			})
			continue
		}
		newMembers = append(newMembers, p)
	}
	return newMembers, duplicates
}

// ImportPlan is what a commit will write to the store.
type ImportPlan struct {
	Inserts []model.MemberInput `json:"inserts"`
	Updates []model.Member      `json:"updates"`
}

// ProcessImport applies the duplicate policy.
//
// skip drops duplicates. overwrite updates each existing record's non-key
// fields from its duplicate row, keeping the stored ID and phone.
// keep-both inserts duplicates as new members with a " (n)" phone suffix,
// n starting at 2, and a duplicate marker in notes.
func ProcessImport(newMembers []model.ParsedMember, duplicates []model.DuplicateMember, policy DuplicateHandling) (ImportPlan, error) {
	plan := ImportPlan{
		Inserts: make([]model.MemberInput, 0, len(newMembers)+len(duplicates)),
		Updates: []model.Member{},
	}
	for _, m := range newMembers {
		plan.Inserts = append(plan.Inserts, m.Input())
	}

	switch policy {
	case DuplicateSkip, "":
	case DuplicateOverwrite:
		for _, d := range duplicates {
			updated := d.Existing
			updated.Apply(d.Input())
			plan.Updates = append(plan.Updates, updated)
		}
	case DuplicateKeepBoth:
		for i, d := range duplicates {
			in := d.Input()
			in.Phone = fmt.Sprintf("%s (%d)", d.Phone, i+2)
			if in.Notes != "" {
				in.Notes += " "
			}
			in.Notes += DuplicateNote
			plan.Inserts = append(plan.Inserts, in)
		}
	default:
		return ImportPlan{}, fmt.Errorf("%w: %q", appErrors.ErrInvalidDuplicatePolicy, policy)
	}
	return plan, nil
}
