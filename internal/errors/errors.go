// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPhoneTaken               = errors.New("phone number already exists")
	ErrInvalidDuplicatePolicy   = errors.New("duplicate handling must be one of: skip, overwrite, keep-both")
	ErrCampaignAlreadySent      = errors.New("campaign has already been sent")
	ErrImportSessionNotFound    = errors.New("import session not found or expired")
	ErrSMSProviderNotConfigured = errors.New("sms provider is not configured")
)

// ErrCampaignNotFound is returned when no campaign has the requested ID.
type ErrCampaignNotFound struct {
	CampaignID int64
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

func NewCampaignNotFound(id int64) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrMemberNotFound is returned when no member has the requested ID.
type ErrMemberNotFound struct {
	MemberID int64
}

func (e *ErrMemberNotFound) Error() string {
	return fmt.Sprintf("member with ID %d not found", e.MemberID)
}

func NewMemberNotFound(id int64) error {
	return &ErrMemberNotFound{MemberID: id}
}

// IsNotFound reports whether err wraps a member or campaign not-found error.
func IsNotFound(err error) bool {
	var c *ErrCampaignNotFound
	var m *ErrMemberNotFound
	return errors.As(err, &c) || errors.As(err, &m)
}

// ValidationError lists what is wrong with a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func NewValidation(problems ...string) error {
	return &ValidationError{Problems: problems}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
