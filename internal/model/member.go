// internal/model/member.go
package model

import "time"

// Member is a person on the organization's contact list.
type Member struct {
	ID           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        string    `db:"phone_number" json:"phone_number"`
	City         string    `db:"city" json:"city"`
	SocialNumber string    `db:"social_number" json:"social_number"`
	Address      string    `db:"address" json:"address"`
	PostalCode   string    `db:"postal_code" json:"postal_code"`
	Notes        string    `db:"notes" json:"notes"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// MemberInput is the insert/update payload for a member.
type MemberInput struct {
	FirstName    string `json:"first_name" validate:"required"`
	LastName     string `json:"last_name" validate:"required"`
	Phone        string `json:"phone_number" validate:"required,phone"`
	City         string `json:"city"`
	SocialNumber string `json:"social_number"`
	Address      string `json:"address"`
	PostalCode   string `json:"postal_code"`
	Notes        string `json:"notes"`
}

// Apply copies the non-key fields of in onto m. ID, phone and CreatedAt are kept.
func (m *Member) Apply(in MemberInput) {
	m.FirstName = in.FirstName
	m.LastName = in.LastName
	m.City = in.City
	m.SocialNumber = in.SocialNumber
	m.Address = in.Address
	m.PostalCode = in.PostalCode
	m.Notes = in.Notes
}

// ParsedMember is a row produced by the import parser. It only lives until
// the import is committed.
type ParsedMember struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	SocialNumber string `json:"social_number"`
	Address      string `json:"address"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	Phone        string `json:"phone_number"`
	Notes        string `json:"notes"`
}

func (p ParsedMember) Input() MemberInput {
	return MemberInput{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone,
		City:         p.City,
		SocialNumber: p.SocialNumber,
		Address:      p.Address,
		PostalCode:   p.PostalCode,
		Notes:        p.Notes,
	}
}

// DuplicateMember is a parsed row whose normalized phone matches a stored member.
type DuplicateMember struct {
	ParsedMember
	Existing Member `json:"existing_member"`
}
