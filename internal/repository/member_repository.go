package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unclebandit/membercast/internal/db"
	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/model"
)

// MemberRepositoryInterface defines methods used by services
type MemberRepositoryInterface interface {
	ListAll(ctx context.Context) ([]model.Member, error)
	GetByID(ctx context.Context, id int64) (*model.Member, error)
	Create(ctx context.Context, in model.MemberInput) (*model.Member, error)
	Update(ctx context.Context, m *model.Member) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// MemberRepository is the concrete implementation
type MemberRepository struct {
	DB *sql.DB
}

const memberColumns = `id, first_name, last_name, phone_number, city, social_number, address, postal_code, notes, created_at`

func scanMember(row interface{ Scan(...any) error }, m *model.Member) error {
	return row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Phone, &m.City,
		&m.SocialNumber, &m.Address, &m.PostalCode, &m.Notes, &m.CreatedAt)
}

// ListAll returns every member ordered by first then last name.
func (r *MemberRepository) ListAll(ctx context.Context) ([]model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members ORDER BY first_name, last_name, id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *MemberRepository) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	var m model.Member
	if err := scanMember(r.DB.QueryRowContext(ctx, query, id), &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewMemberNotFound(id)
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts a member. A phone already on file yields ErrPhoneTaken.
func (r *MemberRepository) Create(ctx context.Context, in model.MemberInput) (*model.Member, error) {
	m := &model.Member{CreatedAt: now()}
	m.Phone = in.Phone
	m.Apply(in)

	query := `
        INSERT INTO members (first_name, last_name, phone_number, city, social_number, address, postal_code, notes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		m.FirstName, m.LastName, m.Phone, m.City, m.SocialNumber,
		m.Address, m.PostalCode, m.Notes, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, appErrors.ErrPhoneTaken
		}
		return nil, err
	}
	return m, nil
}

// Update writes every mutable column of m, phone included.
func (r *MemberRepository) Update(ctx context.Context, m *model.Member) error {
	query := `
        UPDATE members
        SET first_name=$1, last_name=$2, phone_number=$3, city=$4, social_number=$5,
            address=$6, postal_code=$7, notes=$8
        WHERE id=$9
    `
	res, err := r.DB.ExecContext(ctx, query,
		m.FirstName, m.LastName, m.Phone, m.City, m.SocialNumber,
		m.Address, m.PostalCode, m.Notes, m.ID,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return appErrors.ErrPhoneTaken
		}
		return err
	}
	return expectOne(res, appErrors.NewMemberNotFound(m.ID))
}

func (r *MemberRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewMemberNotFound(id))
}

func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// now is the store clock. Times are kept in UTC at second precision so they
// compare correctly as text in SQLite.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

var _ MemberRepositoryInterface = (*MemberRepository)(nil)
