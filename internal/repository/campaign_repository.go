package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/model"
)

type CampaignRepositoryInterface interface {
	// Campaign CRUD
	ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error)
	GetByID(ctx context.Context, id int64) (*model.Campaign, error)
	Create(ctx context.Context, c *model.Campaign) error
	Delete(ctx context.Context, id int64) error
	UpdateStatus(ctx context.Context, campaignID int64, status model.CampaignStatus) error
	RecordSendResult(ctx context.Context, campaignID int64, status model.CampaignStatus, sent, total int) error

	// Scheduling and dashboard
	ListDue(ctx context.Context, now time.Time) ([]*model.Campaign, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	SumSent(ctx context.Context) (int, error)

	// Outbound message stats
	GetCampaignStats(ctx context.Context, campaignID int64) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, title, message, scheduled_at, status, sent_count, total_count, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	c := &model.Campaign{}
	err := row.Scan(&c.ID, &c.Title, &c.Message, &c.ScheduledAt, &c.Status,
		&c.SentCount, &c.TotalCount, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	c.CreatedAt = now()
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	if c.ScheduledAt != nil {
		at := c.ScheduledAt.UTC().Truncate(time.Second)
		c.ScheduledAt = &at
	}
	query := `
        INSERT INTO campaigns (title, message, scheduled_at, status, sent_count, total_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		c.Title, c.Message, c.ScheduledAt, string(c.Status), c.SentCount, c.TotalCount, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(ctx context.Context, offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		where += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query := `SELECT ` + campaignColumns + ` FROM campaigns` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)

	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

func (r *CampaignRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewCampaignNotFound(id))
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int64, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE id=$3`
	res, err := r.DB.ExecContext(ctx, query, string(status), now(), campaignID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewCampaignNotFound(campaignID))
}

// RecordSendResult stores the outcome of a send attempt.
func (r *CampaignRepository) RecordSendResult(ctx context.Context, campaignID int64, status model.CampaignStatus, sent, total int) error {
	query := `UPDATE campaigns SET status=$1, sent_count=$2, total_count=$3, updated_at=$4 WHERE id=$5`
	res, err := r.DB.ExecContext(ctx, query, string(status), sent, total, now(), campaignID)
	if err != nil {
		return err
	}
	return expectOne(res, appErrors.NewCampaignNotFound(campaignID))
}

// ====================== Scheduling & dashboard ======================

// ListDue returns scheduled campaigns whose send time has passed, oldest first.
func (r *CampaignRepository) ListDue(ctx context.Context, at time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
        WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
        ORDER BY scheduled_at, id`
	rows, err := r.DB.QueryContext(ctx, query, string(model.StatusScheduled), at.UTC().Truncate(time.Second))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	due := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, c)
	}
	return due, rows.Err()
}

func (r *CampaignRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns WHERE created_at >= $1`,
		since.UTC().Truncate(time.Second)).Scan(&n)
	return n, err
}

// SumSent is the number of messages delivered across all campaigns.
func (r *CampaignRepository) SumSent(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(sent_count), 0) FROM campaigns`).Scan(&n)
	return n, err
}

// ====================== Outbound Messages ======================

func (r *CampaignRepository) GetCampaignStats(ctx context.Context, campaignID int64) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM outbound_messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{model.OutboundSent: 0, model.OutboundFailed: 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
