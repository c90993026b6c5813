package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/membercast/internal/model"
)

type OutboundMessageRepositoryInterface interface {
	Create(ctx context.Context, msg *model.OutboundMessage) error
	ListByCampaign(ctx context.Context, campaignID int64) ([]model.OutboundMessage, error)
}

type OutboundMessageRepository struct {
	DB *sql.DB
}

// Create inserts a new outbound message and sets its ID
func (r *OutboundMessageRepository) Create(ctx context.Context, msg *model.OutboundMessage) error {
	msg.CreatedAt = now()
	query := `
        INSERT INTO outbound_messages (campaign_id, phone_number, status, last_error, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		msg.CampaignID,
		msg.Phone,
		msg.Status,
		msg.LastError,
		msg.CreatedAt,
	).Scan(&msg.ID)
}

// ListByCampaign returns the per-recipient outcomes of a campaign in send order.
func (r *OutboundMessageRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]model.OutboundMessage, error) {
	query := `
        SELECT id, campaign_id, phone_number, status, last_error, created_at
        FROM outbound_messages
        WHERE campaign_id=$1
        ORDER BY id
    `
	rows, err := r.DB.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []model.OutboundMessage{}
	for rows.Next() {
		var m model.OutboundMessage
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Phone, &m.Status, &m.LastError, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

var _ OutboundMessageRepositoryInterface = (*OutboundMessageRepository)(nil)
