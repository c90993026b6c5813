// internal/model/outbound_message.go
package model

import "time"

// OutboundMessage records the outcome of one recipient of a campaign send.
type OutboundMessage struct {
	ID         int64     `db:"id" json:"id"`
	CampaignID int64     `db:"campaign_id" json:"campaign_id"`
	Phone      string    `db:"phone_number" json:"phone_number"`
	Status     string    `db:"status" json:"status"` // sent, failed
	LastError  string    `db:"last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

const (
	OutboundSent   = "sent"
	OutboundFailed = "failed"
)
