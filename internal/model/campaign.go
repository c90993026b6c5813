// internal/model/campaign.go
package model

import (
	"time"
	"unicode/utf8"
)

type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "draft"
	StatusScheduled CampaignStatus = "scheduled"
	StatusSent      CampaignStatus = "sent"
	StatusFailed    CampaignStatus = "failed"
)

func (s CampaignStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusSent, StatusFailed:
		return true
	}
	return false
}

// SegmentLength is the number of characters billed as one SMS.
const SegmentLength = 160

type Campaign struct {
	ID          int64          `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Message     string         `db:"message" json:"message"`
	ScheduledAt *time.Time     `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Status      CampaignStatus `db:"status" json:"status"`
	SentCount   int            `db:"sent_count" json:"sent_count"`
	TotalCount  int            `db:"total_count" json:"total_count"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// Segments reports how many SMS segments the campaign message occupies.
func (c *Campaign) Segments() int {
	return SegmentCount(c.Message)
}

// SegmentCount returns ceil(len/160) counted in characters, never less than 1.
func SegmentCount(message string) int {
	n := utf8.RuneCountInString(message)
	if n == 0 {
		return 1
	}
	return (n + SegmentLength - 1) / SegmentLength
}
