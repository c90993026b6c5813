// Package sms delivers single text messages through a messaging provider.
package sms

import (
	"context"

	"github.com/unclebandit/membercast/internal/model"
)

// Result is the provider's answer for one message. A delivery the provider
// refused is Success=false with a human-readable Message, not a Go error.
type Result struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"message_id,omitempty"`
}

type Client interface {
	SendSMS(ctx context.Context, to, body string) (Result, error)
}

// CredentialSource supplies provider credentials. They are read on every
// send so settings changes apply without a restart.
type CredentialSource interface {
	TwilioSettings(ctx context.Context) (model.TwilioSettings, error)
}
