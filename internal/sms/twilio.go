package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const DefaultTwilioBaseURL = "https://api.twilio.com"

const (
	msgMissingAuth   = "Twilio Account SID and Auth Token are required. Please configure them in Settings."
	msgMissingSender = "Either Twilio Phone Number or Sender ID is required. Please configure them in Settings."
	msgSendFailed    = "Failed to send SMS"
)

// twilioErrorMessages maps Twilio REST error codes to text shown to the user.
var twilioErrorMessages = map[int]string{
	21211: "Invalid phone number format",
	21608: "The phone number is not verified for trial accounts",
	21614: "Invalid sender ID",
	20003: "Authentication failed - check your Account SID and Auth Token",
}

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

// TwilioClient sends messages with the Twilio Messages REST API.
type TwilioClient struct {
	httpClient *resty.Client
	creds      CredentialSource
	logger     *zap.Logger
}

func NewTwilioClient(baseURL string, timeout time.Duration, creds CredentialSource, logger *zap.Logger) *TwilioClient {
	if baseURL == "" {
		baseURL = DefaultTwilioBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &TwilioClient{httpClient: client, creds: creds, logger: logger}
}

func (c *TwilioClient) SendSMS(ctx context.Context, to, body string) (Result, error) {
	cfg, err := c.creds.TwilioSettings(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load twilio settings: %w", err)
	}
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		return Result{Success: false, Message: msgMissingAuth}, nil
	}
	if cfg.PhoneNumber == "" && cfg.SenderID == "" {
		return Result{Success: false, Message: msgMissingSender}, nil
	}

	from := cfg.PhoneNumber
	if cfg.SenderID != "" {
		from = cfg.SenderID
	}

	var msg twilioMessage
	var apiErr twilioError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken).
		SetPathParam("sid", cfg.AccountSID).
		SetFormData(map[string]string{
			"To":   to,
			"From": from,
			"Body": body,
		}).
		SetResult(&msg).
		SetError(&apiErr).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		c.logger.Error("twilio request failed", zap.String("to", to), zap.Error(err))
		return Result{}, fmt.Errorf("failed to call Twilio API: %w", err)
	}

	if resp.IsError() {
		text := twilioErrorMessages[apiErr.Code]
		if text == "" {
			text = apiErr.Message
		}
		if text == "" {
			text = msgSendFailed
		}
		c.logger.Warn("twilio rejected message",
			zap.String("to", to),
			zap.Int("status_code", resp.StatusCode()),
			zap.Int("twilio_code", apiErr.Code),
			zap.String("twilio_message", apiErr.Message),
		)
		return Result{Success: false, Message: text}, nil
	}

	c.logger.Debug("sms accepted", zap.String("to", to), zap.String("sid", msg.SID))
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("SMS sent successfully to %s", to),
		MessageID: msg.SID,
	}, nil
}

var _ Client = (*TwilioClient)(nil)
