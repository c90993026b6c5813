// internal/service/sender.go
package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/unclebandit/membercast/internal/metrics"
	"github.com/unclebandit/membercast/internal/sms"
)

type SendRequest struct {
	Message    string   `json:"message" validate:"required"`
	Recipients []string `json:"recipients"`
}

// SendResult summarizes a bulk send. Success is true when at least one
// recipient was reached.
type SendResult struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors,omitempty"`
}

// RecipientOutcome is the result of sending to one recipient.
type RecipientOutcome struct {
	Index     int
	Recipient string
	OK        bool
	MessageID string
	// Reason is the provider or transport error text when OK is false.
	Reason string
}

// Sender delivers one message to a list of recipients.
//
// With Concurrency <= 1 recipients are sent to one at a time in list order.
// Higher values run up to Concurrency sends at once; outcomes are still
// reported and counted in list order. A failed recipient never stops the
// batch and nothing is retried.
type Sender struct {
	Client      sms.Client
	Logger      *zap.Logger
	Concurrency int
	Metrics     *metrics.Metrics
}

func (s *Sender) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// Send runs the batch. observe, if non-nil, is called once per recipient in
// list order as soon as that recipient and every one before it has been
// tried. Cancelling ctx does not stop a batch that has started.
func (s *Sender) Send(ctx context.Context, req SendRequest, observe func(RecipientOutcome)) SendResult {
	ctx = context.WithoutCancel(ctx)

	res := SendResult{}
	record := func(o RecipientOutcome) {
		if o.OK {
			res.SuccessCount++
		} else {
			res.ErrorCount++
			res.Errors = append(res.Errors, fmt.Sprintf("Failed to send to %s: %s", o.Recipient, o.Reason))
		}
		if observe != nil {
			observe(o)
		}
	}

	if s.Concurrency > 1 && len(req.Recipients) > 1 {
		s.sendConcurrent(ctx, req, record)
	} else {
		for i, to := range req.Recipients {
			record(s.sendOne(ctx, i, to, req.Message))
		}
	}

	res.Success = res.SuccessCount > 0
	res.Message = fmt.Sprintf("Campaign completed: %d sent, %d failed", res.SuccessCount, res.ErrorCount)

	s.logger().Info("bulk send finished",
		zap.Int("recipients", len(req.Recipients)),
		zap.Int("success_count", res.SuccessCount),
		zap.Int("error_count", res.ErrorCount),
	)
	return res
}

// sendConcurrent hands outcomes to record in list order. Whenever a send
// finishes, every outcome up to the first recipient still in flight is
// released. record is only called with mu held.
func (s *Sender) sendConcurrent(ctx context.Context, req SendRequest, record func(RecipientOutcome)) {
	var (
		mu       sync.Mutex
		outcomes = make([]RecipientOutcome, len(req.Recipients))
		done     = make([]bool, len(req.Recipients))
		next     int
	)
	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for i, to := range req.Recipients {
		g.Go(func() error {
			o := s.sendOne(ctx, i, to, req.Message)

			mu.Lock()
			defer mu.Unlock()
			outcomes[i], done[i] = o, true
			for next < len(done) && done[next] {
				record(outcomes[next])
				next++
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Sender) sendOne(ctx context.Context, i int, to, message string) RecipientOutcome {
	out := RecipientOutcome{Index: i, Recipient: to}
	res, err := s.Client.SendSMS(ctx, to, message)
	switch {
	case err != nil:
		out.Reason = err.Error()
	case !res.Success:
		out.Reason = res.Message
	default:
		out.OK = true
		out.MessageID = res.MessageID
	}

	s.Metrics.SMSAttempt(out.OK)
	if !out.OK {
		s.logger().Warn("sms send failed", zap.String("to", to), zap.String("reason", out.Reason))
	}
	return out
}

// DefaultTestMessage is sent by SendTest when no body is given.
const DefaultTestMessage = "Test message from membercast"

// SendTest sends a single message to verify provider settings. Transport
// errors are folded into an unsuccessful result.
func (s *Sender) SendTest(ctx context.Context, phone, message string) sms.Result {
	if message == "" {
		message = DefaultTestMessage
	}
	res, err := s.Client.SendSMS(ctx, phone, message)
	if err != nil {
		s.logger().Warn("test sms failed", zap.String("to", phone), zap.Error(err))
		res = sms.Result{Success: false, Message: err.Error()}
	}
	s.Metrics.SMSAttempt(res.Success)
	return res
}
