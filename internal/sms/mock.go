package sms

import (
	"context"
	"fmt"
	"sync"
)

// SentMessage is a message accepted by Mock.
type SentMessage struct {
	To   string
	Body string
}

// Mock records messages instead of delivering them. Recipients listed in
// Reject are refused with the given text; recipients in Errors fail with a
// Go error. It backs dry runs and tests.
type Mock struct {
	Reject map[string]string
	Errors map[string]error

	mu   sync.Mutex
	sent []SentMessage
	seq  int
}

func (m *Mock) SendSMS(ctx context.Context, to, body string) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors[to]; ok {
		return Result{}, err
	}
	if text, ok := m.Reject[to]; ok {
		return Result{Success: false, Message: text}, nil
	}
	m.seq++
	m.sent = append(m.sent, SentMessage{To: to, Body: body})
	return Result{
		Success:   true,
		Message:   fmt.Sprintf("SMS sent successfully to %s", to),
		MessageID: fmt.Sprintf("SMmock%06d", m.seq),
	}, nil
}

// Sent returns the accepted messages in send order.
func (m *Mock) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Client = (*Mock)(nil)
