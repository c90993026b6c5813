package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TopicCampaignSends carries CampaignJob payloads.
const TopicCampaignSends = "campaign_sends"

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// CampaignJob asks a worker to send one campaign. An empty Recipients list
// means every member.
type CampaignJob struct {
	CampaignID int64    `json:"campaign_id"`
	Recipients []string `json:"recipients,omitempty"`
}

// DecodeCampaignJob accepts the payload shapes the in-memory and AMQP
// queues deliver.
func DecodeCampaignJob(payload any) (CampaignJob, error) {
	switch p := payload.(type) {
	case CampaignJob:
		return p, nil
	case *CampaignJob:
		if p == nil {
			return CampaignJob{}, errors.New("nil campaign job")
		}
		return *p, nil
	case []byte:
		var job CampaignJob
		if err := json.Unmarshal(p, &job); err != nil {
			return CampaignJob{}, fmt.Errorf("decode campaign job: %w", err)
		}
		return job, nil
	}
	return CampaignJob{}, fmt.Errorf("unexpected campaign job payload %T", payload)
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as safe to run again. Handlers return unmarked errors
// for failures that must not be repeated.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// InMemoryQueue runs handlers in goroutines and retries retryable failures
// with a linear backoff.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	wg       sync.WaitGroup
	logger   *zap.Logger

	MaxRetries int
	Backoff    time.Duration
}

// NewInMemoryQueue creates a new queue
func NewInMemoryQueue(logger *zap.Logger) *InMemoryQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryQueue{
		handlers:   make(map[string][]func(payload any) error),
		logger:     logger,
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
	}
}

// JobPayload wraps a message payload with retry info
type JobPayload struct {
	Topic      string
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	if len(handlers) == 0 {
		return fmt.Errorf("no subscribers for topic %s", topic)
	}

	for _, handler := range handlers {
		job := JobPayload{Topic: topic, Payload: payload, MaxRetries: q.MaxRetries}
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.processJob(handler, job)
		}()
	}

	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(handler func(payload any) error, job JobPayload) {
	log := q.logger.With(zap.String("topic", job.Topic))
	for {
		err := handler(job.Payload)
		if err == nil {
			log.Debug("job processed", zap.Int("attempt", job.RetryCount+1))
			return
		}
		if !IsRetryable(err) {
			log.Error("job failed", zap.Error(err))
			return
		}

		job.RetryCount++
		if job.RetryCount > job.MaxRetries {
			log.Error("job permanently failed", zap.Int("attempts", job.RetryCount), zap.Error(err))
			return
		}
		log.Warn("job failed, retrying", zap.Int("attempt", job.RetryCount), zap.Int("max_retries", job.MaxRetries), zap.Error(err))
		time.Sleep(time.Duration(job.RetryCount) * q.Backoff)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Wait blocks until every published job has finished.
func (q *InMemoryQueue) Wait() {
	q.wg.Wait()
}

var _ Queue = (*InMemoryQueue)(nil)
