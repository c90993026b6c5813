// Package scheduler hands scheduled campaigns to the job queue once their
// send time has passed.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/queue"
)

type DueLister interface {
	ListDue(ctx context.Context, at time.Time) ([]*model.Campaign, error)
}

// Scheduler polls for due campaigns. A campaign is published at most once
// per process; its status leaves "scheduled" when the send finishes.
type Scheduler struct {
	Campaigns DueLister
	Queue     queue.Queue
	Interval  time.Duration
	Logger    *zap.Logger
	Now       func() time.Time

	mu         sync.Mutex
	dispatched map[int64]bool
}

func (s *Scheduler) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger().Info("scheduler started", zap.Duration("interval", interval))
	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger().Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick publishes every due campaign not yet dispatched and returns how many
// were published.
func (s *Scheduler) Tick(ctx context.Context) int {
	due, err := s.Campaigns.ListDue(ctx, s.now())
	if err != nil {
		s.logger().Error("list due campaigns", zap.Error(err))
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatched == nil {
		s.dispatched = map[int64]bool{}
	}

	n := 0
	for _, c := range due {
		if s.dispatched[c.ID] {
			continue
		}
		if err := s.Queue.Publish(queue.TopicCampaignSends, queue.CampaignJob{CampaignID: c.ID}); err != nil {
			s.logger().Error("dispatch campaign", zap.Int64("campaign_id", c.ID), zap.Error(err))
			continue
		}
		s.dispatched[c.ID] = true
		n++
		s.logger().Info("campaign dispatched", zap.Int64("campaign_id", c.ID), zap.Timep("scheduled_at", c.ScheduledAt))
	}
	return n
}
