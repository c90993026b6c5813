package queue

import (
	"context"

	"go.uber.org/zap"
)

// CampaignRunner executes a queued campaign send.
type CampaignRunner interface {
	RunCampaignJob(ctx context.Context, job CampaignJob) error
}

// CampaignJobHandler decodes campaign jobs and hands them to runner.
// Payloads that cannot be decoded are dropped.
func CampaignJobHandler(ctx context.Context, runner CampaignRunner, logger *zap.Logger) func(payload any) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(payload any) error {
		job, err := DecodeCampaignJob(payload)
		if err != nil {
			logger.Warn("dropping invalid campaign job", zap.Error(err))
			return nil
		}
		logger.Info("processing queued campaign", zap.Int64("campaign_id", job.CampaignID))
		return runner.RunCampaignJob(ctx, job)
	}
}

// StartCampaignSendSubscriber routes TopicCampaignSends jobs to runner.
func StartCampaignSendSubscriber(ctx context.Context, q Queue, runner CampaignRunner, logger *zap.Logger) error {
	return q.Subscribe(TopicCampaignSends, CampaignJobHandler(ctx, runner, logger))
}
