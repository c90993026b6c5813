// internal/service/campaign_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/membercast/internal/errors"
	"github.com/unclebandit/membercast/internal/metrics"
	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/queue"
	"github.com/unclebandit/membercast/internal/repository"
)

// RecentCampaignWindow is how far back DashboardStats counts campaigns.
const RecentCampaignWindow = 30 * 24 * time.Hour

var errRecordResult = errors.New("record campaign result")

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MemberRepo   repository.MemberRepositoryInterface
	OutboundRepo repository.OutboundMessageRepositoryInterface
	Sender       *Sender
	Queue        queue.Queue
	Logger       *zap.Logger
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// CreateCampaignInput is the campaign form.
type CreateCampaignInput struct {
	Title       string     `json:"title" validate:"required"`
	Message     string     `json:"message" validate:"required,max=160"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}

type CampaignDetails struct {
	model.Campaign
	Segments int            `json:"segments"`
	Stats    map[string]int `json:"stats"`
}

type DashboardStats struct {
	TotalMembers      int `json:"totalMembers"`
	RecentCampaigns   int `json:"recentCampaigns"`
	TotalMessagesSent int `json:"totalMessagesSent"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CampaignService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// CreateCampaign stores a new campaign. A send time in the future makes it
// scheduled, otherwise it starts as a draft.
func (s *CampaignService) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c := &model.Campaign{
		Title:       in.Title,
		Message:     in.Message,
		ScheduledAt: in.ScheduledAt,
		Status:      model.StatusDraft,
	}
	if in.ScheduledAt != nil && in.ScheduledAt.After(s.now()) {
		c.Status = model.StatusScheduled
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, id int64) error {
	return s.CampaignRepo.Delete(ctx, id)
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int64) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	counts, err := s.CampaignRepo.GetCampaignStats(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign stats: %w", err)
	}

	stats := map[string]int{"total": 0, model.OutboundSent: 0, model.OutboundFailed: 0}
	for status, n := range counts {
		stats[status] = n
		stats["total"] += n
	}
	return &CampaignDetails{Campaign: *campaign, Segments: campaign.Segments(), Stats: stats}, nil
}

// DashboardStats returns the member count, campaigns created in the last 30
// days and messages delivered overall.
func (s *CampaignService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	members, err := s.MemberRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.CampaignRepo.CountCreatedSince(ctx, s.now().Add(-RecentCampaignWindow))
	if err != nil {
		return nil, err
	}
	sent, err := s.CampaignRepo.SumSent(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{TotalMembers: members, RecentCampaigns: recent, TotalMessagesSent: sent}, nil
}

// SendMessage sends an ad-hoc message that is not stored as a campaign.
func (s *CampaignService) SendMessage(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := validateStruct(req); err != nil {
		return SendResult{}, err
	}
	return s.Sender.Send(ctx, req, nil), nil
}

func (s *CampaignService) loadSendable(ctx context.Context, campaignID int64) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.StatusSent {
		return nil, appErrors.ErrCampaignAlreadySent
	}
	return c, nil
}

func (s *CampaignService) resolveRecipients(ctx context.Context, recipients []string) ([]string, error) {
	if len(recipients) > 0 {
		return recipients, nil
	}
	members, err := s.MemberRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	phones := make([]string, len(members))
	for i, m := range members {
		phones[i] = m.Phone
	}
	return phones, nil
}

// SendCampaign delivers the campaign message to recipients, or to every
// member when recipients is empty. Each recipient's outcome is stored as an
// outbound message and the campaign ends up sent when anyone was reached,
// failed otherwise.
//
// Errors are only returned for problems found before the first message goes
// out, or when the final campaign update fails.
func (s *CampaignService) SendCampaign(ctx context.Context, campaignID int64, recipients []string) (SendResult, error) {
	campaign, err := s.loadSendable(ctx, campaignID)
	if err != nil {
		return SendResult{}, err
	}
	recipients, err = s.resolveRecipients(ctx, recipients)
	if err != nil {
		return SendResult{}, err
	}

	log := s.logger().With(zap.Int64("campaign_id", campaignID))
	log.Info("sending campaign", zap.Int("recipients", len(recipients)))

	ctx = context.WithoutCancel(ctx)
	res := s.Sender.Send(ctx, SendRequest{Message: campaign.Message, Recipients: recipients}, func(o RecipientOutcome) {
		msg := &model.OutboundMessage{CampaignID: campaignID, Phone: o.Recipient, Status: model.OutboundSent}
		if !o.OK {
			msg.Status = model.OutboundFailed
			msg.LastError = o.Reason
		}
		if err := s.OutboundRepo.Create(ctx, msg); err != nil {
			log.Error("failed to record outbound message", zap.String("to", o.Recipient), zap.Error(err))
		}
	})

	status := model.StatusFailed
	if res.Success {
		status = model.StatusSent
	}
	s.Metrics.CampaignFinished(string(status))
	if err := s.CampaignRepo.RecordSendResult(ctx, campaignID, status, res.SuccessCount, len(recipients)); err != nil {
		log.Error("failed to record campaign result", zap.Error(err))
		return res, fmt.Errorf("%w: %w", errRecordResult, err)
	}
	log.Info("campaign finished", zap.String("status", string(status)),
		zap.Int("success_count", res.SuccessCount), zap.Int("error_count", res.ErrorCount))
	return res, nil
}

// QueueCampaign hands the send to the job queue and returns immediately.
func (s *CampaignService) QueueCampaign(ctx context.Context, campaignID int64, recipients []string) error {
	if s.Queue == nil {
		return errors.New("no job queue configured")
	}
	if _, err := s.loadSendable(ctx, campaignID); err != nil {
		return err
	}
	job := queue.CampaignJob{CampaignID: campaignID, Recipients: recipients}
	if err := s.Queue.Publish(queue.TopicCampaignSends, job); err != nil {
		return fmt.Errorf("enqueue campaign %d: %w", campaignID, err)
	}
	s.logger().Info("campaign queued", zap.Int64("campaign_id", campaignID))
	return nil
}

// RunCampaignJob executes a queued send. Failures that happen before any
// message is sent are marked retryable; everything else is final.
func (s *CampaignService) RunCampaignJob(ctx context.Context, job queue.CampaignJob) error {
	_, err := s.SendCampaign(ctx, job.CampaignID, job.Recipients)
	s.Metrics.JobProcessed(err == nil)
	switch {
	case err == nil:
		return nil
	case appErrors.IsNotFound(err), errors.Is(err, appErrors.ErrCampaignAlreadySent):
		return err
	case errors.Is(err, errRecordResult):
		return err
	}
	return queue.Retryable(err)
}
