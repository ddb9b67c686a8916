// Package campaign implements the campaign broadcast engine and the chat
// history search behind the assistant's tool calls.
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	apperrors "github.com/misciohq/miscio/internal/errors"
	"github.com/misciohq/miscio/plugin/sms"
	"github.com/misciohq/miscio/store"
)

// Service owns Campaign/Interaction writes. Launch supersedes previous
// campaigns and fans the initial message out to every student.
type Service struct {
	store     *store.Store
	messenger sms.Messenger
	logger    *slog.Logger
}

// NewService creates a campaign service.
func NewService(store *store.Store, messenger sms.Messenger, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		messenger: messenger,
		logger:    logger,
	}
}

// Launch creates a new active campaign and broadcasts the initial message to
// all students.
//
// The campaign row and the deactivation of its predecessors commit together in
// one transaction, before any send. Each outreach attempt is then recorded
// individually with its true delivery status: one student's send failure is
// logged and never aborts the broadcast or rolls back earlier records.
func (s *Service) Launch(ctx context.Context, description string, adminID int32) (*store.Campaign, error) {
	s.logger.Info("creating campaign",
		slog.String("description", description),
		slog.Int64("admin_id", int64(adminID)))

	campaign, err := s.store.CreateCampaign(ctx, &store.Campaign{
		UID:         shortuuid.New(),
		Description: description,
		AdminID:     adminID,
		CreatedTs:   time.Now().Unix(),
	})
	if err != nil {
		return nil, apperrors.CampaignCreationFailed("failed to create campaign", err)
	}

	students, err := s.store.ListStudents(ctx)
	if err != nil {
		return nil, apperrors.CampaignCreationFailed("failed to load students", err)
	}
	s.logger.Info("starting campaign broadcast",
		slog.Int64("campaign_id", int64(campaign.ID)),
		slog.Int("students", len(students)))

	for _, student := range students {
		s.broadcastTo(ctx, campaign, student)
	}

	return campaign, nil
}

// broadcastTo sends the initial campaign message to one student and records
// the attempt. The send happens outside any transaction: a crash between send
// and record can lose the record, accepted as an at-most-once-record,
// at-least-once-send tradeoff.
func (s *Service) broadcastTo(ctx context.Context, campaign *store.Campaign, student *store.Student) {
	message := fmt.Sprintf("Hi %s, %s", student.FirstName, campaign.Description)

	status := store.DeliveryStatusSent
	if _, err := s.messenger.Send(ctx, student.Phone, message); err != nil {
		status = store.DeliveryStatusFailed
		s.logger.Error("failed to send campaign message",
			slog.Int64("campaign_id", int64(campaign.ID)),
			slog.Int64("student_id", int64(student.ID)),
			slog.String("error", err.Error()))
	}

	if _, err := s.store.CreateInteraction(ctx, &store.Interaction{
		CampaignID: campaign.ID,
		StudentID:  student.ID,
		Message:    message,
		Type:       store.InteractionTypeInitial,
		Status:     status,
		CreatedTs:  time.Now().Unix(),
	}); err != nil {
		s.logger.Error("failed to record interaction",
			slog.Int64("campaign_id", int64(campaign.ID)),
			slog.Int64("student_id", int64(student.ID)),
			slog.String("error", err.Error()))
	}
}

// Stats summarizes a campaign's outreach.
type Stats struct {
	TotalStudents     int64   `json:"total_students"`
	ResponsesReceived int64   `json:"responses_received"`
	ResponseRate      float64 `json:"response_rate"`
}

// Stats returns outreach statistics for one campaign.
func (s *Service) Stats(ctx context.Context, campaignID int32) (*Stats, error) {
	total, err := s.store.CountInteractions(ctx, &store.FindInteraction{CampaignID: &campaignID})
	if err != nil {
		return nil, fmt.Errorf("failed to count interactions: %w", err)
	}
	responseType := store.InteractionTypeResponse
	responses, err := s.store.CountInteractions(ctx, &store.FindInteraction{
		CampaignID: &campaignID,
		Type:       &responseType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	stats := &Stats{TotalStudents: total, ResponsesReceived: responses}
	if total > 0 {
		stats.ResponseRate = float64(responses) / float64(total) * 100
	}
	return stats, nil
}
