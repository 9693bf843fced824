package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/leadflowhq/leadflow/internal/repository"
	"go.uber.org/zap"
)

// CampaignService maintains the cached per-campaign counters. The counters
// are always recomputed in full from the lead and call rows; there is no
// incremental bookkeeping to drift.
type CampaignService struct {
	campaigns repository.CampaignRepository
	leads     repository.LeadRepository
	calls     repository.CallRepository
	logger    *zap.Logger
	metrics   *observability.Metrics
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	leads repository.LeadRepository,
	calls repository.CallRepository,
	logger *zap.Logger,
) (*CampaignService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns: campaigns,
		leads:     leads,
		calls:     calls,
		logger:    logger,
	}, nil
}

func (s *CampaignService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *CampaignService) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}
	return s.campaigns.GetByID(ctx, strings.TrimSpace(id))
}

func (s *CampaignService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Campaign, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}
	return s.campaigns.ListByOwner(ctx, strings.TrimSpace(ownerID))
}

// Recompute rebuilds one campaign's counters from the underlying rows and
// writes them back.
//
// completed_calls counts every call attached to the campaign regardless of
// status; successful_calls counts calls whose outcome is interested.
func (s *CampaignService) Recompute(ctx context.Context, campaignID string) (repository.CampaignCounters, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(campaignID) == "" {
		return repository.CampaignCounters{}, fmt.Errorf("%w: campaign id is required", domain.ErrValidation)
	}
	campaignID = strings.TrimSpace(campaignID)

	totalLeads, err := s.leads.CountByCampaign(ctx, campaignID)
	if err != nil {
		return repository.CampaignCounters{}, fmt.Errorf("failed to count campaign leads: %w", err)
	}

	completedCalls, err := s.calls.CountByCampaign(ctx, campaignID)
	if err != nil {
		return repository.CampaignCounters{}, fmt.Errorf("failed to count campaign calls: %w", err)
	}

	successfulCalls, err := s.calls.CountByCampaignOutcome(ctx, campaignID, domain.OutcomeInterested)
	if err != nil {
		return repository.CampaignCounters{}, fmt.Errorf("failed to count successful campaign calls: %w", err)
	}

	counters := repository.CampaignCounters{
		TotalLeads:      int(totalLeads),
		CompletedCalls:  int(completedCalls),
		SuccessfulCalls: int(successfulCalls),
	}

	if err := s.campaigns.UpdateCounters(ctx, campaignID, counters); err != nil {
		if s.metrics != nil {
			s.metrics.IncCampaignRecompute("error")
		}
		return repository.CampaignCounters{}, fmt.Errorf("failed to store campaign counters: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncCampaignRecompute("ok")
	}

	return counters, nil
}

// AssignLead moves a lead onto a campaign (or off every campaign when
// campaignID is nil) and recomputes the counters of both affected campaigns.
func (s *CampaignService) AssignLead(ctx context.Context, leadID string, campaignID *string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(leadID) == "" {
		return fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}
	leadID = strings.TrimSpace(leadID)

	if campaignID != nil {
		trimmed := strings.TrimSpace(*campaignID)
		if trimmed == "" {
			return fmt.Errorf("%w: campaign id must not be blank", domain.ErrValidation)
		}
		campaignID = &trimmed
		if _, err := s.campaigns.GetByID(ctx, trimmed); err != nil {
			return err
		}
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return err
	}
	previous := lead.CampaignID

	if err := s.leads.UpdateCampaign(ctx, leadID, campaignID); err != nil {
		return fmt.Errorf("failed to reassign lead: %w", err)
	}

	// Counter refreshes after the move are best-effort; a failed recompute
	// self-heals on the next recompute of that campaign.
	for _, affected := range []*string{previous, campaignID} {
		if affected == nil {
			continue
		}
		if previous != nil && campaignID != nil && *previous == *campaignID && affected == campaignID {
			continue
		}
		if _, err := s.Recompute(ctx, *affected); err != nil {
			s.logger.Warn("failed to recompute campaign counters after lead reassignment",
				zap.String("campaignId", *affected),
				zap.String("leadId", leadID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// RecalculateAll recomputes the counters of every campaign the owner has.
// Per-campaign failures are logged and skipped; the count of refreshed
// campaigns is returned alongside any aggregate error.
func (s *CampaignService) RecalculateAll(ctx context.Context, ownerID string) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(ownerID) == "" {
		return 0, fmt.Errorf("%w: owner id is required", domain.ErrValidation)
	}

	campaigns, err := s.campaigns.ListByOwner(ctx, strings.TrimSpace(ownerID))
	if err != nil {
		return 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	updated := 0
	failed := 0
	for i := range campaigns {
		if _, err := s.Recompute(ctx, campaigns[i].ID); err != nil {
			failed++
			s.logger.Warn("failed to recompute campaign counters",
				zap.String("campaignId", campaigns[i].ID),
				zap.Error(err),
			)
			continue
		}
		updated++
	}

	if failed > 0 {
		return updated, fmt.Errorf("recalculated with partial failure: %d/%d campaigns failed", failed, len(campaigns))
	}

	return updated, nil
}
