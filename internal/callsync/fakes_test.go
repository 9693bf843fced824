package callsync

import (
	"context"
	"errors"

	"github.com/leadflowhq/leadflow/internal/analysis"
	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/repository"
)

type fakeCallRepo struct {
	createFn                 func(ctx context.Context, c *domain.Call) error
	getByIDFn                func(ctx context.Context, id string) (*domain.Call, error)
	getByProviderCallIDFn    func(ctx context.Context, providerCallID string) (*domain.Call, error)
	listUnfinishedFn         func(ctx context.Context, limit int) ([]domain.Call, error)
	listFn                   func(ctx context.Context, params repository.CallListParams) ([]domain.Call, int64, error)
	updateFn                 func(ctx context.Context, c *domain.Call) error
	setAnalysisFn            func(ctx context.Context, id string, a repository.CallAnalysis) error
	countByCampaignFn        func(ctx context.Context, campaignID string) (int64, error)
	countByCampaignOutcomeFn func(ctx context.Context, campaignID string, outcome domain.CallOutcome) (int64, error)
}

func (f *fakeCallRepo) Create(ctx context.Context, c *domain.Call) error {
	if f.createFn != nil {
		return f.createFn(ctx, c)
	}
	return nil
}

func (f *fakeCallRepo) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCallRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (*domain.Call, error) {
	if f.getByProviderCallIDFn != nil {
		return f.getByProviderCallIDFn(ctx, providerCallID)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCallRepo) ListUnfinished(ctx context.Context, limit int) ([]domain.Call, error) {
	if f.listUnfinishedFn != nil {
		return f.listUnfinishedFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeCallRepo) List(ctx context.Context, params repository.CallListParams) ([]domain.Call, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, 0, nil
}

func (f *fakeCallRepo) Update(ctx context.Context, c *domain.Call) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, c)
	}
	return nil
}

func (f *fakeCallRepo) SetAnalysis(ctx context.Context, id string, a repository.CallAnalysis) error {
	if f.setAnalysisFn != nil {
		return f.setAnalysisFn(ctx, id, a)
	}
	return nil
}

func (f *fakeCallRepo) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	if f.countByCampaignFn != nil {
		return f.countByCampaignFn(ctx, campaignID)
	}
	return 0, nil
}

func (f *fakeCallRepo) CountByCampaignOutcome(
	ctx context.Context,
	campaignID string,
	outcome domain.CallOutcome,
) (int64, error) {
	if f.countByCampaignOutcomeFn != nil {
		return f.countByCampaignOutcomeFn(ctx, campaignID, outcome)
	}
	return 0, nil
}

type fakeLeadRepo struct {
	createFn          func(ctx context.Context, l *domain.Lead) error
	getByIDFn         func(ctx context.Context, id string) (*domain.Lead, error)
	countByCampaignFn func(ctx context.Context, campaignID string) (int64, error)
	updateCampaignFn  func(ctx context.Context, id string, campaignID *string) error
	setScoreFn        func(ctx context.Context, id string, score int, qualification string) error
}

func (f *fakeLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLeadRepo) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	if f.countByCampaignFn != nil {
		return f.countByCampaignFn(ctx, campaignID)
	}
	return 0, nil
}

func (f *fakeLeadRepo) UpdateCampaign(ctx context.Context, id string, campaignID *string) error {
	if f.updateCampaignFn != nil {
		return f.updateCampaignFn(ctx, id, campaignID)
	}
	return nil
}

func (f *fakeLeadRepo) SetScore(ctx context.Context, id string, score int, qualification string) error {
	if f.setScoreFn != nil {
		return f.setScoreFn(ctx, id, score, qualification)
	}
	return nil
}

type fakeActivityRepo struct {
	appendFn func(ctx context.Context, a *domain.LeadActivity) error
}

func (f *fakeActivityRepo) Append(ctx context.Context, a *domain.LeadActivity) error {
	if f.appendFn != nil {
		return f.appendFn(ctx, a)
	}
	return nil
}

func (f *fakeActivityRepo) ListByLead(ctx context.Context, leadID string) ([]domain.LeadActivity, error) {
	return nil, nil
}

type fakeAnalyzer struct {
	analyzeFn func(ctx context.Context, callID string, transcript string) (*analysis.Result, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, callID string, transcript string) (*analysis.Result, error) {
	if f.analyzeFn != nil {
		return f.analyzeFn(ctx, callID, transcript)
	}
	return nil, errors.New("not implemented")
}

type fakeFetcher struct {
	fetchCallFn func(ctx context.Context, providerCallID string) (StatusEvent, error)
}

func (f *fakeFetcher) FetchCall(ctx context.Context, providerCallID string) (StatusEvent, error) {
	if f.fetchCallFn != nil {
		return f.fetchCallFn(ctx, providerCallID)
	}
	return StatusEvent{}, errors.New("not implemented")
}

type fakeLimiter struct {
	waitFn func(ctx context.Context, scope string) error
}

func (f *fakeLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	return true, nil
}

func (f *fakeLimiter) Wait(ctx context.Context, scope string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}
