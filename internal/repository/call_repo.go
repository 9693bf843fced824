package repository

import (
	"context"
	"errors"
	"time"

	"github.com/leadflowhq/leadflow/internal/domain"
	"gorm.io/gorm"
)

type CallListParams struct {
	Status     *domain.CallStatus
	CampaignID *string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// CallAnalysis is the collaborator result persisted against a call.
type CallAnalysis struct {
	Analysis       string
	LeadScore      int
	Qualification  string
	TranscriptHash string
}

type CallRepository interface {
	Create(ctx context.Context, c *domain.Call) error
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	GetByProviderCallID(ctx context.Context, providerCallID string) (*domain.Call, error)
	// ListUnfinished returns calls in a non-terminal status that have a
	// provider call id assigned, bounded to limit.
	ListUnfinished(ctx context.Context, limit int) ([]domain.Call, error)
	List(ctx context.Context, params CallListParams) ([]domain.Call, int64, error)
	Update(ctx context.Context, c *domain.Call) error
	SetAnalysis(ctx context.Context, id string, a CallAnalysis) error
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
	CountByCampaignOutcome(ctx context.Context, campaignID string, outcome domain.CallOutcome) (int64, error)
}

type GormCallRepo struct {
	db *gorm.DB
}

func NewGormCallRepo(db *gorm.DB) *GormCallRepo {
	return &GormCallRepo{db: db}
}

func (r *GormCallRepo) Create(ctx context.Context, c *domain.Call) error {
	model := callModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *callModelToDomain(model)
	}
	return nil
}

func (r *GormCallRepo) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	var model CallModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callModelToDomain(&model), nil
}

func (r *GormCallRepo) GetByProviderCallID(ctx context.Context, providerCallID string) (*domain.Call, error) {
	var model CallModel
	err := r.db.WithContext(ctx).
		Where("provider_call_id = ?", providerCallID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return callModelToDomain(&model), nil
}

func (r *GormCallRepo) ListUnfinished(ctx context.Context, limit int) ([]domain.Call, error) {
	nonTerminal := []domain.CallStatus{
		domain.CallStatusPending,
		domain.CallStatusQueued,
		domain.CallStatusInProgress,
	}

	var models []CallModel
	err := r.db.WithContext(ctx).
		Where("status IN ? AND provider_call_id IS NOT NULL", nonTerminal).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	calls := make([]domain.Call, 0, len(models))
	for i := range models {
		calls = append(calls, *callModelToDomain(&models[i]))
	}

	return calls, nil
}

func (r *GormCallRepo) List(ctx context.Context, params CallListParams) ([]domain.Call, int64, error) {
	query := r.db.WithContext(ctx).Model(&CallModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.CampaignID != nil {
		query = query.Where("campaign_id = ?", *params.CampaignID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []CallModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	calls := make([]domain.Call, 0, len(models))
	for i := range models {
		calls = append(calls, *callModelToDomain(&models[i]))
	}

	return calls, total, nil
}

// Update persists the merged state of a call. Writes the full field set the
// pipeline merges so the row mirrors the in-memory merge result.
func (r *GormCallRepo) Update(ctx context.Context, c *domain.Call) error {
	if c == nil {
		return domain.ErrNotFound
	}

	result := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("id = ?", c.ID).
		Updates(map[string]any{
			"status":           c.Status,
			"outcome":          c.Outcome,
			"duration_secs":    c.DurationSecs,
			"transcript":       c.Transcript,
			"recording_url":    c.RecordingURL,
			"provider_payload": c.ProviderPayload,
			"started_at":       c.StartedAt,
			"completed_at":     c.CompletedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCallRepo) SetAnalysis(ctx context.Context, id string, a CallAnalysis) error {
	result := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"analysis":      a.Analysis,
			"lead_score":    a.LeadScore,
			"qualification": a.Qualification,
			"analyzed_hash": a.TranscriptHash,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCallRepo) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error
	return count, err
}

func (r *GormCallRepo) CountByCampaignOutcome(
	ctx context.Context,
	campaignID string,
	outcome domain.CallOutcome,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CallModel{}).
		Where("campaign_id = ? AND outcome = ?", campaignID, outcome).
		Count(&count).Error
	return count, err
}
