package repository

import (
	"context"

	"github.com/leadflowhq/leadflow/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Append(ctx context.Context, a *domain.LeadActivity) error
	ListByLead(ctx context.Context, leadID string) ([]domain.LeadActivity, error)
}

type GormActivityRepo struct {
	db *gorm.DB
}

func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

func (r *GormActivityRepo) Append(ctx context.Context, a *domain.LeadActivity) error {
	model := activityModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *activityModelToDomain(model)
	}
	return nil
}

func (r *GormActivityRepo) ListByLead(ctx context.Context, leadID string) ([]domain.LeadActivity, error) {
	var models []LeadActivityModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	activities := make([]domain.LeadActivity, 0, len(models))
	for i := range models {
		activities = append(activities, *activityModelToDomain(&models[i]))
	}

	return activities, nil
}
