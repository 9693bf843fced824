package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/repository"
	"go.uber.org/zap"
)

// CallService is the read surface over call rows. Writes go through the
// sync pipeline only.
type CallService struct {
	calls  repository.CallRepository
	logger *zap.Logger
}

func NewCallService(calls repository.CallRepository, logger *zap.Logger) (*CallService, error) {
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CallService{
		calls:  calls,
		logger: logger,
	}, nil
}

func (s *CallService) GetByID(ctx context.Context, id string) (*domain.Call, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: call id is required", domain.ErrValidation)
	}
	return s.calls.GetByID(ctx, strings.TrimSpace(id))
}

func (s *CallService) List(
	ctx context.Context,
	params repository.CallListParams,
) ([]domain.Call, int64, error) {
	return s.calls.List(ctx, params)
}
