package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/repository"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type CallService interface {
	GetByID(ctx context.Context, id string) (*domain.Call, error)
	List(ctx context.Context, params repository.CallListParams) ([]domain.Call, int64, error)
}

type CallHandler struct {
	service CallService
}

func NewCallHandler(service CallService) (*CallHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("call service is required")
	}
	return &CallHandler{service: service}, nil
}

func RegisterCallRoutes(router fiber.Router, service CallService) error {
	h, err := NewCallHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/calls/:id", h.GetCall)
	v1.Get("/calls", h.ListCalls)

	return nil
}

type callResponse struct {
	ID             string     `json:"id"`
	ProviderCallID *string    `json:"providerCallId,omitempty"`
	LeadID         *string    `json:"leadId,omitempty"`
	CampaignID     *string    `json:"campaignId,omitempty"`
	PhoneNumber    string     `json:"phoneNumber"`
	Status         string     `json:"status"`
	Outcome        *string    `json:"outcome,omitempty"`
	DurationSecs   *int       `json:"durationSecs,omitempty"`
	Transcript     *string    `json:"transcript,omitempty"`
	RecordingURL   *string    `json:"recordingUrl,omitempty"`
	Analysis       *string    `json:"analysis,omitempty"`
	LeadScore      *int       `json:"leadScore,omitempty"`
	Qualification  *string    `json:"qualification,omitempty"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type listCallsResponse struct {
	Data []callResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

func (h *CallHandler) GetCall(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	call, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCallResponse(call))
}

func (h *CallHandler) ListCalls(c *fiber.Ctx) error {
	params, err := parseCallListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	calls, total, err := h.service.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]callResponse, 0, len(calls))
	for i := range calls {
		responses = append(responses, toCallResponse(&calls[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listCallsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseCallListParams(c *fiber.Ctx) (repository.CallListParams, error) {
	params := repository.CallListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.CallListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.CallListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseCallStatusFromString(rawStatus)
		if err != nil {
			return repository.CallListParams{}, err
		}
		params.Status = &status
	}

	if campaignID := strings.TrimSpace(c.Query("campaignId")); campaignID != "" {
		params.CampaignID = &campaignID
	}

	from, err := parseRFC3339Query(c.Query("from"), "from")
	if err != nil {
		return repository.CallListParams{}, err
	}
	to, err := parseRFC3339Query(c.Query("to"), "to")
	if err != nil {
		return repository.CallListParams{}, err
	}
	params.From = from
	params.To = to

	return params, nil
}

func parseRFC3339Query(value string, field string) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be RFC3339", domain.ErrValidation, field)
	}
	return &t, nil
}

func toCallResponse(call *domain.Call) callResponse {
	if call == nil {
		return callResponse{}
	}

	var outcome *string
	if call.Outcome != nil {
		s := call.Outcome.String()
		outcome = &s
	}

	return callResponse{
		ID:             call.ID,
		ProviderCallID: call.ProviderCallID,
		LeadID:         call.LeadID,
		CampaignID:     call.CampaignID,
		PhoneNumber:    call.PhoneNumber,
		Status:         call.Status.String(),
		Outcome:        outcome,
		DurationSecs:   call.DurationSecs,
		Transcript:     call.Transcript,
		RecordingURL:   call.RecordingURL,
		Analysis:       call.Analysis,
		LeadScore:      call.LeadScore,
		Qualification:  call.Qualification,
		StartedAt:      call.StartedAt,
		CompletedAt:    call.CompletedAt,
		CreatedAt:      call.CreatedAt,
		UpdatedAt:      call.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
