package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/repository"
)

const userIDHeader = "X-User-ID"

type CampaignService interface {
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Campaign, error)
	Recompute(ctx context.Context, campaignID string) (repository.CampaignCounters, error)
	AssignLead(ctx context.Context, leadID string, campaignID *string) error
	RecalculateAll(ctx context.Context, ownerID string) (int, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/campaigns", RequireUser(), h.ListCampaigns)
	v1.Get("/campaigns/:id", h.GetCampaign)
	v1.Post("/campaigns/:id/recompute", h.RecomputeCampaign)
	v1.Post("/campaigns/recalculate", RequireUser(), h.RecalculateCampaigns)
	v1.Put("/leads/:id/campaign", h.AssignLead)

	return nil
}

// RequireUser resolves the acting user from the X-User-ID header. Identity is
// always explicit; handlers read it from locals, never from ambient state.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get(userIDHeader))
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "X-User-ID header is required")
		}
		c.Locals("userID", userID)
		return c.Next()
	}
}

func requestUserID(c *fiber.Ctx) string {
	if value, ok := c.Locals("userID").(string); ok {
		return value
	}
	return ""
}

type campaignResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"ownerId"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	TotalLeads      int       `json:"totalLeads"`
	CompletedCalls  int       `json:"completedCalls"`
	SuccessfulCalls int       `json:"successfulCalls"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type recomputeResponse struct {
	CampaignID      string `json:"campaignId"`
	TotalLeads      int    `json:"totalLeads"`
	CompletedCalls  int    `json:"completedCalls"`
	SuccessfulCalls int    `json:"successfulCalls"`
}

type recalculateResponse struct {
	Updated int    `json:"updated"`
	Warning string `json:"warning,omitempty"`
}

type assignLeadRequest struct {
	CampaignID *string `json:"campaignId"`
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	campaign, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	campaigns, err := h.service.ListByOwner(c.Context(), requestUserID(c))
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, toCampaignResponse(&campaigns[i]))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"data": responses,
	})
}

func (h *CampaignHandler) RecomputeCampaign(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	counters, err := h.service.Recompute(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(recomputeResponse{
		CampaignID:      id,
		TotalLeads:      counters.TotalLeads,
		CompletedCalls:  counters.CompletedCalls,
		SuccessfulCalls: counters.SuccessfulCalls,
	})
}

func (h *CampaignHandler) RecalculateCampaigns(c *fiber.Ctx) error {
	updated, err := h.service.RecalculateAll(c.Context(), requestUserID(c))
	if err != nil {
		// Partial failure still refreshed some campaigns; report both.
		if updated > 0 {
			return c.Status(fiber.StatusOK).JSON(recalculateResponse{
				Updated: updated,
				Warning: err.Error(),
			})
		}
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(recalculateResponse{
		Updated: updated,
	})
}

func (h *CampaignHandler) AssignLead(c *fiber.Ctx) error {
	var req assignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	leadID := strings.TrimSpace(c.Params("id"))
	if err := h.service.AssignLead(c.Context(), leadID, req.CampaignID); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"leadId":     leadID,
		"campaignId": req.CampaignID,
	})
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	return campaignResponse{
		ID:              campaign.ID,
		OwnerID:         campaign.OwnerID,
		Name:            campaign.Name,
		Status:          campaign.Status.String(),
		TotalLeads:      campaign.TotalLeads,
		CompletedCalls:  campaign.CompletedCalls,
		SuccessfulCalls: campaign.SuccessfulCalls,
		CreatedAt:       campaign.CreatedAt,
		UpdatedAt:       campaign.UpdatedAt,
	}
}
