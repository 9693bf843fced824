package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus represents the running state of a calling campaign.
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusDraft, CampaignStatusActive, CampaignStatusPaused, CampaignStatusCompleted:
		return true
	}
	return false
}

// Campaign groups leads and calls under one calling effort. The three
// counters are a cache over the lead/call rows; they converge on recompute.
type Campaign struct {
	ID      string
	OwnerID string
	Name    string
	Status  CampaignStatus

	// AIPrompt and VoiceID configure the voice provider; opaque to the
	// sync core.
	AIPrompt string
	VoiceID  string

	TotalLeads      int
	CompletedCalls  int
	SuccessfulCalls int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if strings.TrimSpace(c.OwnerID) == "" {
		return fmt.Errorf("%w: campaign owner is required", ErrValidation)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: invalid campaign status %q", ErrValidation, c.Status)
	}
	return nil
}
