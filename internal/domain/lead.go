package domain

import (
	"fmt"
	"strings"
	"time"
)

// Lead is a dashboard contact. A lead optionally belongs to one campaign.
type Lead struct {
	ID            string
	OwnerID       string
	CampaignID    *string
	Name          string
	PhoneNumber   string
	Email         *string
	Score         *int
	Qualification *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (l *Lead) Validate() error {
	if strings.TrimSpace(l.PhoneNumber) == "" {
		return fmt.Errorf("%w: lead phone number is required", ErrValidation)
	}
	if strings.TrimSpace(l.OwnerID) == "" {
		return fmt.Errorf("%w: lead owner is required", ErrValidation)
	}
	return nil
}

// LeadActivity is one append-only audit entry against a lead. Writes are
// best-effort; a failed append never fails the operation that produced it.
type LeadActivity struct {
	ID        string
	LeadID    string
	CallID    *string
	Kind      string
	Note      string
	CreatedAt time.Time
}
