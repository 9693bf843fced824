package repository

import (
	"time"

	"github.com/leadflowhq/leadflow/internal/domain"
)

// CallModel is the persistence model for the calls table.
type CallModel struct {
	ID              string             `gorm:"type:uuid;primaryKey"`
	ProviderCallID  *string            `gorm:"type:varchar(255)"`
	LeadID          *string            `gorm:"type:uuid"`
	CampaignID      *string            `gorm:"type:uuid"`
	PhoneNumber     string             `gorm:"type:varchar(32);not null"`
	Status          domain.CallStatus  `gorm:"type:varchar(20);not null"`
	Outcome         *domain.CallOutcome `gorm:"type:varchar(20)"`
	DurationSecs    *int               `gorm:"type:int"`
	Transcript      *string            `gorm:"type:text"`
	RecordingURL    *string            `gorm:"type:text"`
	Analysis        *string            `gorm:"type:text"`
	LeadScore       *int               `gorm:"type:int"`
	Qualification   *string            `gorm:"type:varchar(50)"`
	AnalyzedHash    *string            `gorm:"type:varchar(64)"`
	ProviderPayload []byte             `gorm:"type:jsonb"`
	StartedAt       *time.Time         `gorm:"type:timestamptz"`
	CompletedAt     *time.Time         `gorm:"type:timestamptz"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CallModel) TableName() string {
	return "calls"
}

// CampaignModel is the persistence model for the campaigns table.
type CampaignModel struct {
	ID              string                `gorm:"type:uuid;primaryKey"`
	OwnerID         string                `gorm:"type:varchar(64);not null"`
	Name            string                `gorm:"type:varchar(255);not null"`
	Status          domain.CampaignStatus `gorm:"type:varchar(20);not null"`
	AIPrompt        string                `gorm:"type:text"`
	VoiceID         string                `gorm:"type:varchar(100)"`
	TotalLeads      int                   `gorm:"not null;default:0"`
	CompletedCalls  int                   `gorm:"not null;default:0"`
	SuccessfulCalls int                   `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// LeadModel is the persistence model for the leads table.
type LeadModel struct {
	ID            string     `gorm:"type:uuid;primaryKey"`
	OwnerID       string     `gorm:"type:varchar(64);not null"`
	CampaignID    *string    `gorm:"type:uuid"`
	Name          string     `gorm:"type:varchar(255)"`
	PhoneNumber   string     `gorm:"type:varchar(32);not null"`
	Email         *string    `gorm:"type:varchar(255)"`
	Score         *int       `gorm:"type:int"`
	Qualification *string    `gorm:"type:varchar(50)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (LeadModel) TableName() string {
	return "leads"
}

// LeadActivityModel is the persistence model for the lead_activities table.
type LeadActivityModel struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	LeadID    string  `gorm:"type:uuid;not null"`
	CallID    *string `gorm:"type:uuid"`
	Kind      string  `gorm:"type:varchar(50);not null"`
	Note      string  `gorm:"type:text"`
	CreatedAt time.Time
}

func (LeadActivityModel) TableName() string {
	return "lead_activities"
}

func callModelFromDomain(c *domain.Call) *CallModel {
	if c == nil {
		return nil
	}

	return &CallModel{
		ID:              c.ID,
		ProviderCallID:  c.ProviderCallID,
		LeadID:          c.LeadID,
		CampaignID:      c.CampaignID,
		PhoneNumber:     c.PhoneNumber,
		Status:          c.Status,
		Outcome:         c.Outcome,
		DurationSecs:    c.DurationSecs,
		Transcript:      c.Transcript,
		RecordingURL:    c.RecordingURL,
		Analysis:        c.Analysis,
		LeadScore:       c.LeadScore,
		Qualification:   c.Qualification,
		AnalyzedHash:    c.AnalyzedHash,
		ProviderPayload: c.ProviderPayload,
		StartedAt:       c.StartedAt,
		CompletedAt:     c.CompletedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func callModelToDomain(m *CallModel) *domain.Call {
	if m == nil {
		return nil
	}

	return &domain.Call{
		ID:              m.ID,
		ProviderCallID:  m.ProviderCallID,
		LeadID:          m.LeadID,
		CampaignID:      m.CampaignID,
		PhoneNumber:     m.PhoneNumber,
		Status:          m.Status,
		Outcome:         m.Outcome,
		DurationSecs:    m.DurationSecs,
		Transcript:      m.Transcript,
		RecordingURL:    m.RecordingURL,
		Analysis:        m.Analysis,
		LeadScore:       m.LeadScore,
		Qualification:   m.Qualification,
		AnalyzedHash:    m.AnalyzedHash,
		ProviderPayload: m.ProviderPayload,
		StartedAt:       m.StartedAt,
		CompletedAt:     m.CompletedAt,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func campaignModelFromDomain(c *domain.Campaign) *CampaignModel {
	if c == nil {
		return nil
	}

	return &CampaignModel{
		ID:              c.ID,
		OwnerID:         c.OwnerID,
		Name:            c.Name,
		Status:          c.Status,
		AIPrompt:        c.AIPrompt,
		VoiceID:         c.VoiceID,
		TotalLeads:      c.TotalLeads,
		CompletedCalls:  c.CompletedCalls,
		SuccessfulCalls: c.SuccessfulCalls,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func campaignModelToDomain(m *CampaignModel) *domain.Campaign {
	if m == nil {
		return nil
	}

	return &domain.Campaign{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Name:            m.Name,
		Status:          m.Status,
		AIPrompt:        m.AIPrompt,
		VoiceID:         m.VoiceID,
		TotalLeads:      m.TotalLeads,
		CompletedCalls:  m.CompletedCalls,
		SuccessfulCalls: m.SuccessfulCalls,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func leadModelFromDomain(l *domain.Lead) *LeadModel {
	if l == nil {
		return nil
	}

	return &LeadModel{
		ID:            l.ID,
		OwnerID:       l.OwnerID,
		CampaignID:    l.CampaignID,
		Name:          l.Name,
		PhoneNumber:   l.PhoneNumber,
		Email:         l.Email,
		Score:         l.Score,
		Qualification: l.Qualification,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func leadModelToDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}

	return &domain.Lead{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		CampaignID:    m.CampaignID,
		Name:          m.Name,
		PhoneNumber:   m.PhoneNumber,
		Email:         m.Email,
		Score:         m.Score,
		Qualification: m.Qualification,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func activityModelFromDomain(a *domain.LeadActivity) *LeadActivityModel {
	if a == nil {
		return nil
	}

	return &LeadActivityModel{
		ID:        a.ID,
		LeadID:    a.LeadID,
		CallID:    a.CallID,
		Kind:      a.Kind,
		Note:      a.Note,
		CreatedAt: a.CreatedAt,
	}
}

func activityModelToDomain(m *LeadActivityModel) *domain.LeadActivity {
	if m == nil {
		return nil
	}

	return &domain.LeadActivity{
		ID:        m.ID,
		LeadID:    m.LeadID,
		CallID:    m.CallID,
		Kind:      m.Kind,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
}
