package domain

import (
	"fmt"
	"strings"
	"time"
)

// CallStatus represents the lifecycle state of an outbound call.
type CallStatus string

const (
	CallStatusPending    CallStatus = "pending"
	CallStatusQueued     CallStatus = "queued"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusBusy       CallStatus = "busy"
	CallStatusCancelled  CallStatus = "cancelled"
)

func (s CallStatus) String() string { return string(s) }

func (s CallStatus) IsValid() bool {
	switch s {
	case CallStatusPending, CallStatusQueued, CallStatusInProgress,
		CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer,
		CallStatusBusy, CallStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further status transition is accepted.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer,
		CallStatusBusy, CallStatusCancelled:
		return true
	}
	return false
}

func ParseCallStatusFromString(s string) (CallStatus, error) {
	st := CallStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid call status %q", ErrValidation, s)
	}
	return st, nil
}

// CallOutcome is the business classification of a finished call, distinct
// from the technical status.
type CallOutcome string

const (
	OutcomeVoicemail  CallOutcome = "voicemail"
	OutcomeInterested CallOutcome = "interested"
	OutcomeNoInterest CallOutcome = "no-interest"
	OutcomeContacted  CallOutcome = "contacted"
	OutcomeNoAnswer   CallOutcome = "no-answer"
	OutcomeFailed     CallOutcome = "failed"
)

func (o CallOutcome) String() string { return string(o) }

func (o CallOutcome) IsValid() bool {
	switch o {
	case OutcomeVoicemail, OutcomeInterested, OutcomeNoInterest,
		OutcomeContacted, OutcomeNoAnswer, OutcomeFailed:
		return true
	}
	return false
}

func ParseCallOutcomeFromString(s string) (CallOutcome, error) {
	o := CallOutcome(strings.ToLower(strings.TrimSpace(s)))
	if !o.IsValid() {
		return "", fmt.Errorf("%w: invalid call outcome %q", ErrValidation, s)
	}
	return o, nil
}

// Call is one outbound call attempt. The local row is the source of truth for
// status and outcome; it is kept consistent with the remote call via provider
// webhooks and the reconciliation poller.
type Call struct {
	ID             string
	ProviderCallID *string
	LeadID         *string
	CampaignID     *string
	PhoneNumber    string
	Status         CallStatus
	Outcome        *CallOutcome
	DurationSecs   *int
	Transcript     *string
	RecordingURL   *string

	// Analysis holds the collaborator result; AnalyzedHash is the sha256 of
	// the transcript the analysis was computed from. A nil hash means the
	// call has not been analyzed yet.
	Analysis      *string
	LeadScore     *int
	Qualification *string
	AnalyzedHash  *string

	// ProviderPayload keeps the most recent raw provider payload for audit.
	// Never used for business logic.
	ProviderPayload []byte

	StartedAt   *time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Call) Validate() error {
	if strings.TrimSpace(c.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, c.Status)
	}
	if c.Outcome != nil && !c.Outcome.IsValid() {
		return fmt.Errorf("%w: invalid outcome %q", ErrValidation, *c.Outcome)
	}
	return nil
}

// TranscriptText returns the transcript or "" when unset.
func (c *Call) TranscriptText() string {
	if c.Transcript == nil {
		return ""
	}
	return *c.Transcript
}
