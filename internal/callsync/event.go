package callsync

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leadflowhq/leadflow/internal/domain"
)

// StatusEvent is the normalized view of one provider signal about a call.
// Both ingestion channels (webhook push and reconciliation poll) produce a
// StatusEvent before handing it to the shared update pipeline, so the merge
// policy exists exactly once.
type StatusEvent struct {
	ProviderCallID string
	RawStatus      string
	Completed      bool
	Queued         bool
	DurationSecs   *int
	Transcript     *string
	RecordingURL   *string
	AnsweredBy     string
	ErrorMessage   string
	Summary        string
	StartedAt      *time.Time
	CompletedAt    *time.Time

	// Raw is the original payload, kept on the call row for audit only.
	Raw []byte
}

// MappedStatus returns the canonical status this event maps to.
func (e StatusEvent) MappedStatus() domain.CallStatus {
	return MapStatus(e.RawStatus, e.Completed, e.Queued)
}

type eventPayload struct {
	CallID                 string       `json:"call_id"`
	Status                 string       `json:"status"`
	Completed              bool         `json:"completed"`
	Queued                 bool         `json:"queued"`
	Duration               *flexSeconds `json:"duration"`
	CallLength             *flexSeconds `json:"call_length"`
	Transcript             *string      `json:"transcript"`
	ConcatenatedTranscript *string      `json:"concatenated_transcript"`
	RecordingURL           *string      `json:"recording_url"`
	AnsweredBy             string       `json:"answered_by"`
	ErrorMessage           string       `json:"error_message"`
	Summary                string       `json:"summary"`
	StartedAt              *time.Time   `json:"started_at"`
	CompletedAt            *time.Time   `json:"completed_at"`
}

// ParseStatusEvent decodes a provider payload (webhook body or poll response)
// into a StatusEvent. Unknown fields are ignored; the raw bytes are retained.
func ParseStatusEvent(data []byte) (StatusEvent, error) {
	var payload eventPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return StatusEvent{}, fmt.Errorf("%w: invalid event payload: %v", domain.ErrValidation, err)
	}

	ev := StatusEvent{
		ProviderCallID: strings.TrimSpace(payload.CallID),
		RawStatus:      payload.Status,
		Completed:      payload.Completed,
		Queued:         payload.Queued,
		RecordingURL:   normalizeOptional(payload.RecordingURL),
		AnsweredBy:     strings.TrimSpace(payload.AnsweredBy),
		ErrorMessage:   strings.TrimSpace(payload.ErrorMessage),
		Summary:        strings.TrimSpace(payload.Summary),
		StartedAt:      payload.StartedAt,
		CompletedAt:    payload.CompletedAt,
		Raw:            data,
	}

	// Providers report the transcript under either key; prefer the
	// concatenated form when both are present.
	if t := normalizeOptional(payload.ConcatenatedTranscript); t != nil {
		ev.Transcript = t
	} else if t := normalizeOptional(payload.Transcript); t != nil {
		ev.Transcript = t
	}

	if payload.CallLength != nil {
		secs := int(*payload.CallLength)
		ev.DurationSecs = &secs
	} else if payload.Duration != nil {
		secs := int(*payload.Duration)
		ev.DurationSecs = &secs
	}

	return ev, nil
}

func normalizeOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// flexSeconds accepts a duration as a JSON number of seconds, a numeric
// string, or a "[HH:]MM:SS" clock string. Providers are observed to use all
// three.
type flexSeconds float64

func (f *flexSeconds) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexSeconds(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a number or string")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexSeconds(n)
		return nil
	}

	secs, err := parseClock(s)
	if err != nil {
		return err
	}
	*f = flexSeconds(secs)
	return nil
}

func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("unrecognized duration %q", s)
	}

	total := 0
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || v < 0 {
			return 0, fmt.Errorf("unrecognized duration %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
