package callsync

import (
	"strings"

	"github.com/leadflowhq/leadflow/internal/domain"
)

// MapStatus translates a provider status string plus the queue/completion
// flags into the canonical call status.
//
// The completion flag wins over the raw string: providers are observed to
// report stale intermediate strings alongside a reliable completion flag.
// Unknown strings map to pending, never to an error.
func MapStatus(raw string, completed bool, queued bool) domain.CallStatus {
	if completed {
		return domain.CallStatusCompleted
	}

	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")

	switch normalized {
	case "pending", "new", "created", "scheduled":
		return domain.CallStatusPending
	case "queued", "queue", "ringing", "starting":
		return domain.CallStatusQueued
	case "in-progress", "started", "active", "ongoing", "live":
		return domain.CallStatusInProgress
	case "completed", "complete", "done", "ended", "finished":
		return domain.CallStatusCompleted
	case "failed", "error", "errored":
		return domain.CallStatusFailed
	case "no-answer", "noanswer", "unanswered":
		return domain.CallStatusNoAnswer
	case "busy":
		return domain.CallStatusBusy
	case "cancelled", "canceled":
		return domain.CallStatusCancelled
	}

	if queued {
		return domain.CallStatusQueued
	}
	return domain.CallStatusPending
}
