package callsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/leadflowhq/leadflow/internal/repository"
	"go.uber.org/zap"
)

// ApplyResult separates the primary outcome of an event application from its
// side-effect outcomes. Side-effect errors are reported but never fail the
// primary update.
type ApplyResult struct {
	Call              *domain.Call
	StatusChanged     bool
	AnalysisTriggered bool
	AnalysisErr       error
	AuditErr          error
}

// CallUpdater is the single merge/update pipeline. Webhook ingestion and the
// reconciliation poller both apply their events here, so out-of-order and
// duplicate delivery converge on the same stored state.
type CallUpdater struct {
	calls      repository.CallRepository
	activities repository.ActivityRepository
	gate       *AnalysisGate
	logger     *zap.Logger
	now        func() time.Time
}

func NewCallUpdater(
	calls repository.CallRepository,
	activities repository.ActivityRepository,
	gate *AnalysisGate,
	logger *zap.Logger,
) (*CallUpdater, error) {
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CallUpdater{
		calls:      calls,
		activities: activities,
		gate:       gate,
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (u *CallUpdater) SetMetrics(metrics *observability.Metrics) {
	if u == nil {
		return
	}
	if u.gate != nil {
		u.gate.SetMetrics(metrics)
	}
}

// ApplyEvent merges one provider signal into the local call record.
//
// Status follows the idempotent-terminal rule: a terminal status is never
// overwritten. Non-status fields are merged without discarding previously
// known values when the event omits them. The outcome is classified from the
// signals of terminal events only, so late non-terminal stragglers leave a
// settled outcome alone.
func (u *CallUpdater) ApplyEvent(ctx context.Context, ev StatusEvent) (*ApplyResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(ev.ProviderCallID) == "" {
		return nil, fmt.Errorf("%w: provider call id is required", domain.ErrValidation)
	}

	call, err := u.calls.GetByProviderCallID(ctx, strings.TrimSpace(ev.ProviderCallID))
	if err != nil {
		return nil, err
	}

	previousStatus := call.Status
	u.mergeEvent(call, ev)

	if err := u.calls.Update(ctx, call); err != nil {
		return nil, fmt.Errorf("failed to persist call update: %w", err)
	}

	result := &ApplyResult{
		Call:          call,
		StatusChanged: call.Status != previousStatus,
	}

	// Side effects past the core field update are best-effort and
	// independently retryable; their failures never roll back the update.
	if call.Status.IsTerminal() && strings.TrimSpace(call.TranscriptText()) != "" && u.gate != nil {
		triggered, gateErr := u.gate.Run(ctx, call)
		result.AnalysisTriggered = triggered
		if gateErr != nil {
			result.AnalysisErr = gateErr
			u.logger.Warn("analysis side effect failed",
				zap.String("callId", call.ID),
				zap.Error(gateErr),
			)
		}
	}

	if auditErr := u.appendActivity(ctx, call, result.StatusChanged); auditErr != nil {
		result.AuditErr = auditErr
		u.logger.Warn("failed to append call activity",
			zap.String("callId", call.ID),
			zap.Error(auditErr),
		)
	}

	return result, nil
}

func (u *CallUpdater) mergeEvent(call *domain.Call, ev StatusEvent) {
	mapped := ev.MappedStatus()
	if !call.Status.IsTerminal() {
		call.Status = mapped
	}

	if ev.DurationSecs != nil {
		call.DurationSecs = ev.DurationSecs
	}
	if ev.Transcript != nil {
		call.Transcript = ev.Transcript
	}
	if ev.RecordingURL != nil {
		call.RecordingURL = ev.RecordingURL
	}
	if len(ev.Raw) > 0 {
		call.ProviderPayload = ev.Raw
	}

	if call.StartedAt == nil {
		if ev.StartedAt != nil {
			call.StartedAt = ev.StartedAt
		} else if call.Status == domain.CallStatusInProgress {
			now := u.now().UTC()
			call.StartedAt = &now
		}
	}

	// completed_at is set if and only if the status is terminal.
	if call.Status.IsTerminal() && call.CompletedAt == nil {
		if ev.CompletedAt != nil {
			call.CompletedAt = ev.CompletedAt
		} else {
			now := u.now().UTC()
			call.CompletedAt = &now
		}
	}

	// Only an event that itself reports a terminal status carries the
	// signals the outcome is classified from. A stale non-terminal event
	// landing after the call finished must not erase a settled outcome.
	if mapped.IsTerminal() {
		outcome := ClassifyOutcome(ev.ErrorMessage, ev.AnsweredBy, ev.Summary)
		call.Outcome = &outcome
	}
}

func (u *CallUpdater) appendActivity(ctx context.Context, call *domain.Call, statusChanged bool) error {
	if u.activities == nil || call.LeadID == nil || !statusChanged {
		return nil
	}

	note := fmt.Sprintf("call %s", call.Status)
	if call.Outcome != nil {
		note = fmt.Sprintf("call %s (%s)", call.Status, *call.Outcome)
	}

	return u.activities.Append(ctx, &domain.LeadActivity{
		ID:        uuid.NewString(),
		LeadID:    *call.LeadID,
		CallID:    &call.ID,
		Kind:      "call_status",
		Note:      note,
		CreatedAt: u.now().UTC(),
	})
}
