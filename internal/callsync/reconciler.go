package callsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/leadflowhq/leadflow/internal/ratelimit"
	"github.com/leadflowhq/leadflow/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultSyncInterval = time.Minute
	defaultSyncLimit    = 50

	providerRateScope = "voice-provider"
)

// CallFetcher pulls authoritative per-call state from the voice provider.
type CallFetcher interface {
	FetchCall(ctx context.Context, providerCallID string) (StatusEvent, error)
}

// transientFetch is implemented by fetch errors that classify themselves.
type transientFetch interface {
	TransientFetch() bool
}

// IsTransientFetch reports whether a provider fetch failure is expected to
// clear on a later reconciliation pass.
func IsTransientFetch(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var classified transientFetch
	if errors.As(err, &classified) {
		return classified.TransientFetch()
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	return false
}

// SyncResult is the aggregate outcome of one reconciliation pass.
type SyncResult struct {
	Synced int
	Errors int
	Total  int
}

// Reconciler is the poll-driven catch-up channel. Webhooks can be lost or
// delayed; a periodic pass over non-terminal calls guarantees eventual
// convergence because it applies the exact pipeline the webhook handler does.
type Reconciler struct {
	calls    repository.CallRepository
	fetcher  CallFetcher
	updater  *CallUpdater
	limiter  ratelimit.RateLimiter
	logger   *zap.Logger
	metrics  *observability.Metrics
	interval time.Duration
	limit    int
}

func NewReconciler(
	calls repository.CallRepository,
	fetcher CallFetcher,
	updater *CallUpdater,
	limiter ratelimit.RateLimiter,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*Reconciler, error) {
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("call fetcher is required")
	}
	if updater == nil {
		return nil, fmt.Errorf("call updater is required")
	}
	if interval <= 0 {
		interval = defaultSyncInterval
	}
	if limit <= 0 {
		limit = defaultSyncLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		calls:    calls,
		fetcher:  fetcher,
		updater:  updater,
		limiter:  limiter,
		logger:   logger,
		interval: interval,
		limit:    limit,
	}, nil
}

func (r *Reconciler) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// Start runs reconciliation passes until context cancellation.
func (r *Reconciler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial pass so stale calls do not wait for the first ticker edge.
	if _, err := r.SyncOnce(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("initial reconciliation pass failed", zap.Error(err))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.SyncOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Error("reconciliation pass failed", zap.Error(err))
			}
		}
	}
}

// SyncOnce reconciles one bounded batch of non-terminal calls against the
// provider. A per-call failure is counted and skipped; only a failure to even
// list candidates errors the pass.
func (r *Reconciler) SyncOnce(ctx context.Context) (SyncResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if r.metrics != nil {
		r.metrics.IncSyncRun()
	}

	pending, err := r.calls.ListUnfinished(ctx, r.limit)
	if err != nil {
		return SyncResult{}, fmt.Errorf("failed to list unfinished calls: %w", err)
	}

	result := SyncResult{Total: len(pending)}
	for i := range pending {
		call := pending[i]
		if call.ProviderCallID == nil {
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, providerRateScope); err != nil {
				if ctx.Err() != nil {
					return result, nil
				}
				result.Errors++
				r.logger.Warn("rate limiter wait failed",
					zap.String("callId", call.ID),
					zap.Error(err),
				)
				continue
			}
		}

		ev, err := r.fetcher.FetchCall(ctx, *call.ProviderCallID)
		if err != nil {
			result.Errors++
			fields := []zap.Field{
				zap.String("callId", call.ID),
				zap.String("providerCallId", *call.ProviderCallID),
				zap.Error(err),
			}
			// Transient failures clear on the next pass; permanent ones
			// need someone to look at them.
			if IsTransientFetch(err) {
				r.logger.Warn("transient provider fetch failure", fields...)
			} else {
				r.logger.Error("permanent provider fetch failure", fields...)
			}
			continue
		}

		if _, err := r.updater.ApplyEvent(ctx, ev); err != nil {
			result.Errors++
			r.logger.Warn("failed to apply provider event",
				zap.String("callId", call.ID),
				zap.Error(err),
			)
			continue
		}

		result.Synced++
	}

	if r.metrics != nil {
		r.metrics.AddCallsSynced(result.Synced)
		r.metrics.AddSyncErrors(result.Errors)
	}

	r.logger.Info("reconciliation pass finished",
		zap.Int("synced", result.Synced),
		zap.Int("errors", result.Errors),
		zap.Int("total", result.Total),
	)

	return result, nil
}
