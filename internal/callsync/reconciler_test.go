package callsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type classifiedFetchErr struct {
	transient bool
}

func (e *classifiedFetchErr) Error() string { return "provider fetch failed" }

func (e *classifiedFetchErr) TransientFetch() bool { return e.transient }

func newTestReconciler(
	t *testing.T,
	calls *fakeCallRepo,
	fetcher *fakeFetcher,
	limiter *fakeLimiter,
) *Reconciler {
	t.Helper()

	updater := newTestUpdater(t, calls, nil, nil)
	rec, err := NewReconciler(calls, fetcher, updater, limiter, time.Minute, 50, nil)
	if err != nil {
		t.Fatalf("NewReconciler() error = %v", err)
	}
	return rec
}

func unfinishedCalls(ids ...string) []domain.Call {
	out := make([]domain.Call, 0, len(ids))
	for _, id := range ids {
		provID := "prov-" + id
		out = append(out, domain.Call{
			ID:             id,
			ProviderCallID: &provID,
			PhoneNumber:    "+15550100",
			Status:         domain.CallStatusInProgress,
		})
	}
	return out
}

func TestSyncOnce(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b"), nil
		},
		getByProviderCallIDFn: func(ctx context.Context, providerCallID string) (*domain.Call, error) {
			return storedCall(domain.CallStatusInProgress), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			return StatusEvent{ProviderCallID: providerCallID, RawStatus: "completed"}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, &fakeLimiter{})

	result, err := rec.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}

	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if result.Synced != 2 {
		t.Errorf("Synced = %d, want 2", result.Synced)
	}
	if result.Errors != 0 {
		t.Errorf("Errors = %d, want 0", result.Errors)
	}
}

func TestSyncOnceIsolatesPerCallFailures(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b", "c"), nil
		},
		getByProviderCallIDFn: func(ctx context.Context, providerCallID string) (*domain.Call, error) {
			return storedCall(domain.CallStatusInProgress), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			if providerCallID == "prov-b" {
				return StatusEvent{}, errors.New("provider timeout")
			}
			return StatusEvent{ProviderCallID: providerCallID, RawStatus: "completed"}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, &fakeLimiter{})

	result, err := rec.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v, one bad record must not fail the pass", err)
	}

	if result.Synced != 2 {
		t.Errorf("Synced = %d, want 2", result.Synced)
	}
	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
	if result.Total != 3 {
		t.Errorf("Total = %d, want 3", result.Total)
	}
}

func TestSyncOnceCountsApplyFailures(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b"), nil
		},
		getByProviderCallIDFn: func(ctx context.Context, providerCallID string) (*domain.Call, error) {
			if providerCallID == "prov-b" {
				return nil, domain.ErrNotFound
			}
			return storedCall(domain.CallStatusInProgress), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			return StatusEvent{ProviderCallID: providerCallID, RawStatus: "busy"}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, &fakeLimiter{})

	result, err := rec.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}

	if result.Synced != 1 {
		t.Errorf("Synced = %d, want 1", result.Synced)
	}
	if result.Errors != 1 {
		t.Errorf("Errors = %d, want 1", result.Errors)
	}
}

func TestSyncOnceListFailure(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return nil, errors.New("db down")
		},
	}
	rec := newTestReconciler(t, calls, &fakeFetcher{}, &fakeLimiter{})

	if _, err := rec.SyncOnce(context.Background()); err == nil {
		t.Fatal("SyncOnce() should fail when candidates cannot be listed")
	}
}

func TestSyncOncePacesProviderRequests(t *testing.T) {
	t.Parallel()

	waits := 0
	limiter := &fakeLimiter{
		waitFn: func(ctx context.Context, scope string) error {
			if scope != "voice-provider" {
				t.Errorf("Wait scope = %q, want voice-provider", scope)
			}
			waits++
			return nil
		},
	}
	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b", "c"), nil
		},
		getByProviderCallIDFn: func(ctx context.Context, providerCallID string) (*domain.Call, error) {
			return storedCall(domain.CallStatusInProgress), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			return StatusEvent{ProviderCallID: providerCallID, RawStatus: "completed"}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, limiter)

	if _, err := rec.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if waits != 3 {
		t.Errorf("limiter waited %d times, want 3", waits)
	}
}

func TestSyncOnceStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	fetches := 0
	limiter := &fakeLimiter{
		waitFn: func(ctx context.Context, scope string) error {
			cancel()
			return ctx.Err()
		},
	}
	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b"), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			fetches++
			return StatusEvent{}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, limiter)

	result, err := rec.SyncOnce(ctx)
	if err != nil {
		t.Fatalf("SyncOnce() error = %v, cancellation ends the pass cleanly", err)
	}
	if fetches != 0 {
		t.Errorf("fetched %d times after cancellation, want 0", fetches)
	}
	if result.Synced != 0 {
		t.Errorf("Synced = %d, want 0", result.Synced)
	}
}

func TestIsTransientFetch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "self-classified transient", err: &classifiedFetchErr{transient: true}, want: true},
		{name: "self-classified permanent", err: &classifiedFetchErr{transient: false}, want: false},
		{name: "wrapped classified error", err: fmt.Errorf("fetch: %w", &classifiedFetchErr{transient: true}), want: true},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := IsTransientFetch(tt.err); got != tt.want {
				t.Errorf("IsTransientFetch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSyncOnceClassifiesFetchFailureLogs(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a", "b"), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			if providerCallID == "prov-a" {
				return StatusEvent{}, &classifiedFetchErr{transient: true}
			}
			return StatusEvent{}, &classifiedFetchErr{transient: false}
		},
	}

	core, logs := observer.New(zap.WarnLevel)
	updater := newTestUpdater(t, calls, nil, nil)
	rec, err := NewReconciler(calls, fetcher, updater, &fakeLimiter{}, time.Minute, 50, zap.New(core))
	if err != nil {
		t.Fatalf("NewReconciler() error = %v", err)
	}

	result, err := rec.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}
	if result.Errors != 2 {
		t.Fatalf("Errors = %d, want 2", result.Errors)
	}

	transient := logs.FilterMessage("transient provider fetch failure")
	if transient.Len() != 1 {
		t.Errorf("transient log entries = %d, want 1", transient.Len())
	} else if transient.All()[0].Level != zap.WarnLevel {
		t.Errorf("transient log level = %v, want warn", transient.All()[0].Level)
	}

	permanent := logs.FilterMessage("permanent provider fetch failure")
	if permanent.Len() != 1 {
		t.Errorf("permanent log entries = %d, want 1", permanent.Len())
	} else if permanent.All()[0].Level != zap.ErrorLevel {
		t.Errorf("permanent log level = %v, want error", permanent.All()[0].Level)
	}
}

func TestSyncOnceDoesNotCountWebhookEvents(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return unfinishedCalls("a"), nil
		},
		getByProviderCallIDFn: func(ctx context.Context, providerCallID string) (*domain.Call, error) {
			return storedCall(domain.CallStatusInProgress), nil
		},
	}
	fetcher := &fakeFetcher{
		fetchCallFn: func(ctx context.Context, providerCallID string) (StatusEvent, error) {
			return StatusEvent{ProviderCallID: providerCallID, RawStatus: "completed"}, nil
		},
	}

	rec := newTestReconciler(t, calls, fetcher, &fakeLimiter{})
	metrics := observability.NewMetrics()
	rec.SetMetrics(metrics)
	rec.updater.SetMetrics(metrics)

	if _, err := rec.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce() error = %v", err)
	}

	// The poll channel counts synced calls; webhook_events_total belongs to
	// the webhook handler alone.
	n, err := testutil.GatherAndCount(metrics.Gatherer(), "leadflow_webhook_events_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("webhook_events_total samples = %d, want 0 from the poll channel", n)
	}

	expected := strings.NewReader(`# HELP leadflow_calls_synced_total Total number of calls updated by the reconciliation poller.
# TYPE leadflow_calls_synced_total counter
leadflow_calls_synced_total 1
`)
	if err := testutil.GatherAndCompare(metrics.Gatherer(), expected, "leadflow_calls_synced_total"); err != nil {
		t.Errorf("calls_synced_total mismatch: %v", err)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	t.Parallel()

	calls := &fakeCallRepo{
		listUnfinishedFn: func(ctx context.Context, limit int) ([]domain.Call, error) {
			return nil, nil
		},
	}
	rec := newTestReconciler(t, calls, &fakeFetcher{}, &fakeLimiter{})
	rec.interval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- rec.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start() did not return after cancellation")
	}
}
