package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
)

func newTestAnalyzer(t *testing.T, handler http.HandlerFunc) *HTTPAnalyzer {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	analyzer, err := NewHTTPAnalyzerWithClient(srv.URL, "test-key", resty.New())
	if err != nil {
		t.Fatalf("NewHTTPAnalyzerWithClient() error = %v", err)
	}
	return analyzer
}

func TestAnalyze(t *testing.T) {
	t.Parallel()

	analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/analyze" {
			t.Errorf("path = %q, want /v1/analyze", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Authorization = %q, want bearer token", r.Header.Get("Authorization"))
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("request decode error = %v", err)
		}
		if req["call_id"] != "call-1" {
			t.Errorf("call_id = %q, want call-1", req["call_id"])
		}
		if req["transcript"] != "hello there" {
			t.Errorf("transcript = %q, want hello there", req["transcript"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"analysis":"promising","lead_score":75,"qualification":"warm"}`))
	})

	result, err := analyzer.Analyze(context.Background(), "call-1", "hello there")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.Analysis != "promising" {
		t.Errorf("Analysis = %q, want promising", result.Analysis)
	}
	if result.LeadScore != 75 {
		t.Errorf("LeadScore = %d, want 75", result.LeadScore)
	}
	if result.Qualification != "warm" {
		t.Errorf("Qualification = %q, want warm", result.Qualification)
	}
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"analysis":"ok","lead_score":50,"qualification":"warm"}`))
	})

	result, err := analyzer.Analyze(context.Background(), "call-1", "hello")
	if err != nil {
		t.Fatalf("Analyze() error = %v after retries", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if result.LeadScore != 50 {
		t.Errorf("LeadScore = %d, want 50", result.LeadScore)
	}
}

func TestAnalyzeDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32
	analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	if _, err := analyzer.Analyze(context.Background(), "call-1", "hello"); err == nil {
		t.Fatal("Analyze() should fail on a 4xx response")
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not be retried)", got)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	t.Parallel()

	analyzer := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {})

	if _, err := analyzer.Analyze(context.Background(), "call-1", "   "); err == nil {
		t.Fatal("Analyze() should reject a blank transcript")
	}
}

func TestNewHTTPAnalyzerValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPAnalyzer("", "key"); err == nil {
		t.Error("NewHTTPAnalyzer() should reject an empty base url")
	}
	if _, err := NewHTTPAnalyzer("not a url", "key"); err == nil {
		t.Error("NewHTTPAnalyzer() should reject a malformed base url")
	}
}
