package callsync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/leadflowhq/leadflow/internal/analysis"
	"github.com/leadflowhq/leadflow/internal/domain"
	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/leadflowhq/leadflow/internal/repository"
	"go.uber.org/zap"
)

// AnalysisGate decides whether a call's transcript gets sent to the analysis
// collaborator. The decision is keyed on the stored transcript hash: the same
// transcript is analyzed at most once, a changed transcript is analyzed
// again, and a failed collaborator call leaves no marker so the next
// webhook or poll pass retries.
type AnalysisGate struct {
	calls    repository.CallRepository
	leads    repository.LeadRepository
	analyzer analysis.Analyzer
	logger   *zap.Logger
	metrics  *observability.Metrics
}

func NewAnalysisGate(
	calls repository.CallRepository,
	leads repository.LeadRepository,
	analyzer analysis.Analyzer,
	logger *zap.Logger,
) (*AnalysisGate, error) {
	if calls == nil {
		return nil, fmt.Errorf("call repository is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("analyzer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AnalysisGate{
		calls:    calls,
		leads:    leads,
		analyzer: analyzer,
		logger:   logger,
	}, nil
}

func (g *AnalysisGate) SetMetrics(metrics *observability.Metrics) {
	if g == nil {
		return
	}
	g.metrics = metrics
}

// TranscriptHash returns the hex sha256 of a trimmed transcript.
func TranscriptHash(transcript string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(transcript)))
	return hex.EncodeToString(sum[:])
}

// Run triggers analysis for the call if warranted. Returns whether the
// collaborator was invoked. A skip is a no-op, never an error.
func (g *AnalysisGate) Run(ctx context.Context, call *domain.Call) (bool, error) {
	if call == nil {
		return false, nil
	}

	transcript := strings.TrimSpace(call.TranscriptText())
	if transcript == "" {
		return false, nil
	}

	hash := TranscriptHash(transcript)
	if call.AnalyzedHash != nil && *call.AnalyzedHash == hash {
		return false, nil
	}

	if g.metrics != nil {
		g.metrics.IncAnalysisTriggered()
	}

	result, err := g.analyzer.Analyze(ctx, call.ID, transcript)
	if err != nil {
		// No marker is written on failure so the next pass retries.
		if g.metrics != nil {
			g.metrics.IncAnalysisFailed()
		}
		return true, fmt.Errorf("transcript analysis failed: %w", err)
	}

	stored := repository.CallAnalysis{
		Analysis:       result.Analysis,
		LeadScore:      result.LeadScore,
		Qualification:  result.Qualification,
		TranscriptHash: hash,
	}
	if err := g.calls.SetAnalysis(ctx, call.ID, stored); err != nil {
		if g.metrics != nil {
			g.metrics.IncAnalysisFailed()
		}
		return true, fmt.Errorf("failed to store analysis: %w", err)
	}

	call.Analysis = &stored.Analysis
	call.LeadScore = &stored.LeadScore
	call.Qualification = &stored.Qualification
	call.AnalyzedHash = &stored.TranscriptHash

	// Lead scoring is a best-effort follow-on; the analysis itself is
	// already persisted.
	if call.LeadID != nil && g.leads != nil {
		if err := g.leads.SetScore(ctx, *call.LeadID, result.LeadScore, result.Qualification); err != nil {
			g.logger.Warn("failed to propagate analysis score to lead",
				zap.String("callId", call.ID),
				zap.String("leadId", *call.LeadID),
				zap.Error(err),
			)
		}
	}

	return true, nil
}
