package analysis

import "context"

// Result is the structured output of the transcript-analysis collaborator.
type Result struct {
	Analysis      string
	LeadScore     int
	Qualification string
}

// Analyzer is the outbound transcript-analysis port.
type Analyzer interface {
	Analyze(ctx context.Context, callID string, transcript string) (*Result, error)
}
