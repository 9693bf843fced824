package callsync

import (
	"strings"

	"github.com/leadflowhq/leadflow/internal/domain"
)

var negativeIntentKeywords = []string{
	"not interested",
	"no interest",
	"declined",
	"do not call",
	"don't call",
	"stop calling",
	"wrong number",
	"remove me",
}

var positiveIntentKeywords = []string{
	"interested",
	"follow up",
	"follow-up",
	"call back",
	"callback",
	"schedule",
	"send more info",
	"demo",
}

// ClassifyOutcome derives the business outcome of a finished call from the
// provider signals. First match wins; negative intent is checked before
// positive so "not interested" never classifies as interested.
//
// This is a best-effort heuristic, re-evaluated in full on each terminal
// event. A misclassification is not an error condition.
func ClassifyOutcome(errorMessage string, answeredBy string, summary string) domain.CallOutcome {
	if strings.TrimSpace(errorMessage) != "" {
		return domain.OutcomeFailed
	}

	switch strings.ToLower(strings.TrimSpace(answeredBy)) {
	case "voicemail", "machine":
		return domain.OutcomeVoicemail
	case "human":
		normalized := strings.ToLower(summary)
		if containsAny(normalized, negativeIntentKeywords) {
			return domain.OutcomeNoInterest
		}
		if containsAny(normalized, positiveIntentKeywords) {
			return domain.OutcomeInterested
		}
		return domain.OutcomeContacted
	}

	return domain.OutcomeNoAnswer
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
