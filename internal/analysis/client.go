package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
)

const (
	defaultAnalyzeTimeout = 30 * time.Second
	maxAnalyzeRetries     = 3
)

type analyzeRequest struct {
	CallID     string `json:"call_id"`
	Transcript string `json:"transcript"`
}

type analyzeResponse struct {
	Analysis      string `json:"analysis"`
	LeadScore     int    `json:"lead_score"`
	Qualification string `json:"qualification"`
}

// HTTPAnalyzer calls the transcript-analysis collaborator over HTTP.
// Transient failures (5xx, network) are retried with exponential backoff;
// 4xx responses are not.
type HTTPAnalyzer struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewHTTPAnalyzer(baseURL string, apiKey string) (*HTTPAnalyzer, error) {
	client := resty.New()
	client.SetTimeout(defaultAnalyzeTimeout)
	client.SetRetryCount(0)

	return NewHTTPAnalyzerWithClient(baseURL, apiKey, client)
}

func NewHTTPAnalyzerWithClient(baseURL string, apiKey string, client *resty.Client) (*HTTPAnalyzer, error) {
	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		return nil, fmt.Errorf("analysis base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid analysis base url: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultAnalyzeTimeout)
	}
	client.SetRetryCount(0)

	return &HTTPAnalyzer{
		client:  client,
		baseURL: trimmedBase,
		apiKey:  strings.TrimSpace(apiKey),
	}, nil
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, callID string, transcript string) (*Result, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("analyzer is not initialized")
	}
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript is required")
	}

	var parsed analyzeResponse

	operation := func() error {
		req := a.client.R().
			SetContext(ctx).
			SetHeader("Content-Type", "application/json").
			SetBody(analyzeRequest{CallID: callID, Transcript: transcript}).
			SetResult(&parsed)
		if a.apiKey != "" {
			req.SetHeader("Authorization", "Bearer "+a.apiKey)
		}

		response, err := req.Post(a.baseURL + "/v1/analyze")
		if err != nil {
			return fmt.Errorf("analysis request failed: %w", err)
		}

		statusCode := response.StatusCode()
		if statusCode >= http.StatusInternalServerError {
			return fmt.Errorf("analysis collaborator returned status %d", statusCode)
		}
		if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
			return backoff.Permanent(fmt.Errorf("analysis collaborator returned status %d", statusCode))
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAnalyzeRetries),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return &Result{
		Analysis:      strings.TrimSpace(parsed.Analysis),
		LeadScore:     parsed.LeadScore,
		Qualification: strings.TrimSpace(parsed.Qualification),
	}, nil
}
