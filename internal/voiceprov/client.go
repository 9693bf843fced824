package voiceprov

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/leadflowhq/leadflow/internal/callsync"
)

// Per-call timeout bounds how long one hung provider request can stall a
// poll batch.
const defaultFetchTimeout = 10 * time.Second

// HTTPClient fetches per-call status from the voice provider's REST API.
type HTTPClient struct {
	client  *resty.Client
	baseURL string
	apiKey  string
}

func NewHTTPClient(baseURL string, apiKey string) (*HTTPClient, error) {
	client := resty.New()
	client.SetTimeout(defaultFetchTimeout)
	client.SetRetryCount(0)

	return NewHTTPClientWithResty(baseURL, apiKey, client)
}

func NewHTTPClientWithResty(baseURL string, apiKey string, client *resty.Client) (*HTTPClient, error) {
	trimmedBase := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedBase == "" {
		return nil, fmt.Errorf("provider base url is required")
	}
	if _, err := url.ParseRequestURI(trimmedBase); err != nil {
		return nil, fmt.Errorf("invalid provider base url: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("provider api key is required")
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultFetchTimeout)
	}
	client.SetRetryCount(0)

	return &HTTPClient{
		client:  client,
		baseURL: trimmedBase,
		apiKey:  strings.TrimSpace(apiKey),
	}, nil
}

// FetchCall queries the provider's call-status endpoint and normalizes the
// response into a StatusEvent.
func (c *HTTPClient) FetchCall(ctx context.Context, providerCallID string) (callsync.StatusEvent, error) {
	if c == nil || c.client == nil {
		return callsync.StatusEvent{}, fmt.Errorf("provider client is not initialized")
	}

	trimmedID := strings.TrimSpace(providerCallID)
	if trimmedID == "" {
		return callsync.StatusEvent{}, fmt.Errorf("provider call id is required")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		Get(c.baseURL + "/v1/calls/" + url.PathEscape(trimmedID))
	if err != nil {
		return callsync.StatusEvent{}, &ProviderError{
			Message:   "provider request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return callsync.StatusEvent{}, &ProviderError{
			StatusCode: statusCode,
			Message:    fmt.Sprintf("provider returned status %d for call %s", statusCode, trimmedID),
			Transient:  isTransientHTTPStatus(statusCode),
		}
	}

	ev, err := callsync.ParseStatusEvent(response.Body())
	if err != nil {
		return callsync.StatusEvent{}, &ProviderError{
			StatusCode: statusCode,
			Message:    "provider returned unparseable payload",
			Cause:      err,
		}
	}

	// Some providers omit the call id from the status body.
	if ev.ProviderCallID == "" {
		ev.ProviderCallID = trimmedID
	}

	return ev, nil
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}
