package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/leadflowhq/leadflow/internal/callsync"
	"github.com/leadflowhq/leadflow/internal/observability"
	"go.uber.org/zap"
)

// requestContext carries the request id set by the requestid middleware
// into the context so downstream logs can be correlated.
func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.Context()
	if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
		return observability.WithRequestID(ctx, rid)
	}
	return ctx
}

// EventApplier is the shared merge pipeline both ingestion channels feed.
type EventApplier interface {
	ApplyEvent(ctx context.Context, ev callsync.StatusEvent) (*callsync.ApplyResult, error)
}

// Syncer runs one on-demand reconciliation pass against the provider.
type Syncer interface {
	SyncOnce(ctx context.Context) (callsync.SyncResult, error)
}

type WebhookHandler struct {
	applier EventApplier
	syncer  Syncer
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewWebhookHandler(applier EventApplier, syncer Syncer, logger *zap.Logger) (*WebhookHandler, error) {
	if applier == nil {
		return nil, fmt.Errorf("event applier is required")
	}
	if syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WebhookHandler{
		applier: applier,
		syncer:  syncer,
		logger:  logger,
	}, nil
}

// SetMetrics enables the per-status webhook event counter. The counter lives
// here rather than in the shared pipeline so reconciliation polls do not
// inflate a webhook-labeled metric.
func (h *WebhookHandler) SetMetrics(metrics *observability.Metrics) {
	if h == nil {
		return
	}
	h.metrics = metrics
}

func RegisterWebhookRoutes(
	router fiber.Router,
	applier EventApplier,
	syncer Syncer,
	logger *zap.Logger,
	metrics *observability.Metrics,
) error {
	h, err := NewWebhookHandler(applier, syncer, logger)
	if err != nil {
		return err
	}
	h.SetMetrics(metrics)

	v1 := router.Group("/v1")
	v1.Post("/webhooks/voice", h.ReceiveVoiceEvent)
	v1.Post("/calls/sync", h.TriggerSync)

	return nil
}

// Webhook and sync responses follow the provider's snake_case convention;
// the dashboard endpoints keep the API's camelCase.
type webhookResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"call_id"`
	Status  string `json:"status"`
}

type syncResponse struct {
	Success bool `json:"success"`
	Synced  int  `json:"synced"`
	Errors  int  `json:"errors"`
	Total   int  `json:"total"`
}

// ReceiveVoiceEvent ingests one provider status webhook. The provider
// retries on non-2xx, so only real processing failures return one;
// side-effect failures are logged and acknowledged.
func (h *WebhookHandler) ReceiveVoiceEvent(c *fiber.Ctx) error {
	ev, err := callsync.ParseStatusEvent(c.Body())
	if err != nil {
		return toHTTPError(err)
	}

	ctx := requestContext(c)
	logger := observability.WithContextLogger(h.logger, ctx)

	result, err := h.applier.ApplyEvent(ctx, ev)
	if err != nil {
		return toHTTPError(err)
	}

	h.metrics.IncWebhookEvent(result.Call.Status.String())

	logger.Info("webhook event applied",
		zap.String("callId", result.Call.ID),
		zap.String("providerCallId", ev.ProviderCallID),
		zap.String("status", result.Call.Status.String()),
		zap.Bool("statusChanged", result.StatusChanged),
		zap.Bool("analysisTriggered", result.AnalysisTriggered),
	)

	return c.Status(fiber.StatusOK).JSON(webhookResponse{
		Success: true,
		CallID:  result.Call.ID,
		Status:  result.Call.Status.String(),
	})
}

// TriggerSync runs a reconciliation pass outside the regular poll schedule.
func (h *WebhookHandler) TriggerSync(c *fiber.Ctx) error {
	result, err := h.syncer.SyncOnce(c.Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(syncResponse{
		Success: true,
		Synced:  result.Synced,
		Errors:  result.Errors,
		Total:   result.Total,
	})
}
