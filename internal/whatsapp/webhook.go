package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/revgas/gasbot/internal/conversation"
	"github.com/revgas/gasbot/internal/observability/metrics"
	"github.com/revgas/gasbot/pkg/logging"
)

var webhookTracer = otel.Tracer("gasbot.internal.whatsapp.webhook")

type turnHandler interface {
	HandleTurn(ctx context.Context, msg conversation.InboundMessage) (conversation.TurnResult, error)
}

// Handler handles provider webhook requests.
type Handler struct {
	turns   turnHandler
	metrics *metrics.TurnMetrics
	logger  *logging.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(turns turnHandler, turnMetrics *metrics.TurnMetrics, logger *logging.Logger) *Handler {
	if turns == nil {
		panic("whatsapp: turn handler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{turns: turns, metrics: turnMetrics, logger: logger}
}

// Webhook handles POST /webhooks/whatsapp. Every recognized outcome —
// including intentional skips — answers 200, because the provider retries on
// error responses and a retry would reprocess an already-handled event.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "whatsapp.webhook")
	defer span.End()

	var event InboundEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.logger.Warn("undecodable webhook payload", "error", err)
		h.metrics.ObserveInbound("undecodable")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": SkipEmpty})
		return
	}

	msg, skip := Normalize(event)
	if skip != "" {
		h.logger.Info("webhook event skipped", "reason", skip, "type", event.Type)
		h.metrics.ObserveInbound("skipped_" + skip)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": skip})
		return
	}
	span.SetAttributes(
		attribute.String("gasbot.event_kind", msg.EventKind),
		attribute.String("gasbot.sender", msg.SenderName),
	)

	result, err := h.turns.HandleTurn(ctx, msg)
	if err != nil {
		h.logger.Error("turn processing failed", "error", err)
		h.metrics.ObserveInbound("error")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Internal error"})
		return
	}
	if result.Duplicate {
		h.metrics.ObserveInbound("duplicate")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "skipped": "duplicate"})
		return
	}

	h.metrics.ObserveInbound("processed")
	response := map[string]any{"ok": true}
	if result.Fallback {
		response["fallback"] = true
	}
	if result.OrderCreated {
		response["orderCreated"] = true
	}
	writeJSON(w, http.StatusOK, response)
}

// HealthCheck returns a simple health check response.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
