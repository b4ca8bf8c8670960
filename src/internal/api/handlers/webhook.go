package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"

	"github.com/gemvault/gemvault/src/internal/webhook"
)

// WebhookHandler handles webhook subscription and delivery endpoints
type WebhookHandler struct {
	config   *viper.Viper
	store    *webhook.Store
	recorder *webhook.Recorder
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(config *viper.Viper, store *webhook.Store, recorder *webhook.Recorder) *WebhookHandler {
	return &WebhookHandler{
		config:   config,
		store:    store,
		recorder: recorder,
	}
}

// Subscribe creates a new webhook subscription for the tenant
func (h *WebhookHandler) Subscribe(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	var req struct {
		EventTypePattern string `json:"event_type_pattern"`
		TargetURL        string `json:"target_url"`
		SecretKey        string `json:"secret_key"`
		Description      string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	sub, err := h.store.Subscribe(code, webhook.SubscribeInput{
		EventTypePattern: req.EventTypePattern,
		TargetURL:        req.TargetURL,
		SecretKey:        req.SecretKey,
		Description:      req.Description,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, sub)
}

// List returns the tenant's active subscriptions, optionally filtered by
// the event type they would match
func (h *WebhookHandler) List(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	subs, err := h.store.ListSubscriptions(code, c.QueryParam("event_type"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

// Unsubscribe deactivates a subscription owned by the tenant
func (h *WebhookHandler) Unsubscribe(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.store.Unsubscribe(code, id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Events returns the tenant's delivery history, newest first
func (h *WebhookHandler) Events(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	limit, offset := pagination(c)
	events, total, err := h.store.ListEvents(code, webhook.EventHistoryFilter{
		EventType: c.QueryParam("event_type"),
		Status:    c.QueryParam("status"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return err
	}

	return listResponse(c, "events", events, total, limit, offset)
}

// RetryFailed re-attempts the tenant's eligible failed deliveries and
// reports how many were delivered
func (h *WebhookHandler) RetryFailed(c echo.Context) error {
	code, err := clientCode(c)
	if err != nil {
		return err
	}

	delivered, err := h.recorder.RetryFailed(c.Request().Context(), code)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"retried": delivered,
	})
}

// RegisterRoutes registers webhook routes
func (h *WebhookHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/webhooks/subscribe", h.Subscribe)
	g.GET("/webhooks", h.List)
	g.DELETE("/webhooks/:id", h.Unsubscribe)
	g.GET("/webhooks/events", h.Events)
	g.POST("/webhooks/retry-failed", h.RetryFailed)
}
