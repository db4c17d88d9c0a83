package intake

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dali1789/KFZ-API-Service/internal/booking"
	stderrors "github.com/Dali1789/KFZ-API-Service/internal/common/errors"
	"github.com/Dali1789/KFZ-API-Service/internal/common/logger"
	"github.com/Dali1789/KFZ-API-Service/internal/common/metrics"
	"github.com/Dali1789/KFZ-API-Service/internal/common/observability"
)

const secretHeader = "X-Webhook-Secret"

// Handler exposes the webhook endpoint and the operational routes.
type Handler struct {
	service       *booking.Service
	webhookSecret string
	obs           *observability.Observability
	log           logger.Logger
}

func NewHandler(service *booking.Service, webhookSecret string, obs *observability.Observability, log logger.Logger) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		obs:           obs,
		log:           log.WithFields(map[string]interface{}{"component": "intake"}),
	}
}

// Router builds the gin engine. Release mode and recovery are configured by
// the caller.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/webhooks/call-completed", h.handleCallCompleted)
	router.GET("/healthz", h.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func (h *Handler) handleCallCompleted(c *gin.Context) {
	start := time.Now()

	if !h.authorized(c) {
		h.fail(c, stderrors.NewUnauthorizedWebhookError())
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.fail(c, stderrors.NewInvalidWebhookPayloadError("unreadable body"))
		return
	}

	if err := ValidatePayload(body); err != nil {
		h.fail(c, stderrors.NewInvalidWebhookPayloadError(err.Error()))
		return
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		h.fail(c, stderrors.NewInvalidWebhookPayloadError(err.Error()))
		return
	}

	intake, result, err := h.service.HandleCall(c.Request.Context(), env.toCallEnvelope())
	if err != nil {
		h.record(c, start, "failed")
		h.fail(c, err)
		return
	}

	h.record(c, start, "processed")
	metrics.WebhooksReceived.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, gin.H{
		"intake_id":       intake.ID,
		"call_id":         intake.CallID,
		"call_type":       intake.CallType,
		"confidence":      result.Confidence,
		"review_required": result.Failed(),
	})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) authorized(c *gin.Context) bool {
	if h.webhookSecret == "" {
		return true
	}
	provided := c.GetHeader(secretHeader)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) == 1
}

func (h *Handler) record(c *gin.Context, start time.Time, status string) {
	if h.obs == nil {
		return
	}
	ctx := c.Request.Context()
	h.obs.RecordCallProcessed(ctx, status)
	h.obs.RecordCallDuration(ctx, time.Since(start), status)
}

func (h *Handler) fail(c *gin.Context, err error) {
	stdErr := stderrors.Normalize(err)
	status := stderrors.HTTPStatus(stdErr)

	if status >= http.StatusInternalServerError {
		h.log.WithError(stdErr).Error("webhook processing failed", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
	}
	metrics.WebhooksReceived.WithLabelValues(string(stdErr.Code)).Inc()
	c.JSON(status, stderrors.ToResponse(stdErr))
}
