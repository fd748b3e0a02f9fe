package jobs

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/metrics"
	"github.com/charlesng35/stackapp/pkg/response"
)

// PushRequest is the body Pub/Sub posts to push subscriptions.
type PushRequest struct {
	Message         PushMessage `json:"message"`
	Subscription    string      `json:"subscription"`
	DeliveryAttempt int         `json:"deliveryAttempt,omitempty"`
}

// PushMessage carries the base64 payload. Data is a pointer so an absent field is detectable.
type PushMessage struct {
	Data       *string           `json:"data"`
	MessageID  string            `json:"messageId"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PushHandler serves the push endpoint. A 2xx response acknowledges the delivery; anything else
// makes Pub/Sub redeliver.
type PushHandler struct {
	dispatcher *Dispatcher
	verifier   PushVerifier
	log        *zap.Logger
}

// NewPushHandler builds the endpoint. verifier may be nil to accept unauthenticated pushes.
func NewPushHandler(dispatcher *Dispatcher, verifier PushVerifier) *PushHandler {
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	return &PushHandler{
		dispatcher: dispatcher,
		verifier:   verifier,
		log:        logger.WithModule("jobs"),
	}
}

// Handle processes one delivery.
func (h *PushHandler) Handle(c *gin.Context) {
	if h.verifier != nil {
		if err := h.verifier.VerifyPush(c.Request.Context(), c.Request); err != nil {
			h.log.Warn("push authentication failed", zap.Error(err))
			response.Error(c, apperrors.ErrUnauthorized)
			return
		}
	}

	job, err := decodePush(c.Request)
	if err != nil {
		h.log.Warn("rejecting malformed push", zap.Error(err))
		metrics.JobsHandled.WithLabelValues("unknown", "rejected").Inc()
		response.Error(c, err)
		return
	}

	fields := []zap.Field{zap.String("type", job.Type), zap.String("message_id", job.MessageID)}
	handled, err := h.dispatcher.Dispatch(c.Request.Context(), job)
	switch {
	case !handled:
		h.log.Info("acknowledging job with unknown type", fields...)
		metrics.JobsHandled.WithLabelValues(typeLabel(job.Type), "ignored").Inc()
	case errors.Is(err, ErrPermanent):
		h.log.Warn("dropping job that cannot succeed", append(fields, zap.Error(err))...)
		metrics.JobsHandled.WithLabelValues(job.Type, "dropped").Inc()
	case err != nil:
		h.log.Error("job failed, requesting redelivery", append(fields, zap.Error(err))...)
		metrics.JobsHandled.WithLabelValues(job.Type, "failed").Inc()
		response.Error(c, apperrors.Wrap(err, "job processing failed"))
		return
	default:
		metrics.JobsHandled.WithLabelValues(job.Type, "ok").Inc()
	}

	response.Status(c, http.StatusOK, "ok")
}

func decodePush(r *http.Request) (Job, error) {
	var req PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return Job{}, apperrors.NewBadRequest("invalid push envelope")
	}
	if req.Message.Data == nil || *req.Message.Data == "" {
		return Job{}, apperrors.NewBadRequest("missing message data")
	}

	raw, err := decodeBase64(*req.Message.Data)
	if err != nil {
		return Job{}, apperrors.NewBadRequest("message data is not valid base64")
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil || payload == nil {
		return Job{}, apperrors.NewBadRequest("message data is not a JSON object")
	}

	var jobType string
	if rawType, ok := payload["type"]; ok {
		// A non-string type is treated like a missing one.
		_ = json.Unmarshal(rawType, &jobType)
	}

	return Job{
		Type:            jobType,
		MessageID:       req.Message.MessageID,
		Attributes:      req.Message.Attributes,
		DeliveryAttempt: req.DeliveryAttempt,
		Raw:             raw,
	}, nil
}

func decodeBase64(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err == nil {
		return raw, nil
	}
	return base64.URLEncoding.DecodeString(data)
}

func typeLabel(jobType string) string {
	if jobType == "" {
		return "missing"
	}
	// Unknown types are bucketed to keep label cardinality bounded.
	return "unknown"
}
