package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/middleware"
	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/internal/service"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

// StreamHandler handles SSE streaming endpoints.
type StreamHandler struct {
	inquiry *service.InquiryService
	logger  *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(inquiry *service.InquiryService, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		inquiry: inquiry,
		logger:  log,
	}
}

// Inquire handles POST /api/v1/inquiries/stream
// It answers a general inquiry as token events followed by message_complete
// and done.
func (h *StreamHandler) Inquire(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.InquiryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := middleware.ValidateText("question", req.Question, middleware.MaxTextLength); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	resp, err := h.inquiry.Stream(ctx, middleware.GetUserID(ctx), &req, func(token string, index int) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		return sendSSEEvent(w, flusher, "token", &model.TokenEvent{
			Token: token,
			Index: index,
		})
	})
	if err != nil {
		if ctx.Err() != nil {
			h.logger.Info("SSE client disconnected")
			return
		}
		status := statusFor(err)
		h.logger.Warn("Inquiry stream failed", zap.Error(err))
		sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
			Code:    "stream_error",
			Message: messageFor(err, status),
		})
		return
	}

	sendSSEEvent(w, flusher, "message_complete", &model.AnswerCompleteEvent{
		SessionID: resp.SessionID,
		Answer:    resp.Answer,
	})
	sendSSEEvent(w, flusher, "done", map[string]bool{"success": true})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	flusher.Flush()

	return nil
}
