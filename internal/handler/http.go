package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/studyplan/srs-backend/internal/models"
	"github.com/studyplan/srs-backend/internal/service"
	"go.uber.org/zap"
)

// userIDHeader carries the already-authenticated caller identity. An upstream
// gateway owns authentication; this service trusts the header.
const userIDHeader = "X-User-ID"

type HTTPHandler struct {
	svc models.Service
}

func NewHTTPHandler(svc models.Service) *HTTPHandler {
	return &HTTPHandler{svc: svc}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /srs/record-performance", h.recordPerformance)
	mux.HandleFunc("GET /srs/history", h.getHistory)
	mux.HandleFunc("GET /srs/due", h.getDueReviews)
	mux.HandleFunc("GET /srs/stats", h.getStatistics)
}

func (h *HTTPHandler) recordPerformance(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var input models.ReviewInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	input.UserID = userID

	record, err := h.svc.RecordReview(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *HTTPHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	topicID, err := strconv.ParseInt(r.URL.Query().Get("topic_id"), 10, 64)
	if err != nil || topicID <= 0 {
		writeError(w, http.StatusBadRequest, "topic_id must be a positive integer")
		return
	}

	if r.URL.Query().Get("full") == "true" {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		records, err := h.svc.ListPerformanceHistory(r.Context(), userID, topicID, limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	record, err := h.svc.GetPerformanceHistory(r.Context(), userID, topicID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

func (h *HTTPHandler) getDueReviews(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	reminders, err := h.svc.GetDueReviews(r.Context(), userID, time.Time{})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if reminders == nil {
		reminders = []*models.Reminder{}
	}

	writeJSON(w, http.StatusOK, reminders)
}

func (h *HTTPHandler) getStatistics(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.GetStatistics(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func callerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusUnauthorized, "missing or malformed user identity")
		return 0, false
	}
	return userID, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	var notFound *service.NotFoundError
	var validation *service.ValidationError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	default:
		zap.S().Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.S().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
