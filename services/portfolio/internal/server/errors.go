package server

import (
	"net/http"
	"strings"

	"darkwave/internal/ratelimit"
	"darkwave/internal/util"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	case message == "invalid credentials":
		return "AUTH_INVALID_CREDENTIALS"
	case strings.HasPrefix(message, "too many"):
		return "RATE_LIMITED"
	case message == "project not found":
		return "PROJECT_NOT_FOUND"
	case message == "post not found":
		return "POST_NOT_FOUND"
	case message == "message not found":
		return "MESSAGE_NOT_FOUND"
	case message == "title is required":
		return "CONTENT_TITLE_REQUIRED"
	case message == "name is required", message == "valid email is required", message == "message is required":
		return "MESSAGE_INVALID"
	case message == "file too large":
		return "UPLOAD_FILE_TOO_LARGE"
	case strings.Contains(message, "files are required"):
		return "UPLOAD_FILE_REQUIRED"
	case message == "invalid form data":
		return "UPLOAD_INVALID_FORM"
	case message == "invalid json body":
		return "REQUEST_INVALID_JSON"
	case message == "not found":
		return "SYSTEM_NOT_FOUND"
	}

	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.trusted)
	if limiter.Allow(r.Context(), key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}
