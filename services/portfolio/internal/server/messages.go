package server

import (
	"net/http"
	"net/mail"
	"strings"

	"darkwave/pkg/domain"
)

type messageRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.app.ContactLimiter, "too many messages") {
		s.audit(r, "portfolio.contact", "rate_limited")
		return
	}
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := validateMessage(req); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	saved, ok := s.app.SubmitMessage(r.Context(), domain.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if !ok {
		writeError(w, http.StatusInternalServerError, "failed to create message")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.app.Messages.MarkAsRead(r.Context(), r.PathValue("id"))
	if !ok {
		notFound(w, "message not found")
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func validateMessage(req messageRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case !validEmail(req.Email):
		return "valid email is required"
	case strings.TrimSpace(req.Message) == "":
		return "message is required"
	}
	return ""
}

func validEmail(email string) bool {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
