package server

import (
	"errors"
	"net/http"
	"time"

	"darkwave/pkg/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRate(w, r, s.app.LoginLimiter, "too many login attempts") {
		s.audit(r, "portfolio.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.audit(r, "portfolio.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, expires, err := s.app.Admin.Login(req.Username, req.Password)
	if err != nil {
		s.audit(r, "portfolio.login", "fail", "reason", err.Error())
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.audit(r, "portfolio.login", "success")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		s.audit(r, "portfolio.logout", "fail", "reason", "missing_token")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Admin.Logout(r.Context(), token); err != nil {
		s.audit(r, "portfolio.logout", "fail", "reason", err.Error())
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.audit(r, "portfolio.logout", "success")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if token, ok := bearerToken(r); ok {
		authenticated = s.app.Admin.Authenticated(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}
