package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"darkwave/internal/util"
	"darkwave/pkg/domain"
	"darkwave/services/portfolio/internal/app"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App               *app.App
	MaxUploadBytes    int64
	TrustedProxyCIDRs []string
	AllowedOrigins    []string
}

// Server exposes the portfolio HTTP API.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	trusted        *util.TrustedProxies
	allowedOrigins []string
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("app is required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		return nil, err
	}
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		trusted:        trusted,
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("portfolio", util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins)(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	projects := resourceRoutes[domain.Project, domain.ProjectPatch]{
		svc:      s.app.Projects,
		noun:     "project",
		validate: validateProject,
	}
	projects.register(s, "/api/projects", true)

	posts := resourceRoutes[domain.BlogPost, domain.BlogPostPatch]{
		svc:      s.app.Posts,
		noun:     "post",
		validate: validatePost,
	}
	posts.register(s, "/api/posts", true)

	messages := resourceRoutes[domain.ContactMessage, domain.MessagePatch]{
		svc:  s.app.Messages.Service,
		noun: "message",
	}
	messages.register(s, "/api/messages", false)
	s.mux.HandleFunc("POST /api/messages", s.handleSubmitMessage)
	s.mux.Handle("PATCH /api/messages/{id}/read", s.withAdmin(s.handleMarkRead))

	s.mux.Handle("POST /api/uploads", s.withAdmin(s.handleUploads))

	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/auth/session", s.handleSession)

	if root := s.app.MediaRoot(); root != "" {
		s.mux.Handle("GET /media/", http.StripPrefix("/media/", noDirListing(http.FileServer(http.Dir(root)))))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Health(r.Context()))
}

func (s *Server) withAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := s.app.Admin.Verify(r.Context(), token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	})
}

func noDirListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			notFound(w, "not found")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
