package server

import (
	"net/http"
	"strings"

	"darkwave/pkg/domain"
	"darkwave/pkg/resource"
)

// resourceRoutes serves list/get/create/update/delete for one entity kind.
type resourceRoutes[T domain.Entity, P domain.Patch[T]] struct {
	svc      *resource.Service[T]
	noun     string
	validate func(T) string
}

// register mounts the routes under prefix. Reads are public when
// publicRead is set; writes always need an admin session.
func (rr resourceRoutes[T, P]) register(s *Server, prefix string, publicRead bool) {
	read := func(h http.HandlerFunc) http.Handler {
		if publicRead {
			return h
		}
		return s.withAdmin(h)
	}
	s.mux.Handle("GET "+prefix, read(rr.list))
	s.mux.Handle("GET "+prefix+"/{id}", read(rr.get))
	if rr.validate != nil {
		s.mux.Handle("POST "+prefix, s.withAdmin(rr.create))
		s.mux.Handle("PATCH "+prefix+"/{id}", s.withAdmin(rr.update))
	}
	s.mux.Handle("DELETE "+prefix+"/{id}", s.withAdmin(rr.remove))
}

func (rr resourceRoutes[T, P]) list(w http.ResponseWriter, r *http.Request) {
	items := rr.svc.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (rr resourceRoutes[T, P]) get(w http.ResponseWriter, r *http.Request) {
	item, ok := rr.svc.Get(r.Context(), r.PathValue("id"))
	if !ok {
		notFound(w, rr.noun+" not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (rr resourceRoutes[T, P]) create(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := decodeJSON(r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := rr.validate(item); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	created, ok := rr.svc.Create(r.Context(), item)
	if !ok {
		writeError(w, http.StatusInternalServerError, "failed to create "+rr.noun)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (rr resourceRoutes[T, P]) update(w http.ResponseWriter, r *http.Request) {
	var patch P
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	id := r.PathValue("id")
	current, ok := rr.svc.Get(r.Context(), id)
	if !ok {
		notFound(w, rr.noun+" not found")
		return
	}
	if msg := rr.validate(patch.Apply(current)); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	updated, ok := rr.svc.Update(r.Context(), id, patch)
	if !ok {
		notFound(w, rr.noun+" not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (rr resourceRoutes[T, P]) remove(w http.ResponseWriter, r *http.Request) {
	if !rr.svc.Delete(r.Context(), r.PathValue("id")) {
		notFound(w, rr.noun+" not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func validateProject(p domain.Project) string {
	if strings.TrimSpace(p.Title) == "" {
		return "title is required"
	}
	return ""
}

func validatePost(b domain.BlogPost) string {
	if strings.TrimSpace(b.Title) == "" {
		return "title is required"
	}
	return ""
}
