package server

import (
	"errors"
	"mime/multipart"
	"net/http"

	"darkwave/pkg/media"
)

const multipartMemory = 32 << 20

func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "files are required (field: files)")
		return
	}
	files := make([]media.File, 0, len(headers))
	for _, header := range headers {
		body, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid form data")
			return
		}
		defer body.Close()
		files = append(files, media.File{
			Name:        header.Filename,
			ContentType: contentType(header),
			Size:        header.Size,
			Body:        body,
		})
	}

	results := s.app.Uploads.UploadMany(r.Context(), files)
	resp := map[string]any{
		"items": results,
		"urls":  media.URLs(results),
	}
	for _, res := range results {
		if res.Placeholder {
			resp["notice"] = media.PlaceholderNotice
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	return ""
}
