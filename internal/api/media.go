package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"

	"viewtube/internal/blob"
	"viewtube/internal/db"
)

type MediaHandler struct {
	blobRecords *db.BlobRepository
	blobs       *blob.Service
}

func NewMediaHandler(blobRecords *db.BlobRepository, blobs *blob.Service) *MediaHandler {
	return &MediaHandler{blobRecords: blobRecords, blobs: blobs}
}

// GET /media/{blobID}
func (h *MediaHandler) GetBlob(w http.ResponseWriter, r *http.Request) {
	blobID := strings.TrimSpace(chi.URLParam(r, "blobID"))
	if blobID == "" {
		notFound(w, "Media not found")
		return
	}

	record, err := h.blobRecords.FindByID(blobID)
	if errors.Is(err, db.ErrNotFound) {
		notFound(w, "Media not found")
		return
	}
	if err != nil {
		internalError(w, "")
		return
	}

	file, err := h.blobs.Open(record.StoragePath)
	if errors.Is(err, os.ErrNotExist) {
		notFound(w, "Media not found")
		return
	}
	if err != nil {
		internalError(w, "")
		return
	}
	defer file.Close()

	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", fmt.Sprintf("%q", record.ID))
	w.Header().Set("Content-Type", record.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", sanitizeDispositionFilename(record.OriginalName)))

	http.ServeContent(w, r, record.OriginalName, record.CreatedAt, file)
}

func sanitizeDispositionFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, "\"", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\n", "")
	if name == "" {
		return "download"
	}
	return name
}
