package handlers

import (
	"io"
	"log"
	"net/http"
	"os"

	"github.com/insuraai/insuraai/internal/core/extraction"
)

type ExtractHandler struct {
	pipeline      *extraction.Pipeline
	maxUploadSize int64
}

func NewExtractHandler(pipeline *extraction.Pipeline, maxUploadSize int64) *ExtractHandler {
	return &ExtractHandler{pipeline: pipeline, maxUploadSize: maxUploadSize}
}

// Extract accepts a multipart policy document upload and returns the
// normalized field set. Empty fields are valid output, not errors; the
// client shows them for manual completion.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if tooLarge := boundRequestBody(w, r, h.maxUploadSize); tooLarge {
		return
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		if isBodyTooLarge(err) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Spool to a temp file; the pipeline owns its removal from here on.
	tmp, err := os.CreateTemp("", "insuraai-upload-*")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to extract policy")
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		respondError(w, http.StatusInternalServerError, "Failed to extract policy")
		return
	}
	tmp.Close()

	fields, err := h.pipeline.Run(r.Context(), tmp.Name(), contentType)
	if err != nil {
		log.Printf("extraction failed for %s: %v", header.Filename, err)
		respondError(w, http.StatusInternalServerError, "Failed to extract policy")
		return
	}

	respondJSON(w, http.StatusOK, fields)
}
