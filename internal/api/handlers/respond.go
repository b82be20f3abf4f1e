package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

// boundRequestBody caps the request body at limit bytes. A declared
// Content-Length over the limit is rejected immediately with 413; bodies of
// unknown length are capped by MaxBytesReader and fail during parsing.
func boundRequestBody(w http.ResponseWriter, r *http.Request, limit int64) (tooLarge bool) {
	if r.ContentLength > limit {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	return false
}

func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
