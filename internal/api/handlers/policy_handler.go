package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/services"
)

var allowedUploadTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

type PolicyHandler struct {
	svc           *services.PolicyService
	storage       core.ObjectStorage
	maxUploadSize int64
}

func NewPolicyHandler(svc *services.PolicyService, storage core.ObjectStorage, maxUploadSize int64) *PolicyHandler {
	return &PolicyHandler{svc: svc, storage: storage, maxUploadSize: maxUploadSize}
}

// policyRequest is the client-facing create payload. Amounts come in as
// json.Number so both the extraction review form (strings) and API clients
// (numbers) are accepted.
type policyRequest struct {
	PolicyNumber  string      `json:"policyNumber"`
	Type          string      `json:"type"`
	PremiumAmount json.Number `json:"premiumAmount"`
	SumInsured    json.Number `json:"sumInsured"`
	Deductible    json.Number `json:"deductible"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	Status        string      `json:"status"`
}

// Create accepts either a JSON body or a multipart form with an optional
// policy document attached under "file".
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	var (
		req     policyRequest
		fileURL string
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if tooLarge := boundRequestBody(w, r, h.maxUploadSize); tooLarge {
			return
		}
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			if isBodyTooLarge(err) {
				respondError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			respondError(w, http.StatusBadRequest, "invalid form")
			return
		}
		req = policyRequest{
			PolicyNumber:  r.FormValue("policyNumber"),
			Type:          r.FormValue("type"),
			PremiumAmount: json.Number(r.FormValue("premiumAmount")),
			SumInsured:    json.Number(r.FormValue("sumInsured")),
			Deductible:    json.Number(r.FormValue("deductible")),
			StartDate:     r.FormValue("startDate"),
			EndDate:       r.FormValue("endDate"),
			Status:        r.FormValue("status"),
		}

		url, err := h.storeUpload(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		fileURL = url
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid body")
			return
		}
	}

	in, err := buildCreateInput(req, fileURL)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	policy, err := h.svc.Create(r.Context(), userID, in)
	if err != nil {
		if errors.Is(err, core.ErrDuplicatePolicy) {
			respondError(w, http.StatusBadRequest, "Policy number already exists")
			return
		}
		log.Printf("create policy error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, policy)
}

// storeUpload persists an attached document, if any, and returns its URL.
func (h *PolicyHandler) storeUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil
		}
		return "", errors.New("invalid file")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		return "", errors.New("Only PDF, JPG, and PNG files are allowed")
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errors.New("invalid file")
	}

	key := uuid.NewString() + filepath.Ext(filepath.Base(header.Filename))
	url, err := h.storage.SaveDocument(r.Context(), key, data, contentType)
	if err != nil {
		log.Printf("store upload failed: %v", err)
		return "", errors.New("failed to store document")
	}
	return url, nil
}

func buildCreateInput(req policyRequest, fileURL string) (services.CreatePolicyInput, error) {
	in := services.CreatePolicyInput{
		PolicyNumber: strings.TrimSpace(req.PolicyNumber),
		Type:         strings.TrimSpace(req.Type),
		FileURL:      fileURL,
		Status:       req.Status,
	}
	if in.PolicyNumber == "" || in.Type == "" {
		return in, errors.New("policyNumber and type are required")
	}

	premium, err := parseAmount(req.PremiumAmount)
	if err != nil || premium == nil {
		return in, errors.New("invalid premiumAmount")
	}
	in.PremiumAmount = *premium

	if in.SumInsured, err = parseAmount(req.SumInsured); err != nil {
		return in, errors.New("invalid sumInsured")
	}
	if in.Deductible, err = parseAmount(req.Deductible); err != nil {
		return in, errors.New("invalid deductible")
	}

	if in.StartDate, err = parseDate(req.StartDate); err != nil {
		return in, errors.New("invalid startDate")
	}
	if in.EndDate, err = parseDate(req.EndDate); err != nil {
		return in, errors.New("invalid endDate")
	}

	return in, nil
}

func parseAmount(n json.Number) (*float64, error) {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return nil, nil
	}
	v, err := json.Number(s).Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return &v, nil
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	policies, err := h.svc.List(r.Context(), userID)
	if err != nil {
		log.Printf("list policies error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, policies)
}

func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	policy, err := h.svc.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

// updatePolicyRequest is a partial patch; absent fields stay untouched.
type updatePolicyRequest struct {
	Type          *string      `json:"type"`
	PremiumAmount *json.Number `json:"premiumAmount"`
	SumInsured    *json.Number `json:"sumInsured"`
	Deductible    *json.Number `json:"deductible"`
	StartDate     *string      `json:"startDate"`
	EndDate       *string      `json:"endDate"`
	Status        *string      `json:"status"`
}

func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	var req updatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	patch := services.PolicyPatch{
		Type:   req.Type,
		Status: req.Status,
	}
	var err error
	if req.PremiumAmount != nil {
		if patch.PremiumAmount, err = parseAmount(*req.PremiumAmount); err != nil {
			respondError(w, http.StatusBadRequest, "invalid premiumAmount")
			return
		}
	}
	if req.SumInsured != nil {
		if patch.SumInsured, err = parseAmount(*req.SumInsured); err != nil {
			respondError(w, http.StatusBadRequest, "invalid sumInsured")
			return
		}
	}
	if req.Deductible != nil {
		if patch.Deductible, err = parseAmount(*req.Deductible); err != nil {
			respondError(w, http.StatusBadRequest, "invalid deductible")
			return
		}
	}
	if req.StartDate != nil {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid startDate")
			return
		}
		patch.StartDate = &t
	}
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid endDate")
			return
		}
		patch.EndDate = &t
	}

	policy, err := h.svc.Update(r.Context(), userID, chi.URLParam(r, "id"), patch)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, policy)
}

func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	if err := h.svc.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Policy deleted"})
}

func (h *PolicyHandler) Renew(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	policy, err := h.svc.Renew(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"message": "Policy renewed successfully",
		"policy":  policy,
	})
}

func (h *PolicyHandler) Remind(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(string)
	if !ok {
		respondError(w, http.StatusUnauthorized, "user_id not found in context")
		return
	}

	if err := h.svc.Remind(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Reminder email sent successfully"})
}

func (h *PolicyHandler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrPolicyNotFound):
		respondError(w, http.StatusNotFound, "Policy not found")
	case errors.Is(err, core.ErrNotOwner):
		respondError(w, http.StatusForbidden, "Not authorized for this policy")
	case errors.Is(err, core.ErrNoOwnerEmail):
		respondError(w, http.StatusBadRequest, "User has no email on file")
	default:
		log.Printf("policy handler error: %v", err)
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}
