package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	"github.com/insuraai/insuraai/internal/core"
	"github.com/insuraai/insuraai/internal/models"
)

type AuthHandler struct {
	dbclient  core.DbClient
	jwtSecret string
}

func NewAuthHandler(dbclient core.DbClient, jwtSecret string) *AuthHandler {
	return &AuthHandler{dbclient: dbclient, jwtSecret: jwtSecret}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	existing, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		respondError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "server error")
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.dbclient.CreateUser(r.Context(), user); err != nil {
		respondError(w, http.StatusBadRequest, "user already exists")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"token": h.generateJWT(user.ID),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.dbclient.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"token": h.generateJWT(user.ID),
	})
}

// generateJWT creates a signed token with user ID claim
func (h *AuthHandler) generateJWT(userID string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, _ := tok.SignedString([]byte(h.jwtSecret))
	return token
}
