package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"docforge/internal/api"
	"docforge/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Name     string `json:"name"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthorized, "Invalid credentials")
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Email and password are required")
		return
	}

	user := &models.User{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Name:     req.Name,
	}

	token, err := h.service.Register(user)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Registration failed")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{"token": token})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	user, err := h.service.GetUser(userID)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "User not found")
		return
	}

	api.WriteJSON(w, http.StatusOK, user)
}
