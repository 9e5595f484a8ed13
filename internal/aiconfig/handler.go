package aiconfig

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"docforge/internal/api"
	"docforge/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type SaveConfigRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"apiKey"`
}

type AddCustomModelRequest struct {
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	config, err := h.service.GetConfig(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"provider": config.Provider,
		"model":    config.Model,
		"apiKey":   config.APIKey,
	})
}

func (h *Handler) SaveConfig(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	var req SaveConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	if err := h.service.SaveConfig(userID, req.Provider, req.Model, req.APIKey); err != nil {
		writeConfigError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	custom, err := h.service.ListCustomModels(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"catalog": Catalog(),
		"custom":  custom,
	})
}

func (h *Handler) AddCustomModel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	var req AddCustomModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	custom, err := h.service.AddCustomModel(userID, req.Model, req.Provider)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, custom)
}

func (h *Handler) RemoveCustomModel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid model id")
		return
	}

	if err := h.service.RemoveCustomModel(userID, uint(id)); err != nil {
		if errors.Is(err, ErrUnknownModel) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Model not found")
			return
		}
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeConfigError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidProvider):
		api.WriteError(w, http.StatusBadRequest, api.CodeInvalidProvider, "Unknown provider")
	case errors.Is(err, ErrMissingModel):
		api.WriteError(w, http.StatusBadRequest, api.CodeMissingModel, "Model is required")
	case errors.Is(err, ErrUnknownModel):
		api.WriteError(w, http.StatusBadRequest, api.CodeUnknownModel, "Model not found")
	case errors.Is(err, ErrProviderMismatch):
		api.WriteError(w, http.StatusBadRequest, api.CodeProviderMismatch, "Model does not belong to the declared provider")
	case errors.Is(err, ErrDuplicateModel):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Model already declared")
	default:
		api.WriteInternal(w, err)
	}
}
