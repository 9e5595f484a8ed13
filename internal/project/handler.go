package project

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"docforge/internal/api"
	"docforge/internal/auth"
	"docforge/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	projects, err := h.service.List(userID)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid project id")
		return
	}

	project, err := h.service.Get(userID, id)
	if err != nil {
		writeProjectError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}
	project.ID = 0
	project.UserID = userID

	if err := h.service.Create(&project); err != nil {
		writeProjectError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, project)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid project id")
		return
	}

	var updated models.Project
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	project, err := h.service.Update(userID, id, &updated)
	if err != nil {
		writeProjectError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, project)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid project id")
		return
	}

	if err := h.service.Delete(userID, id); err != nil {
		writeProjectError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func pathID(r *http.Request, name string) (uint, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func writeProjectError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Project not found")
	case errors.Is(err, ErrMissingName):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Project name is required")
	default:
		api.WriteInternal(w, err)
	}
}
