package generate

import (
	"encoding/json"
	"errors"
	"net/http"

	"docforge/internal/api"
	"docforge/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type GenerateRequest struct {
	Input          string `json:"input"`
	ProjectContext string `json:"projectContext"`
}

func (h *Handler) GenerateFeature(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, CategoryFeature)
}

func (h *Handler) GeneratePRD(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, CategoryPRD)
}

func (h *Handler) GenerateDesigner(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, CategoryDesigner)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, category string) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Invalid request body")
		return
	}

	content, err := h.service.Generate(r.Context(), Request{
		UserID:         userID,
		Category:       category,
		Input:          req.Input,
		ProjectContext: req.ProjectContext,
	})
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		api.WriteUnauthorized(w)
		return
	}

	records, err := h.service.GetUsage(userID, 50)
	if err != nil {
		api.WriteInternal(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]interface{}{"usage": records})
}

func writeGenerateError(w http.ResponseWriter, err error) {
	var provErr *ProviderError
	switch {
	case errors.Is(err, ErrMissingInput):
		api.WriteError(w, http.StatusBadRequest, api.CodeValidation, "Input is required")
	case errors.Is(err, ErrSubscriptionRequired):
		api.WriteError(w, http.StatusPaymentRequired, api.CodeSubscriptionRequired,
			"Configure uma chave de API pessoal ou assine um plano para gerar documentos.")
	case errors.As(err, &provErr):
		api.WriteErrorDetails(w, http.StatusInternalServerError, api.CodeInternal,
			"Ocorreu um erro ao gerar o documento. Tente novamente.",
			api.GenerationDetails{Message: provErr.Message, IsRetryable: provErr.Retryable})
	default:
		api.WriteInternal(w, err)
	}
}
