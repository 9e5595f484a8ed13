package api

import (
	"encoding/json"
	"log"
	"net/http"
)

// Error codes carried in the JSON error envelope. Handlers map service
// sentinel errors onto these; nothing reaches the transport unformatted.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeValidation           = "VALIDATION"
	CodeNotFound             = "NOT_FOUND"
	CodeAccessDenied         = "ACCESS_DENIED"
	CodeSubscriptionRequired = "SUBSCRIPTION_REQUIRED"
	CodeInternal             = "INTERNAL"

	CodeInvalidProvider  = "INVALID_PROVIDER"
	CodeMissingModel     = "MISSING_MODEL"
	CodeUnknownModel     = "UNKNOWN_MODEL"
	CodeProviderMismatch = "PROVIDER_MISMATCH"
	CodeQuizNotFound     = "QUIZ_NOT_FOUND"
	CodeQuizNotActive    = "QUIZ_NOT_ACTIVE"
	CodeAnswerNotFound   = "ANSWER_NOT_FOUND"
)

type errorBody struct {
	Error   string      `json:"error"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// GenerationDetails is attached to 500 responses on the generation path only.
type GenerationDetails struct {
	Message     string `json:"message"`
	IsRetryable bool   `json:"isRetryable"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, errorBody{Error: message, Code: code})
}

func WriteErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	WriteJSON(w, status, errorBody{Error: message, Code: code, Details: details})
}

func WriteUnauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, CodeUnauthorized, "Authentication required")
}

func WriteInternal(w http.ResponseWriter, err error) {
	log.Printf("Internal error: %v", err)
	WriteError(w, http.StatusInternalServerError, CodeInternal, "Ocorreu um erro inesperado. Tente novamente.")
}
