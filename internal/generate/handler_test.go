package generate

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docforge/internal/auth"
)

func postGenerate(t *testing.T, h *Handler, userID uint, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate/feature", strings.NewReader(body))
	req = req.WithContext(auth.ContextWithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.GenerateFeature(rec, req)
	return rec
}

func TestGenerateHandlerPaymentRequired(t *testing.T) {
	repo, _ := newUsageRepo(t)
	svc := NewService(stubConfigs{}, stubGate{}, &fakeClient{content: "ok"}, repo, map[string]string{"openai": "sk-server"})
	h := NewHandler(svc)

	rec := postGenerate(t, h, 7, `{"input":"dark mode"}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "SUBSCRIPTION_REQUIRED" {
		t.Errorf("code = %q, want SUBSCRIPTION_REQUIRED", body.Code)
	}
	if body.Error == "" {
		t.Error("error message must be set")
	}
}

func TestGenerateHandlerSuccess(t *testing.T) {
	repo, _ := newUsageRepo(t)
	svc := NewService(stubConfigs{apiKey: "sk-user"}, stubGate{allowUserKey: true}, &fakeClient{content: "# Doc"}, repo, nil)
	h := NewHandler(svc)

	rec := postGenerate(t, h, 7, `{"input":"dark mode"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["content"] != "# Doc" {
		t.Errorf("content = %q", body["content"])
	}
}

func TestGenerateHandlerRetryableProviderError(t *testing.T) {
	repo, _ := newUsageRepo(t)
	providerErr := &ProviderError{Message: "upstream timeout", Retryable: true}
	svc := NewService(stubConfigs{apiKey: "sk-user"}, stubGate{allowUserKey: true}, &fakeClient{err: providerErr}, repo, nil)
	h := NewHandler(svc)

	rec := postGenerate(t, h, 7, `{"input":"dark mode"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var body struct {
		Code    string `json:"code"`
		Details struct {
			Message     string `json:"message"`
			IsRetryable bool   `json:"isRetryable"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "INTERNAL" || !body.Details.IsRetryable || body.Details.Message != "upstream timeout" {
		t.Errorf("body = %+v", body)
	}
}

func TestGenerateHandlerRequiresAuth(t *testing.T) {
	repo, _ := newUsageRepo(t)
	svc := NewService(stubConfigs{}, stubGate{}, &fakeClient{}, repo, nil)
	h := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/generate/feature", strings.NewReader(`{"input":"x"}`))
	rec := httptest.NewRecorder()
	h.GenerateFeature(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}
