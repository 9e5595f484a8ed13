package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"docforge/internal/aiconfig"
	"docforge/internal/models"
)

type stubConfigs struct {
	provider string
	model    string
	apiKey   string
}

func (s stubConfigs) GetConfig(userID uint) (*models.AIConfig, error) {
	provider := s.provider
	if provider == "" {
		provider = aiconfig.DefaultProvider
	}
	model := s.model
	if model == "" {
		model = aiconfig.DefaultModel
	}
	return &models.AIConfig{UserID: userID, Provider: provider, Model: model, APIKey: s.apiKey}, nil
}

type stubGate struct {
	allowUserKey   bool
	allowServerKey bool
}

func (g stubGate) CanUseServerKey(userID uint, hasUserKey bool) (bool, error) {
	if hasUserKey {
		return g.allowUserKey, nil
	}
	return g.allowServerKey, nil
}

type fakeClient struct {
	content string
	err     error

	provider string
	model    string
	apiKey   string
	prompt   string
	calls    int
}

func (c *fakeClient) Generate(ctx context.Context, provider, model, apiKey, prompt string) (string, error) {
	c.calls++
	c.provider, c.model, c.apiKey, c.prompt = provider, model, apiKey, prompt
	if c.err != nil {
		return "", c.err
	}
	return c.content, nil
}

func newUsageRepo(t *testing.T) (*Repository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&models.UsageRecord{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewRepository(db), db
}

func TestGenerateWithPersonalKey(t *testing.T) {
	repo, db := newUsageRepo(t)
	client := &fakeClient{content: "# Feature\n\nSomething useful."}
	svc := NewService(
		stubConfigs{provider: models.ProviderAnthropic, model: "claude-3-5-sonnet-latest", apiKey: "sk-user"},
		stubGate{allowUserKey: true},
		client, repo, map[string]string{models.ProviderAnthropic: "sk-server"},
	)

	content, err := svc.Generate(context.Background(), Request{UserID: 7, Category: CategoryFeature, Input: "dark mode"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if content != client.content {
		t.Errorf("content = %q", content)
	}
	if client.apiKey != "sk-user" {
		t.Errorf("api key = %q, want the caller's own key", client.apiKey)
	}
	if client.provider != models.ProviderAnthropic || client.model != "claude-3-5-sonnet-latest" {
		t.Errorf("provider/model = %s/%s", client.provider, client.model)
	}

	var record models.UsageRecord
	if err := db.First(&record, "user_id = ?", 7).Error; err != nil {
		t.Fatalf("usage record not written: %v", err)
	}
	if record.UsedServerKey {
		t.Error("usage record should not claim the server key")
	}
	if record.Category != CategoryFeature || record.OutputChars != len(client.content) {
		t.Errorf("record = %+v", record)
	}
}

func TestGenerateFallsBackToServerKey(t *testing.T) {
	repo, db := newUsageRepo(t)
	client := &fakeClient{content: "ok"}
	svc := NewService(
		stubConfigs{},
		stubGate{allowServerKey: true},
		client, repo, map[string]string{aiconfig.DefaultProvider: "sk-server"},
	)

	if _, err := svc.Generate(context.Background(), Request{UserID: 7, Category: CategoryPRD, Input: "crm"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if client.apiKey != "sk-server" {
		t.Errorf("api key = %q, want the server key", client.apiKey)
	}

	var record models.UsageRecord
	if err := db.First(&record, "user_id = ?", 7).Error; err != nil {
		t.Fatalf("usage record not written: %v", err)
	}
	if !record.UsedServerKey {
		t.Error("usage record should claim the server key")
	}
}

func TestGenerateRequiresSubscriptionForServerKey(t *testing.T) {
	repo, _ := newUsageRepo(t)
	client := &fakeClient{content: "ok"}
	svc := NewService(stubConfigs{}, stubGate{}, client, repo, map[string]string{aiconfig.DefaultProvider: "sk-server"})

	_, err := svc.Generate(context.Background(), Request{UserID: 7, Category: CategoryDesigner, Input: "queue"})
	if !errors.Is(err, ErrSubscriptionRequired) {
		t.Fatalf("error = %v, want ErrSubscriptionRequired", err)
	}
	if client.calls != 0 {
		t.Error("provider must not be called when the gate denies")
	}
}

func TestGenerateRejectsBlankInput(t *testing.T) {
	repo, _ := newUsageRepo(t)
	svc := NewService(stubConfigs{apiKey: "sk-user"}, stubGate{allowUserKey: true}, &fakeClient{}, repo, nil)

	_, err := svc.Generate(context.Background(), Request{UserID: 7, Category: CategoryFeature, Input: "   "})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("error = %v, want ErrMissingInput", err)
	}
}

func TestGeneratePropagatesProviderError(t *testing.T) {
	repo, db := newUsageRepo(t)
	providerErr := &ProviderError{Message: "rate limited", Retryable: true}
	svc := NewService(stubConfigs{apiKey: "sk-user"}, stubGate{allowUserKey: true}, &fakeClient{err: providerErr}, repo, nil)

	_, err := svc.Generate(context.Background(), Request{UserID: 7, Category: CategoryFeature, Input: "x"})
	var pe *ProviderError
	if !errors.As(err, &pe) || !pe.Retryable {
		t.Fatalf("error = %v, want retryable ProviderError", err)
	}

	var count int64
	if err := db.Model(&models.UsageRecord{}).Count(&count).Error; err != nil {
		t.Fatalf("count usage: %v", err)
	}
	if count != 0 {
		t.Error("failed generations must not record usage")
	}
}

func TestBuildPromptIncludesContext(t *testing.T) {
	repo, _ := newUsageRepo(t)
	client := &fakeClient{content: "ok"}
	svc := NewService(stubConfigs{apiKey: "sk-user"}, stubGate{allowUserKey: true}, client, repo, nil)

	req := Request{UserID: 7, Category: CategoryPRD, Input: "billing portal", ProjectContext: "Stack: Go + Postgres"}
	if _, err := svc.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, want := range []string{"billing portal", "Stack: Go + Postgres", "product requirements"} {
		if !strings.Contains(client.prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, client.prompt)
		}
	}
}
