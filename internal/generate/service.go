package generate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"docforge/internal/models"
)

const (
	CategoryFeature  = "feature"
	CategoryPRD      = "prd"
	CategoryDesigner = "designer"
)

var (
	ErrMissingInput         = errors.New("input is required")
	ErrSubscriptionRequired = errors.New("active subscription required to use the server AI key")
	ErrNoServerKey          = errors.New("no server key configured for provider")
)

// ConfigSource resolves the caller's AI configuration.
type ConfigSource interface {
	GetConfig(userID uint) (*models.AIConfig, error)
}

// Gate decides whether a caller may use the shared server-side key.
type Gate interface {
	CanUseServerKey(userID uint, hasUserKey bool) (bool, error)
}

// Service resolves provider/model per user, enforces the key gate, invokes
// the provider and records usage.
type Service struct {
	configs    ConfigSource
	gate       Gate
	client     Client
	usage      *Repository
	serverKeys map[string]string
}

func NewService(configs ConfigSource, gate Gate, client Client, usage *Repository, serverKeys map[string]string) *Service {
	return &Service{
		configs:    configs,
		gate:       gate,
		client:     client,
		usage:      usage,
		serverKeys: serverKeys,
	}
}

// Request is one generation call.
type Request struct {
	UserID         uint
	Category       string
	Input          string
	ProjectContext string
}

func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	input := strings.TrimSpace(req.Input)
	if input == "" {
		return "", ErrMissingInput
	}

	config, err := s.configs.GetConfig(req.UserID)
	if err != nil {
		return "", err
	}

	hasUserKey := config.APIKey != ""
	allowed, err := s.gate.CanUseServerKey(req.UserID, hasUserKey)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", ErrSubscriptionRequired
	}

	apiKey := config.APIKey
	usedServerKey := false
	if apiKey == "" {
		apiKey = s.serverKeys[config.Provider]
		usedServerKey = true
		if apiKey == "" {
			return "", ErrNoServerKey
		}
	}

	prompt := buildPrompt(req.Category, input, req.ProjectContext)

	start := time.Now()
	content, err := s.client.Generate(ctx, config.Provider, config.Model, apiKey, prompt)
	if err != nil {
		log.Printf("Generation failed for user %d (%s/%s): %v", req.UserID, config.Provider, config.Model, err)
		return "", err
	}

	record := &models.UsageRecord{
		UserID:        req.UserID,
		Provider:      config.Provider,
		Model:         config.Model,
		Category:      req.Category,
		InputChars:    len(input),
		OutputChars:   len(content),
		DurationMs:    time.Since(start).Milliseconds(),
		UsedServerKey: usedServerKey,
	}
	if err := s.usage.RecordUsage(record); err != nil {
		// Usage history is best effort; the generated content still ships.
		log.Printf("Usage record dropped for user %d: %v", req.UserID, err)
	}

	return content, nil
}

func (s *Service) GetUsage(userID uint, limit int) ([]models.UsageRecord, error) {
	return s.usage.GetUsageByUser(userID, limit)
}

func buildPrompt(category, input, projectContext string) string {
	var b strings.Builder
	switch category {
	case CategoryPRD:
		b.WriteString("Write a complete product requirements document in markdown for the following product idea. ")
		b.WriteString("Cover overview, goals, personas, functional requirements, and success metrics.\n\n")
	case CategoryDesigner:
		b.WriteString("Act as a system designer. Produce a high-level architecture proposal in markdown for the following system, ")
		b.WriteString("including components, data flow, and technology choices.\n\n")
	default:
		b.WriteString("Write a detailed feature description in markdown for the following feature idea, ")
		b.WriteString("covering user value, behavior, and acceptance criteria.\n\n")
	}
	if projectContext != "" {
		fmt.Fprintf(&b, "Project context:\n%s\n\n", projectContext)
	}
	fmt.Fprintf(&b, "Input:\n%s\n", input)
	return b.String()
}
