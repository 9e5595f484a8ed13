package aiconfig

import "docforge/internal/models"

// CatalogModel is one entry of the built-in model catalog.
type CatalogModel struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Label    string `json:"label"`
}

// builtinCatalog is the static model table. User-declared custom models
// extend it per caller at validation time.
var builtinCatalog = []CatalogModel{
	{ID: "gpt-4o", Provider: models.ProviderOpenAI, Label: "GPT-4o"},
	{ID: "gpt-4o-mini", Provider: models.ProviderOpenAI, Label: "GPT-4o mini"},
	{ID: "gpt-4-turbo", Provider: models.ProviderOpenAI, Label: "GPT-4 Turbo"},
	{ID: "o3-mini", Provider: models.ProviderOpenAI, Label: "o3-mini"},
	{ID: "claude-3-5-sonnet-latest", Provider: models.ProviderAnthropic, Label: "Claude 3.5 Sonnet"},
	{ID: "claude-3-5-haiku-latest", Provider: models.ProviderAnthropic, Label: "Claude 3.5 Haiku"},
	{ID: "claude-3-opus-latest", Provider: models.ProviderAnthropic, Label: "Claude 3 Opus"},
}

// DefaultModel is used when a user has no stored configuration.
const (
	DefaultProvider = models.ProviderOpenAI
	DefaultModel    = "gpt-4o-mini"
)

func KnownProvider(provider string) bool {
	return provider == models.ProviderOpenAI || provider == models.ProviderAnthropic
}

// lookupBuiltin returns the catalog entry for a model ID, if any.
func lookupBuiltin(modelID string) (CatalogModel, bool) {
	for _, m := range builtinCatalog {
		if m.ID == modelID {
			return m, true
		}
	}
	return CatalogModel{}, false
}

// Catalog returns a copy of the built-in model table.
func Catalog() []CatalogModel {
	out := make([]CatalogModel, len(builtinCatalog))
	copy(out, builtinCatalog)
	return out
}
