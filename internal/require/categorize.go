package require

import (
	"strings"

	"github.com/weftworks/weft/pkg/models"
)

// typeCategories maps declared requirement types to categories.
var typeCategories = map[string]models.RequirementCategory{
	"component":      models.CategoryComponent,
	"ui":             models.CategoryComponent,
	"page":           models.CategoryComponent,
	"view":           models.CategoryComponent,
	"api":            models.CategoryAPI,
	"endpoint":       models.CategoryAPI,
	"service":        models.CategoryAPI,
	"route":          models.CategoryAPI,
	"schema":         models.CategorySchema,
	"model":          models.CategorySchema,
	"migration":      models.CategorySchema,
	"entity":         models.CategorySchema,
	"styling":        models.CategoryStyling,
	"style":          models.CategoryStyling,
	"theme":          models.CategoryStyling,
	"test":           models.CategoryTest,
	"tests":          models.CategoryTest,
	"doc":            models.CategoryDoc,
	"docs":           models.CategoryDoc,
	"documentation":  models.CategoryDoc,
	"infrastructure": models.CategoryInfrastructure,
	"infra":          models.CategoryInfrastructure,
	"ci":             models.CategoryInfrastructure,
	"deploy":         models.CategoryInfrastructure,
	"config":         models.CategoryInfrastructure,
}

// typeKeywords maps free-text keywords to an inferred requirement type.
// Order matters: earlier entries win on the first match.
var typeKeywords = []struct {
	keyword string
	typ     string
}{
	{"endpoint", "api"},
	{"api", "api"},
	{"rest", "api"},
	{"schema", "schema"},
	{"database", "schema"},
	{"model", "schema"},
	{"migration", "schema"},
	{"test", "test"},
	{"spec", "test"},
	{"style", "styling"},
	{"theme", "styling"},
	{"css", "styling"},
	{"document", "doc"},
	{"readme", "doc"},
	{"deploy", "infrastructure"},
	{"pipeline", "infrastructure"},
	{"docker", "infrastructure"},
	{"component", "component"},
	{"button", "component"},
	{"form", "component"},
	{"page", "component"},
}

// Categorize maps a declared type and optional category field to a
// RequirementCategory. It is a pure function: an explicit valid category
// wins, then the type mapping, then the documented "general" fallback.
func Categorize(typ, category string) models.RequirementCategory {
	if c := models.RequirementCategory(strings.ToLower(strings.TrimSpace(category))); c != "" && c.Valid() {
		return c
	}
	if c, ok := typeCategories[strings.ToLower(strings.TrimSpace(typ))]; ok {
		return c
	}
	return models.CategoryGeneral
}

// inferType guesses a requirement type from free text.
func inferType(text string) string {
	lower := strings.ToLower(text)
	for _, kw := range typeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.typ
		}
	}
	return "general"
}

// inferName extracts a name-like token from free text: the first
// capitalized word that is not sentence-initial, else the first word.
func inferName(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	for _, w := range words[1:] {
		trimmed := strings.Trim(w, ".,;:\"'`()[]{}")
		if trimmed == "" {
			continue
		}
		if trimmed[0] >= 'A' && trimmed[0] <= 'Z' {
			return trimmed
		}
	}
	return strings.Trim(words[0], ".,;:\"'`()[]{}")
}
