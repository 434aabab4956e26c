package models

// RequirementCategory classifies a requirement by the kind of artifact it
// asks for. The category decides which agent type handles the work.
type RequirementCategory string

const (
	CategoryComponent      RequirementCategory = "component"
	CategoryAPI            RequirementCategory = "api"
	CategorySchema         RequirementCategory = "schema"
	CategoryStyling        RequirementCategory = "styling"
	CategoryTest           RequirementCategory = "test"
	CategoryDoc            RequirementCategory = "doc"
	CategoryInfrastructure RequirementCategory = "infrastructure"
	// CategoryGeneral is the fallback for requirements no classifier
	// rule matched.
	CategoryGeneral RequirementCategory = "general"
)

// Valid returns true if the category is a known classification.
func (c RequirementCategory) Valid() bool {
	switch c {
	case CategoryComponent, CategoryAPI, CategorySchema, CategoryStyling,
		CategoryTest, CategoryDoc, CategoryInfrastructure, CategoryGeneral:
		return true
	}
	return false
}

// Requirement is a single normalized capability request parsed from user
// input. Requirements are immutable once parsed.
type Requirement struct {
	// Type is the raw declared or inferred type keyword (e.g. "endpoint").
	Type string `json:"type"`
	// Category is the normalized classification of Type.
	Category RequirementCategory `json:"category"`
	// Name is the artifact name, when one was given or inferred.
	Name string `json:"name,omitempty"`
	// Parameters carries any extra declared fields verbatim.
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Naming convention tokens shared by the context detector and path
// planning. ProjectContext.NamingConvention holds one of these or the
// detector's default.
const (
	NamingSnake  = "snake_case"
	NamingKebab  = "kebab-case"
	NamingCamel  = "camelCase"
	NamingPascal = "PascalCase"
)

// ProjectContext is a snapshot of detected workspace conventions. The
// context is advisory: undetectable fields hold defaults, never errors.
type ProjectContext struct {
	Framework        string `json:"framework"`
	Language         string `json:"language"`
	BuildSystem      string `json:"buildSystem"`
	TestFramework    string `json:"testFramework"`
	NamingConvention string `json:"namingConvention"`

	// BuildCommand and TestCommand are the detected invocations, empty
	// when the build system is unknown.
	BuildCommand []string `json:"buildCommand,omitempty"`
	TestCommand  []string `json:"testCommand,omitempty"`
}
