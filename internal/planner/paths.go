package planner

import (
	"fmt"
	"strings"

	"github.com/weftworks/weft/pkg/models"
)

// outputPaths derives the files a task is expected to produce from its
// requirement category, the project's language, and its dominant naming
// convention. Paths are workspace-relative with forward slashes.
func outputPaths(req models.Requirement, ctx models.ProjectContext) []string {
	// Explicit path parameter always wins.
	if p := req.Parameters["path"]; p != "" {
		return []string{cleanOutputPath(p)}
	}

	name := req.Name
	if name == "" {
		name = string(req.Category)
	}
	file := applyNaming(name, ctx.NamingConvention)

	switch req.Category {
	case models.CategoryComponent:
		return []string{fmt.Sprintf("%s/%s%s", componentDir(ctx), file, sourceExt(ctx))}
	case models.CategoryAPI:
		return []string{fmt.Sprintf("%s/%s%s", apiDir(ctx), file, sourceExt(ctx))}
	case models.CategorySchema:
		return []string{fmt.Sprintf("%s/%s%s", schemaDir(ctx), file, sourceExt(ctx))}
	case models.CategoryStyling:
		return []string{fmt.Sprintf("src/styles/%s.css", file)}
	case models.CategoryTest:
		return []string{fmt.Sprintf("%s/%s%s", testDir(ctx), file, testExt(ctx))}
	case models.CategoryDoc:
		return []string{fmt.Sprintf("docs/%s.md", file)}
	case models.CategoryInfrastructure:
		return []string{fmt.Sprintf("deploy/%s.yaml", file)}
	default:
		return []string{fmt.Sprintf("generated/%s%s", file, sourceExt(ctx))}
	}
}

func componentDir(ctx models.ProjectContext) string {
	switch ctx.Language {
	case "go":
		return "internal/components"
	case "rust":
		return "src/components"
	case "python":
		return "src/components"
	default:
		return "src/components"
	}
}

func apiDir(ctx models.ProjectContext) string {
	if ctx.Language == "go" {
		return "internal/api"
	}
	return "src/api"
}

func schemaDir(ctx models.ProjectContext) string {
	if ctx.Language == "go" {
		return "internal/schema"
	}
	return "src/schema"
}

func testDir(ctx models.ProjectContext) string {
	switch ctx.Language {
	case "go":
		return "internal/components"
	case "rust":
		return "tests"
	case "python":
		return "tests"
	default:
		return "src/__tests__"
	}
}

func sourceExt(ctx models.ProjectContext) string {
	switch ctx.Language {
	case "go":
		return ".go"
	case "rust":
		return ".rs"
	case "python":
		return ".py"
	case "typescript":
		if ctx.Framework == "react" {
			return ".tsx"
		}
		return ".ts"
	case "javascript":
		if ctx.Framework == "react" {
			return ".jsx"
		}
		return ".js"
	default:
		return ".txt"
	}
}

func testExt(ctx models.ProjectContext) string {
	switch ctx.Language {
	case "go":
		return "_test.go"
	case "rust":
		return ".rs"
	case "python":
		return "_test.py"
	case "typescript":
		return ".test.ts"
	case "javascript":
		return ".test.js"
	default:
		return ".test.txt"
	}
}

// applyNaming renders a requirement name in the project's dominant file
// naming convention. Unknown conventions fall back to the language-neutral
// lowercase form.
func applyNaming(name, convention string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return strings.ToLower(name)
	}
	switch convention {
	case models.NamingSnake:
		return strings.Join(words, "_")
	case models.NamingKebab:
		return strings.Join(words, "-")
	case models.NamingCamel:
		out := words[0]
		for _, w := range words[1:] {
			out += title(w)
		}
		return out
	case models.NamingPascal:
		var out string
		for _, w := range words {
			out += title(w)
		}
		return out
	default:
		return strings.Join(words, "")
	}
}

// splitWords breaks a name on case boundaries and separators into
// lowercase words.
func splitWords(name string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range name {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			flush()
		case r >= 'A' && r <= 'Z':
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

func title(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
