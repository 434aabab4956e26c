// Package workspace inspects the target workspace: it detects project
// conventions once per run and provides a read-only file listing for the
// generation contract.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/weftworks/weft/pkg/models"
)

// Detection defaults. Context is advisory, not authoritative: a field the
// builder cannot detect holds a default rather than raising an error.
const (
	UnknownValue     = "unknown"
	NoTestFramework  = "none"
	DefaultNaming    = "unknown"
)

// DetectContext inspects the workspace once and returns an immutable
// snapshot of detected conventions. Detection is deterministic for a
// given workspace state and performs no writes.
func DetectContext(root string) *models.ProjectContext {
	ctx := &models.ProjectContext{
		Framework:        UnknownValue,
		Language:         UnknownValue,
		BuildSystem:      UnknownValue,
		TestFramework:    NoTestFramework,
		NamingConvention: DefaultNaming,
	}

	switch {
	case fileExists(filepath.Join(root, "go.mod")):
		ctx.Language = "go"
		ctx.BuildSystem = "go"
		ctx.TestFramework = "go test"
		ctx.BuildCommand = []string{"go", "build", "./..."}
		ctx.TestCommand = []string{"go", "test", "./..."}
		ctx.Framework = detectGoFramework(root)

	case fileExists(filepath.Join(root, "Cargo.toml")):
		ctx.Language = "rust"
		ctx.BuildSystem = "cargo"
		ctx.TestFramework = "cargo test"
		ctx.BuildCommand = []string{"cargo", "build"}
		ctx.TestCommand = []string{"cargo", "test"}

	case fileExists(filepath.Join(root, "pyproject.toml")) ||
		fileExists(filepath.Join(root, "setup.py")) ||
		fileExists(filepath.Join(root, "requirements.txt")):
		ctx.Language = "python"
		ctx.BuildSystem = "pip"
		if fileExists(filepath.Join(root, "pytest.ini")) || dirExists(filepath.Join(root, "tests")) {
			ctx.TestFramework = "pytest"
			ctx.TestCommand = []string{"pytest"}
		}

	case fileExists(filepath.Join(root, "package.json")):
		detectNodeContext(root, ctx)
	}

	ctx.NamingConvention = detectNamingConvention(root)
	return ctx
}

// detectNodeContext fills in Node.js specifics from package.json content.
func detectNodeContext(root string, ctx *models.ProjectContext) {
	ctx.Language = "javascript"
	ctx.BuildSystem = "npm"

	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return
	}
	pkg := string(data)

	if fileExists(filepath.Join(root, "tsconfig.json")) {
		ctx.Language = "typescript"
	}

	switch {
	case strings.Contains(pkg, `"next"`):
		ctx.Framework = "next"
	case strings.Contains(pkg, `"react"`):
		ctx.Framework = "react"
	case strings.Contains(pkg, `"vue"`):
		ctx.Framework = "vue"
	case strings.Contains(pkg, `"express"`):
		ctx.Framework = "express"
	}

	switch {
	case strings.Contains(pkg, "vitest"):
		ctx.TestFramework = "vitest"
		ctx.TestCommand = []string{"npx", "vitest", "run"}
	case strings.Contains(pkg, "jest"):
		ctx.TestFramework = "jest"
		ctx.TestCommand = []string{"npx", "jest"}
	case strings.Contains(pkg, "mocha"):
		ctx.TestFramework = "mocha"
		ctx.TestCommand = []string{"npx", "mocha"}
	}

	if strings.Contains(pkg, `"build"`) {
		ctx.BuildCommand = []string{"npm", "run", "build"}
	} else if ctx.Language == "typescript" {
		ctx.BuildCommand = []string{"npx", "tsc", "--noEmit"}
	}
}

// detectGoFramework looks for well-known web frameworks in go.mod.
func detectGoFramework(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return UnknownValue
	}
	mod := string(data)
	switch {
	case strings.Contains(mod, "github.com/gin-gonic/gin"):
		return "gin"
	case strings.Contains(mod, "github.com/labstack/echo"):
		return "echo"
	case strings.Contains(mod, "github.com/gofiber/fiber"):
		return "fiber"
	case strings.Contains(mod, "github.com/go-chi/chi"):
		return "chi"
	default:
		return UnknownValue
	}
}

// detectNamingConvention samples top-level source file names and returns
// the dominant style as one of the models.Naming* tokens, or the default
// when nothing stands out. Planning consumes these tokens verbatim when
// deriving output filenames.
func detectNamingConvention(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return DefaultNaming
	}

	counts := map[string]int{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		mixed := name != strings.ToLower(name) && name != strings.ToUpper(name)
		switch {
		case strings.Contains(name, "_"):
			counts[models.NamingSnake]++
		case strings.Contains(name, "-"):
			counts[models.NamingKebab]++
		case mixed && name[0] >= 'A' && name[0] <= 'Z':
			counts[models.NamingPascal]++
		case mixed:
			counts[models.NamingCamel]++
		}
	}

	best, bestCount := DefaultNaming, 0
	for style, n := range counts {
		if n > bestCount {
			best, bestCount = style, n
		}
	}
	return best
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
