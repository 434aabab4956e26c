package require

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/weftworks/weft/internal/errs"
	"github.com/weftworks/weft/pkg/models"
)

func TestParseFreeText(t *testing.T) {
	reqs, err := Parse("Create a Button component\nAdd a REST api for users")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Category != models.CategoryComponent {
		t.Errorf("first requirement category = %s, want component", reqs[0].Category)
	}
	if reqs[0].Name != "Button" {
		t.Errorf("first requirement name = %q, want Button", reqs[0].Name)
	}
	if reqs[1].Category != models.CategoryAPI {
		t.Errorf("second requirement category = %s, want api", reqs[1].Category)
	}
}

func TestParseFreeTextSemicolons(t *testing.T) {
	reqs, err := Parse("user schema; login endpoint")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
}

func TestParseStructuredObject(t *testing.T) {
	reqs, err := Parse(map[string]any{
		"type": "component",
		"name": "Button",
		"props": "label,onClick",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(reqs))
	}
	req := reqs[0]
	if req.Type != "component" || req.Name != "Button" {
		t.Errorf("unexpected requirement: %+v", req)
	}
	if req.Parameters["props"] != "label,onClick" {
		t.Errorf("expected props parameter, got %v", req.Parameters)
	}
}

func TestParseDocumentWithList(t *testing.T) {
	reqs, err := Parse(map[string]any{
		"requirements": []any{
			map[string]any{"type": "schema", "name": "User"},
			map[string]any{"type": "api", "name": "UserAPI"},
			"integration tests for UserAPI",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[2].Category != models.CategoryTest {
		t.Errorf("third requirement category = %s, want test", reqs[2].Category)
	}
}

func TestParseMalformedEntryNamed(t *testing.T) {
	_, err := Parse([]any{
		map[string]any{"type": "component", "name": "Button"},
		map[string]any{"name": "no type here"},
	})
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Entry != "entry 1" {
		t.Errorf("error should name the offending entry, got %q", verr.Entry)
	}
}

func TestParseUnsupportedShape(t *testing.T) {
	_, err := Parse(42)
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, raw := range []any{"", "  \n  ", []any{}, nil} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("expected error for empty input %#v", raw)
		}
	}
}

func TestParseFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "requirements.yaml")
	content := `requirements:
  - type: component
    name: Button
    props: label
  - type: test
    name: ButtonTest
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	reqs, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(reqs))
	}
	if reqs[0].Name != "Button" || reqs[1].Category != models.CategoryTest {
		t.Errorf("unexpected requirements: %+v", reqs)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.yaml"))
	var ioErr *errs.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestCategorizeFallback(t *testing.T) {
	tests := []struct {
		typ, category string
		want          models.RequirementCategory
	}{
		{"component", "", models.CategoryComponent},
		{"endpoint", "", models.CategoryAPI},
		{"mystery", "", models.CategoryGeneral},
		{"mystery", "schema", models.CategorySchema},
		{"component", "bogus", models.CategoryComponent},
		{"", "", models.CategoryGeneral},
	}
	for _, tt := range tests {
		if got := Categorize(tt.typ, tt.category); got != tt.want {
			t.Errorf("Categorize(%q, %q) = %s, want %s", tt.typ, tt.category, got, tt.want)
		}
	}
}
