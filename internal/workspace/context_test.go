package workspace

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/weftworks/weft/pkg/models"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectContextGo(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/app\n\nrequire github.com/gin-gonic/gin v1.9.0\n")

	ctx := DetectContext(dir)
	if ctx.Language != "go" {
		t.Errorf("language = %q, want go", ctx.Language)
	}
	if ctx.Framework != "gin" {
		t.Errorf("framework = %q, want gin", ctx.Framework)
	}
	if len(ctx.TestCommand) == 0 || ctx.TestCommand[0] != "go" {
		t.Errorf("test command = %v", ctx.TestCommand)
	}
}

func TestDetectContextNode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "package.json", `{"dependencies":{"react":"^18"},"devDependencies":{"vitest":"^1"},"scripts":{"build":"vite build"}}`)
	writeFile(t, dir, "tsconfig.json", `{}`)

	ctx := DetectContext(dir)
	if ctx.Language != "typescript" {
		t.Errorf("language = %q, want typescript", ctx.Language)
	}
	if ctx.Framework != "react" {
		t.Errorf("framework = %q, want react", ctx.Framework)
	}
	if ctx.TestFramework != "vitest" {
		t.Errorf("test framework = %q, want vitest", ctx.TestFramework)
	}
	if !reflect.DeepEqual(ctx.BuildCommand, []string{"npm", "run", "build"}) {
		t.Errorf("build command = %v", ctx.BuildCommand)
	}
}

func TestDetectContextEmptyWorkspaceDefaults(t *testing.T) {
	ctx := DetectContext(t.TempDir())
	if ctx.Language != UnknownValue {
		t.Errorf("language = %q, want %q", ctx.Language, UnknownValue)
	}
	if ctx.TestFramework != NoTestFramework {
		t.Errorf("test framework = %q, want %q", ctx.TestFramework, NoTestFramework)
	}
	if ctx.NamingConvention != DefaultNaming {
		t.Errorf("naming = %q, want %q", ctx.NamingConvention, DefaultNaming)
	}
}

func TestDetectContextDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/app\n")
	writeFile(t, dir, "main_helper.go", "package main\n")

	first := DetectContext(dir)
	for i := 0; i < 5; i++ {
		if got := DetectContext(dir); !reflect.DeepEqual(got, first) {
			t.Fatalf("detection not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestDetectNamingConvention(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"snake", []string{"user_model.py", "api_client.py", "someFile.py"}, models.NamingSnake},
		{"kebab", []string{"user-model.ts", "api-client.ts"}, models.NamingKebab},
		{"camel", []string{"userModel.ts", "apiClient.ts", "other-file.ts"}, models.NamingCamel},
		{"pascal", []string{"UserModel.tsx", "ApiClient.tsx"}, models.NamingPascal},
		{"nothing stands out", []string{"main.go", "util.go"}, DefaultNaming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f, "")
			}
			if got := detectNamingConvention(dir); got != tt.want {
				t.Errorf("naming = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/app.ts", "")
	writeFile(t, dir, "src/util.ts", "")
	writeFile(t, dir, "node_modules/pkg/index.js", "")
	writeFile(t, dir, ".git/HEAD", "")
	writeFile(t, dir, "README.md", "")

	files, err := ListFiles(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"README.md", "src/app.ts", "src/util.ts"}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("files = %v, want %v", files, want)
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"./src/app.ts", "src/app.ts"},
		{"src/", "src"},
		{"src/app.ts", "src/app.ts"},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
