package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/weftworks/weft/pkg/models"
)

// Completer is the narrow LLM surface the agent depends on. Satisfied by
// api.Client; tests substitute a canned implementation.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// fileMarker introduces one produced file in the model's response.
const fileMarker = "--- file:"

const llmSystemPrompt = `You are a code generation agent. You receive one
generation task with declared output paths and project conventions, and you
emit complete file contents.

Respond with one block per file, each introduced by a marker line:

--- file: <path>
<full file content>

Only emit files at the task's declared output paths. Do not add commentary
outside file blocks.`

// LLM is a producer backed by a language model. It satisfies the same
// contract as any other agent; the engine does not treat it specially.
type LLM struct {
	completer Completer
}

// NewLLM creates an LLM agent over the given completer.
func NewLLM(c Completer) *LLM {
	return &LLM{completer: c}
}

// Generate implements Agent by prompting the model and parsing file
// blocks from its response.
func (l *LLM) Generate(ctx context.Context, in Context) (*models.GenerationResult, error) {
	response, err := l.completer.Complete(ctx, llmSystemPrompt, buildPrompt(in))
	if err != nil {
		return nil, err
	}

	files, warnings := parseFileBlocks(response, in.Task.InputSpec.OutputPaths)
	if len(files) == 0 {
		return nil, fmt.Errorf("model produced no file blocks")
	}

	result := &models.GenerationResult{
		TaskID:   in.Task.ID,
		Files:    files,
		Warnings: warnings,
	}
	for _, f := range files {
		result.LinesOfCode += strings.Count(f.Content, "\n")
	}
	return result, nil
}

// buildPrompt renders the task, its requirement, and project conventions
// into the user prompt.
func buildPrompt(in Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n", in.Task.Description)
	fmt.Fprintf(&b, "Requirement: type=%s name=%s\n",
		in.Task.InputSpec.Requirement.Type, in.Task.InputSpec.Requirement.Name)
	for k, v := range in.Task.InputSpec.Requirement.Parameters {
		fmt.Fprintf(&b, "  %s: %s\n", k, v)
	}
	fmt.Fprintf(&b, "Output paths: %s\n", strings.Join(in.Task.InputSpec.OutputPaths, ", "))

	if pc := in.ProjectContext; pc != nil {
		fmt.Fprintf(&b, "Project: language=%s framework=%s tests=%s naming=%s\n",
			pc.Language, pc.Framework, pc.TestFramework, pc.NamingConvention)
	}
	if len(in.ExistingFiles) > 0 {
		fmt.Fprintf(&b, "Existing files:\n")
		for _, f := range in.ExistingFiles {
			fmt.Fprintf(&b, "  %s\n", f)
		}
	}
	return b.String()
}

// parseFileBlocks extracts file blocks from a model response. Files at
// undeclared paths are dropped with a warning rather than committed.
func parseFileBlocks(response string, declared []string) ([]models.GeneratedFile, []string) {
	allowed := make(map[string]bool, len(declared))
	for _, p := range declared {
		allowed[p] = true
	}

	var files []models.GeneratedFile
	var warnings []string

	sections := strings.Split(response, fileMarker)
	for _, section := range sections[1:] {
		newline := strings.IndexByte(section, '\n')
		if newline < 0 {
			continue
		}
		path := strings.TrimSpace(section[:newline])
		content := strings.TrimPrefix(section[newline+1:], "\n")
		if path == "" {
			continue
		}
		if !allowed[path] {
			warnings = append(warnings, fmt.Sprintf("dropped undeclared output path %s", path))
			continue
		}
		files = append(files, models.GeneratedFile{
			Path:    path,
			Content: strings.TrimRight(content, "\n") + "\n",
			Type:    "source",
		})
	}
	return files, warnings
}
