package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/weftworks/weft/internal/vcs"
)

var (
	initForce bool
	initNoGit bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a weft project",
	Long: `Initialize a directory for use with weft.

This command sets up everything needed to run generation:
  - Creates the .weft directory structure (logs, control, state)
  - Initializes a git repository if needed, so failed tasks can be
    rolled back against version control
  - Adds weft entries to .gitignore
  - Creates a .weft.yaml configuration template

The directory argument is optional and defaults to the current directory.

Examples:
  weft init              # Initialize current directory
  weft init ./myproject  # Initialize specific directory
  weft init --force      # Reinitialize even if already set up
  weft init --no-git     # Skip git initialization`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initNoGit, "no-git", false, "Skip git initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	fmt.Printf("Initializing weft in %s...\n\n", absPath)

	weftDir := filepath.Join(absPath, ".weft")
	if _, err := os.Stat(weftDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (you can set it later)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	if !initNoGit {
		if err := initGitRepo(absPath); err != nil {
			return err
		}
	} else {
		fmt.Println("Skipping git initialization (--no-git flag)")
	}

	for _, dir := range []string{"logs", "control"} {
		if err := os.MkdirAll(filepath.Join(weftDir, dir), 0755); err != nil {
			return fmt.Errorf("creating .weft/%s directory: %w", dir, err)
		}
	}
	printStatus("✓", "Created .weft directory structure", color.FgGreen)

	if !initNoGit {
		if err := updateGitignore(absPath); err != nil {
			return fmt.Errorf("updating .gitignore: %w", err)
		}
		printStatus("✓", "Updated .gitignore with weft entries", color.FgGreen)
	}

	if err := createProjectConfig(absPath); err != nil {
		return fmt.Errorf("creating project config: %w", err)
	}
	printStatus("✓", "Created .weft.yaml template", color.FgGreen)

	fmt.Printf("\n%s weft initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	if apiKey == "" {
		fmt.Println("  1. Set your API key:")
		fmt.Println("     export ANTHROPIC_API_KEY=your-key-here")
		fmt.Println()
	}
	fmt.Println("  2. Describe what to generate:")
	fmt.Println("     weft run \"create a Button component; create tests for Button\"")
	fmt.Println("     # or: weft run --file requirements.yaml")
	fmt.Println()
	fmt.Println("  3. Learn more:")
	fmt.Println("     weft --help")

	return nil
}

// initGitRepo ensures a repository exists at repoPath.
func initGitRepo(repoPath string) error {
	_, err := vcs.OpenGit(repoPath)
	if err == nil {
		printStatus("✓", "Git repository exists", color.FgGreen)
		return nil
	}
	if !errors.Is(err, vcs.ErrNoRepository) {
		return fmt.Errorf("checking repository: %w", err)
	}

	if _, err := vcs.InitGit(repoPath); err != nil {
		return err
	}
	printStatus("✓", "Initialized git repository", color.FgGreen)
	return nil
}

// updateGitignore adds weft entries to .gitignore if not present.
func updateGitignore(repoPath string) error {
	gitignorePath := filepath.Join(repoPath, ".gitignore")

	var existingContent string
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existingContent = string(data)
	}

	weftEntries := []string{
		".weft/logs/",
		".weft/control/",
		".weft/state.db*",
		".weft/checkpoints/",
	}

	needsUpdate := false
	for _, entry := range weftEntries {
		if !strings.Contains(existingContent, entry) {
			needsUpdate = true
			break
		}
	}
	if !needsUpdate {
		return nil
	}

	var newContent strings.Builder
	newContent.WriteString(existingContent)
	if len(existingContent) > 0 && !strings.HasSuffix(existingContent, "\n") {
		newContent.WriteString("\n")
	}

	newContent.WriteString("\n# weft\n")
	for _, entry := range weftEntries {
		if !strings.Contains(existingContent, entry) {
			newContent.WriteString(entry + "\n")
		}
	}

	return os.WriteFile(gitignorePath, []byte(newContent.String()), 0644)
}

// createProjectConfig creates a .weft.yaml template.
func createProjectConfig(repoPath string) error {
	configPath := filepath.Join(repoPath, ".weft.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil // Already exists, don't overwrite
	}

	template := `# weft Project Configuration
# This file overrides defaults from ~/.config/weft/config.yaml

# engine:
#   max_workers: 4
#   task_timeout: 5m
#   use_vcs: true

# quality:
#   threshold: 0.7
#   enforce: true

# anthropic:
#   model: claude-sonnet-4-5
`

	return os.WriteFile(configPath, []byte(template), 0644)
}

// printStatus prints a status line with color.
func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}
