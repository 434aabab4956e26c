package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/weftworks/weft/internal/agent"
	"github.com/weftworks/weft/internal/api"
	"github.com/weftworks/weft/internal/config"
	"github.com/weftworks/weft/internal/orchestrator"
	"github.com/weftworks/weft/internal/quality"
	"github.com/weftworks/weft/internal/vcs"
	"github.com/weftworks/weft/internal/watch"
)

// generatedCategories are the agent types registered for every run. Each
// maps to a requirement category the planner assigns.
var generatedCategories = []string{
	"component", "api", "schema", "styling", "test", "doc", "infrastructure", "general",
}

// buildRegistry wires one LLM-backed producer per requirement category.
func buildRegistry(cfg *config.Config) (*agent.Registry, error) {
	client, err := api.NewClient(api.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.AWS.UseBedrock,
		AWSRegion:     cfg.AWS.Region,
		AWSProfile:    cfg.AWS.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("create API client: %w", err)
	}

	reg := agent.NewRegistry()
	producer := agent.NewLLM(client)
	for _, category := range generatedCategories {
		reg.Register(category, producer)
	}
	return reg, nil
}

// buildEngine assembles an engine for the workspace from loaded config.
// The returned cleanup closes the controller; the engine itself is closed
// by the caller when the run ends.
func buildEngine(root string, cfg *config.Config) (*orchestrator.Engine, func(), error) {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithMaxWorkers(cfg.Engine.MaxWorkers),
		orchestrator.WithTaskTimeout(cfg.Engine.TaskTimeout),
		orchestrator.WithQualityThreshold(cfg.Quality.Threshold),
		orchestrator.WithLogger(orchestrator.NewDebugLoggerForWorkspace(root)),
	}

	if cfg.Quality.Enforce {
		opts = append(opts, orchestrator.WithQualityGate(quality.NewThreshold(cfg.Quality.Threshold)))
	}

	if cfg.Engine.UseVCS {
		port, err := vcs.OpenGit(root)
		switch {
		case err == nil:
			opts = append(opts, orchestrator.WithVCS(port))
		case errors.Is(err, vcs.ErrNoRepository):
			// Checkpoints fall back to file snapshots alone.
		default:
			return nil, nil, fmt.Errorf("open repository: %w", err)
		}
	}

	cleanup := func() {}
	controller, err := watch.NewController(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run control unavailable: %v\n", err)
	} else {
		opts = append(opts, orchestrator.WithControl(controller))
		cleanup = controller.Close
	}

	return orchestrator.New(root, reg, opts...), cleanup, nil
}

// workspaceRoot resolves the workspace the command operates on.
func workspaceRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}
