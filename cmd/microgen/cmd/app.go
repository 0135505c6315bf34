package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Aman-CERP/microgen/internal/artifact"
	"github.com/Aman-CERP/microgen/internal/blueprint"
	"github.com/Aman-CERP/microgen/internal/config"
	"github.com/Aman-CERP/microgen/internal/module"
	"github.com/Aman-CERP/microgen/internal/orchestrator"
	"github.com/Aman-CERP/microgen/internal/output"
	"github.com/Aman-CERP/microgen/internal/render"
	"github.com/Aman-CERP/microgen/templates"
)

// app bundles the components a command needs.
type app struct {
	cfg       *config.Config
	templates *render.Engine
	store     *artifact.Store
	orch      *orchestrator.Orchestrator
}

func newApp() (*app, error) {
	cfg := toolConfig
	if cfg == nil {
		cfg = config.NewConfig()
	}

	var (
		engine *render.Engine
		err    error
	)
	if cfg.Templates.Root != "" {
		engine, err = render.NewFromDir(cfg.Templates.Root, render.WithCache(cfg.TemplateCacheSize()))
		if err != nil {
			return nil, err
		}
	} else {
		engine = render.New(templates.FS, render.WithCache(cfg.TemplateCacheSize()))
	}

	store := artifact.New(
		artifact.WithBackups(cfg.Patch.Backups),
		artifact.WithFormat(cfg.Patch.Format),
		artifact.WithLockTimeout(cfg.LockTimeoutDuration()),
	)

	orch := orchestrator.New(orchestrator.Config{
		Registry:  module.Default(),
		Templates: engine,
		Store:     store,
		Overwrite: cfg.Generate.Overwrite,
	})
	return &app{cfg: cfg, templates: engine, store: store, orch: orch}, nil
}

func newOutput(w io.Writer) *output.Writer {
	if noColor {
		return output.New(w, output.WithColor(false))
	}
	return output.New(w)
}

// projectRoot resolves -C to an absolute path.
func projectRoot() (string, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", projectDir, err)
	}
	return root, nil
}

// loadBlueprint loads path, or <root>/microgen.yaml when path is empty and
// required is false and the file exists. It returns nil when there is
// nothing to load.
func loadBlueprint(root, path string, required bool) (*blueprint.Blueprint, error) {
	if path == "" {
		path = filepath.Join(root, blueprint.DefaultFile)
		if _, err := os.Stat(path); err != nil && !required {
			return nil, nil
		}
	}
	return blueprint.Load(path)
}
