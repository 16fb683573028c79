package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/deepagent-go/deepagent/agent"
	"github.com/deepagent-go/deepagent/internal/approval"
	"github.com/deepagent-go/deepagent/internal/backend"
	"github.com/deepagent-go/deepagent/internal/checkpoint"
	"github.com/deepagent-go/deepagent/internal/kvstore"
	"github.com/deepagent-go/deepagent/internal/provider/anthropic"
)

// fileConfig is the optional YAML config file shape (--config), following
// the teacher's internal/health.HealthConfig: a plain struct with yaml
// tags, loaded with yaml.Unmarshal and overlaid by command-line flags.
type fileConfig struct {
	Model        string         `yaml:"model"`
	SystemPrompt string         `yaml:"system_prompt"`
	MaxSteps     int            `yaml:"max_steps"`
	Backend      string         `yaml:"backend"`
	BackendDir   string         `yaml:"backend_dir"`
	Checkpoint   string         `yaml:"checkpoint"`
	CheckpointAt string         `yaml:"checkpoint_path"`
	InterruptOn  []string       `yaml:"interrupt_on"`
	Subagents    map[string]any `yaml:"subagents"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}

// runFlags collects the persistent flags every subcommand that drives an
// Agent shares, already merged with any --config file.
type runFlags struct {
	model        string
	systemPrompt string
	maxSteps     int
	backendKind  string
	backendDir   string
	ckptKind     string
	ckptPath     string
	interruptAll bool
	controlSock  string
}

func resolveFlags() (runFlags, error) {
	f := runFlags{
		model:        flagModel,
		systemPrompt: flagSystemPrompt,
		maxSteps:     flagMaxSteps,
		backendKind:  flagBackend,
		backendDir:   flagBackendDir,
		ckptKind:     flagCheckpoint,
		ckptPath:     flagCheckpointPath,
		interruptAll: flagInterruptAll,
		controlSock:  flagControlSocket,
	}

	if flagConfigFile != "" {
		fc, err := loadFileConfig(flagConfigFile)
		if err != nil {
			return f, err
		}
		pf := rootCmd.PersistentFlags()
		if !pf.Changed("model") && fc.Model != "" {
			f.model = fc.Model
		}
		if f.systemPrompt == "" {
			f.systemPrompt = fc.SystemPrompt
		}
		if f.maxSteps == 0 {
			f.maxSteps = fc.MaxSteps
		}
		if !pf.Changed("backend") && fc.Backend != "" {
			f.backendKind = fc.Backend
		}
		if f.backendDir == "" {
			f.backendDir = fc.BackendDir
		}
		if !pf.Changed("checkpoint") && fc.Checkpoint != "" {
			f.ckptKind = fc.Checkpoint
		}
		if f.ckptPath == "" {
			f.ckptPath = fc.CheckpointAt
		}
	}

	if f.backendKind == "" {
		f.backendKind = "memory"
	}
	if f.ckptKind == "" {
		f.ckptKind = "memory"
	}
	return f, nil
}

func buildBackend(f runFlags) (backend.Backend, error) {
	switch f.backendKind {
	case "memory", "":
		return backend.NewStateBackend(nil), nil
	case "disk":
		if f.backendDir == "" {
			return nil, fmt.Errorf("--backend-dir is required for --backend=disk")
		}
		return backend.NewDiskBackend(f.backendDir)
	case "kv":
		return backend.NewKVBackend(kvstore.NewMemoryStore(), "deepagent"), nil
	default:
		return nil, fmt.Errorf("unknown --backend %q (want memory, disk, or kv)", f.backendKind)
	}
}

func buildCheckpointer(ctx context.Context, f runFlags) (checkpoint.Checkpointer, error) {
	switch f.ckptKind {
	case "none":
		return nil, nil
	case "memory", "":
		return checkpoint.NewMemoryCheckpointer("deepagent"), nil
	case "file":
		dir := f.ckptPath
		if dir == "" {
			dir = ".deepagent/checkpoints"
		}
		return checkpoint.NewFileCheckpointer(dir)
	case "sqlite":
		path := f.ckptPath
		if path == "" {
			path = ".deepagent/checkpoints.db"
		}
		return checkpoint.NewSQLiteCheckpointer(path)
	case "kv":
		return checkpoint.NewKVCheckpointer(kvstore.NewMemoryStore(), "deepagent"), nil
	case "postgres":
		return checkpoint.NewPostgresCheckpointer(ctx, nil)
	default:
		return nil, fmt.Errorf("unknown --checkpoint %q (want memory, file, sqlite, kv, postgres, or none)", f.ckptKind)
	}
}

// buildAgent wires an *agent.Agent from resolved flags: an Anthropic model
// client, the chosen backend and checkpointer, the full built-in tool set
// (agent.New already appends CoreSet/OptionalSet), and an interactive
// approval handler backed by approvalPrompter.
func buildAgent(ctx context.Context, f runFlags) (*agent.Agent, *approvalPrompter, error) {
	client, err := anthropic.New(anthropic.DefaultConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("configure model client: %w", err)
	}

	b, err := buildBackend(f)
	if err != nil {
		return nil, nil, err
	}
	cp, err := buildCheckpointer(ctx, f)
	if err != nil {
		return nil, nil, err
	}

	interruptOn := approval.Config{}
	if f.interruptAll {
		for _, name := range []string{"write_file", "edit_file", "execute", "http_request"} {
			interruptOn[name] = approval.Always()
		}
	}

	prompter := newApprovalPrompter()

	a, err := agent.New(agent.Options{
		Model:             client,
		ModelName:         f.model,
		SystemPrompt:      f.systemPrompt,
		Backend:           b,
		Checkpointer:      cp,
		InterruptOn:       interruptOn,
		OnApprovalRequest: prompter.handle,
		MaxSteps:          f.maxSteps,
	})
	if err != nil {
		return nil, nil, err
	}
	return a, prompter, nil
}
