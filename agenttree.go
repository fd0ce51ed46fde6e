// Package agenttree provides a high-level façade that wires a project
// configuration into a running agent tree: a disk-backed workspace, the
// configured reasoning service, the shell executor with the command
// allow-list, and the engine that drives every agent. Most applications
// interact with this package by:
//  1. Loading a config.Config (or using config.Default())
//  2. Creating an AgentTree via New()
//  3. Calling Run with the user's task
//
// Every collaborator can be overridden through Options, which is how tests
// run a tree against an in-memory workspace and a scripted model.
package agenttree

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/config"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/engine"
	"github.com/hupe1980/agenttree/logging"
	"github.com/hupe1980/agenttree/model"
	"github.com/hupe1980/agenttree/model/anthropic"
	"github.com/hupe1980/agenttree/model/gemini"
	"github.com/hupe1980/agenttree/model/openai"
	"github.com/hupe1980/agenttree/session"
	"github.com/hupe1980/agenttree/tool"
	"github.com/hupe1980/agenttree/tree"
)

// Options configures the AgentTree instance.
type Options struct {
	// Config is the project configuration (defaults to config.Default()).
	Config *config.Config

	// Model overrides the reasoning service selected by Config.Model.
	Model model.Model

	// Workspace overrides the disk store rooted at Config.Project.Root.
	Workspace core.Workspace

	// Executor overrides the shell executor for RUN.
	Executor core.Executor

	// OnEvent receives every run event.
	OnEvent func(core.Event)

	// OnOutput receives command output lines as they arrive.
	OnOutput func(command, stream, line string)

	// Callbacks registers engine lifecycle hooks.
	Callbacks []engine.Callback

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentTree is the high-level façade aggregating the tree, the engine and
// the reasoning service.
type AgentTree struct {
	model  model.Model
	tree   *tree.Tree
	engine *engine.Engine
	events *session.EventLog
}

// New creates an AgentTree from the configuration, building every
// collaborator Options leaves unset.
func New(ctx context.Context, optFns ...func(o *Options)) (*AgentTree, error) {
	opts := Options{
		Config: config.Default(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	m := opts.Model
	if m == nil {
		var err error
		if m, err = NewModel(ctx, cfg); err != nil {
			return nil, err
		}
	}

	ws := opts.Workspace
	if ws == nil {
		ds, err := artifact.NewDiskStore(cfg.Project.Root)
		if err != nil {
			return nil, err
		}
		ws = ds
	}

	allow, err := cfg.AllowList()
	if err != nil {
		return nil, err
	}

	exec := opts.Executor
	if exec == nil {
		exec = tool.NewShellExecutor(cfg.Project.Root, func(o *tool.ShellOptions) {
			o.OnOutput = opts.OnOutput
			o.Logger = opts.Logger
		})
	}

	t, err := tree.New(ws, func(o *tree.Options) {
		o.SourceDir = cfg.Project.SourceDir
		o.ScratchDir = cfg.Project.ScratchDir
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	events := session.NewEventLog()
	e := engine.New(t, model.NewReasoner(m), func(o *engine.Options) {
		o.AllowList = allow
		o.Executor = exec
		o.MaxModelCalls = cfg.Limits.MaxModelCalls
		o.OnEvent = opts.OnEvent
		o.EventLog = events
		o.Logger = opts.Logger
	})
	for _, cb := range opts.Callbacks {
		e.Callbacks().RegisterCallback(cb)
	}

	opts.Logger.Info("agent tree ready",
		"root", cfg.Project.Root, "source_dir", cfg.Project.SourceDir,
		"provider", m.Info().Provider, "model", m.Info().Name, "commands", allow.Len())

	return &AgentTree{model: m, tree: t, engine: e, events: events}, nil
}

// Run drives the tree with task until the root coordinator finishes.
func (a *AgentTree) Run(ctx context.Context, task string) (*engine.Result, error) {
	return a.engine.Run(ctx, task)
}

// Submit delivers an external prompt to an active agent of the running tree.
func (a *AgentTree) Submit(path, text string) error {
	return a.engine.Submit(path, text)
}

// Events returns the recorded events of a run.
func (a *AgentTree) Events(runID string) []core.Event {
	return a.events.Events(runID)
}

// Engine exposes the underlying engine.
func (a *AgentTree) Engine() *engine.Engine { return a.engine }

// Tree exposes the agent arena.
func (a *AgentTree) Tree() *tree.Tree { return a.tree }

// Model returns the reasoning service in use.
func (a *AgentTree) Model() model.Model { return a.model }

// NewModel builds the reasoning service selected by cfg.Model.
func NewModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	mc := cfg.Model
	key := cfg.APIKey()
	switch mc.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			if mc.Name != "" {
				o.Model = anthropicsdk.Model(mc.Name)
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxTokens = int64(mc.MaxTokens)
			}
			o.APIKey = key
		}), nil
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = mc.Temperature
			if mc.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(mc.MaxTokens)
			}
			o.APIKey = key
		}), nil
	case config.ProviderGemini:
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			if mc.Name != "" {
				o.Model = mc.Name
			}
			o.Temperature = float32(mc.Temperature)
			if mc.MaxTokens > 0 {
				o.MaxOutputTokens = int32(mc.MaxTokens)
			}
			o.APIKey = key
		})
	case config.ProviderScripted:
		return model.NewMockModel("scripted", mc.Script...), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", mc.Provider)
	}
}
