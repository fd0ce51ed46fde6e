// Package flow builds the text an agent's reasoning-service call receives.
//
// A Builder runs an ordered pipeline of request processors over a Request.
// The default pipeline renders, in order, the role instructions and command
// table (first turn of a lifetime only), the refreshed memory snapshot, the
// numbered transcript of earlier exchanges, and finally the numbered pending
// prompts.
package flow

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/logging"
	"github.com/hupe1980/agenttree/memory"
	"github.com/hupe1980/agenttree/tool"
)

// Request is the call under construction. Processors append context
// sections and may set Prompts.
type Request struct {
	Agent   *agent.Agent
	Pending []core.Prompt

	// Memory holds the refreshed memory snapshot once the memory processor ran.
	Memory []memory.Block

	Sections []string
	Prompts  string
}

// AddSection appends a titled context section. Empty bodies are skipped.
func (r *Request) AddSection(title, body string) {
	body = strings.TrimRight(body, "\n")
	if body == "" {
		return
	}
	r.Sections = append(r.Sections, "## "+title+"\n\n"+body)
}

// Context joins the sections into the rendered context string.
func (r *Request) Context() string {
	return strings.Join(r.Sections, "\n\n")
}

// RequestProcessor contributes one part of a Request.
type RequestProcessor interface {
	// Name returns the processor's identifier.
	Name() string
	// ProcessRequest modifies the request in place.
	ProcessRequest(req *Request) error
}

// Options configures a Builder.
type Options struct {
	Workspace core.Workspace
	AllowList *tool.AllowList
	// Instructions overrides the role instruction template per agent kind.
	Instructions map[core.Kind]string
	Logger       logging.Logger
}

// Builder renders reasoning-service input for an agent.
type Builder struct {
	processors []RequestProcessor
	logger     logging.Logger
}

// NewBuilder returns a Builder with the default processor pipeline.
func NewBuilder(optFns ...func(o *Options)) *Builder {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	b := &Builder{logger: opts.Logger}
	b.AddRequestProcessor(NewInstructionsProcessor(opts.AllowList, opts.Instructions))
	b.AddRequestProcessor(NewMemoryProcessor(opts.Workspace))
	b.AddRequestProcessor(NewHistoryProcessor())
	b.AddRequestProcessor(NewPromptsProcessor())
	return b
}

// AddRequestProcessor appends a processor; order of registration defines execution order.
func (b *Builder) AddRequestProcessor(p RequestProcessor) {
	b.processors = append(b.processors, p)
}

// Build runs the pipeline for a with the given pending prompts.
func (b *Builder) Build(a *agent.Agent, pending []core.Prompt) (*Request, error) {
	req := &Request{Agent: a, Pending: pending}
	for _, p := range b.processors {
		if err := p.ProcessRequest(req); err != nil {
			return nil, fmt.Errorf("request processor %s failed: %w", p.Name(), err)
		}
	}
	b.logger.Debug("context built", "agent", core.DisplayPath(a.Path()), "sections", len(req.Sections),
		"context_bytes", len(req.Context()), "prompts", len(pending))
	return req, nil
}

// FormatPrompt renders one mailbox prompt as seen by owner.
func FormatPrompt(owner string, p core.Prompt) string {
	switch {
	case p.Source == core.SourceResult && p.From == owner:
		return "[result of your last directive]\n" + p.Text
	case p.Source == core.SourceResult:
		return fmt.Sprintf("[result from %s]\n%s", core.DisplayPath(p.From), p.Text)
	case p.From == core.UserSender:
		return fmt.Sprintf("[%s from user]\n%s", p.Source, p.Text)
	default:
		return fmt.Sprintf("[%s from %s]\n%s", p.Source, core.DisplayPath(p.From), p.Text)
	}
}

// FormatPrompts renders each prompt with FormatPrompt.
func FormatPrompts(owner string, ps []core.Prompt) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = FormatPrompt(owner, p)
	}
	return out
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, indent(it))
	}
	return b.String()
}

// indent aligns continuation lines under a numbered item.
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n   ")
}
