package flow

import (
	"fmt"
	"strings"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/tool"
)

// InstructionsProcessor renders the role instructions and the command
// table. It contributes nothing once the agent has a transcript.
type InstructionsProcessor struct {
	allow     *tool.AllowList
	overrides map[core.Kind]string
}

// NewInstructionsProcessor creates a new instructions processor.
func NewInstructionsProcessor(allow *tool.AllowList, overrides map[core.Kind]string) *InstructionsProcessor {
	return &InstructionsProcessor{allow: allow, overrides: overrides}
}

// Name returns the processor's identifier.
func (p *InstructionsProcessor) Name() string { return "instructions" }

// ProcessRequest adds instructions on the first turn of a lifetime.
func (p *InstructionsProcessor) ProcessRequest(req *Request) error {
	if !req.Agent.Transcript().Empty() {
		return nil
	}
	text, err := Instructions(req.Agent, p.overrides[req.Agent.Kind()])
	if err != nil {
		return fmt.Errorf("failed to render instructions: %w", err)
	}
	req.AddSection("Instructions", text)
	req.AddSection("Allowed commands", CommandTable(p.allow))
	return nil
}

// CommandTable renders the allow-list as a markdown bullet list.
func CommandTable(al *tool.AllowList) string {
	cmds := al.Commands()
	if len(cmds) == 0 {
		return "(no commands are allowed)"
	}
	var b strings.Builder
	for _, c := range cmds {
		fmt.Fprintf(&b, "- `%s`", c.Command)
		if c.Description != "" {
			b.WriteString(": " + c.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// MemoryProcessor refreshes the agent's memory from the workspace and
// renders every block with its current content.
type MemoryProcessor struct {
	ws core.Workspace
}

// NewMemoryProcessor creates a new memory processor.
func NewMemoryProcessor(ws core.Workspace) *MemoryProcessor { return &MemoryProcessor{ws: ws} }

// Name returns the processor's identifier.
func (p *MemoryProcessor) Name() string { return "memory" }

// ProcessRequest adds the memory snapshot.
func (p *MemoryProcessor) ProcessRequest(req *Request) error {
	if p.ws == nil {
		return nil
	}
	req.Memory = req.Agent.Memory().Refresh(p.ws)
	if len(req.Memory) == 0 {
		return nil
	}
	var b strings.Builder
	for _, blk := range req.Memory {
		fmt.Fprintf(&b, "### %s\n", blk.Name)
		if blk.Err != nil {
			fmt.Fprintf(&b, "(unavailable: %v)\n\n", blk.Err)
			continue
		}
		b.WriteString("```\n")
		b.WriteString(blk.Content)
		if !strings.HasSuffix(blk.Content, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	req.AddSection("Memory", b.String())
	return nil
}

// HistoryProcessor renders the numbered transcript of earlier exchanges.
type HistoryProcessor struct{}

// NewHistoryProcessor creates a new history processor.
func NewHistoryProcessor() *HistoryProcessor { return &HistoryProcessor{} }

// Name returns the processor's identifier.
func (p *HistoryProcessor) Name() string { return "history" }

// ProcessRequest adds the transcript. Only prompts and responses are shown;
// the outcome of each response arrives as a prompt of the following turn.
func (p *HistoryProcessor) ProcessRequest(req *Request) error {
	exs := req.Agent.Transcript().Exchanges()
	if len(exs) == 0 {
		return nil
	}
	var b strings.Builder
	for i, ex := range exs {
		fmt.Fprintf(&b, "### Turn %d\nPrompts:\n%s\nYour response:\n%s\n\n", i+1, numbered(ex.Prompts), ex.Response)
	}
	req.AddSection("History", b.String())
	return nil
}

// PromptsProcessor renders the numbered pending prompts.
type PromptsProcessor struct{}

// NewPromptsProcessor creates a new prompts processor.
func NewPromptsProcessor() *PromptsProcessor { return &PromptsProcessor{} }

// Name returns the processor's identifier.
func (p *PromptsProcessor) Name() string { return "prompts" }

// ProcessRequest sets the prompt text.
func (p *PromptsProcessor) ProcessRequest(req *Request) error {
	if len(req.Pending) == 0 {
		return fmt.Errorf("no pending prompts for %s", core.DisplayPath(req.Agent.Path()))
	}
	req.Prompts = numbered(FormatPrompts(req.Agent.Path(), req.Pending))
	return nil
}
