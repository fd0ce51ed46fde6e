package core

import "time"

// PromptSource distinguishes how a prompt reached a mailbox.
type PromptSource int

const (
	// SourceTask is the prompt that carried a Delegate/Spawn task (or the
	// run's initial task for the root).
	SourceTask PromptSource = iota
	// SourceResult is a child's Finish result routed to its parent.
	SourceResult
	// SourceExternal is a prompt submitted from outside the tree.
	SourceExternal
)

// String returns a short label used in rendered prompts.
func (s PromptSource) String() string {
	switch s {
	case SourceTask:
		return "task"
	case SourceResult:
		return "result"
	case SourceExternal:
		return "external"
	default:
		return "unknown"
	}
}

// Prompt is one mailbox entry. From is the canonical path of the sender, or
// "user" for prompts injected by the caller running the tree.
type Prompt struct {
	From     string
	Source   PromptSource
	Text     string
	Received time.Time
}

// NewPrompt stamps a prompt with the current time.
func NewPrompt(from string, source PromptSource, text string) Prompt {
	return Prompt{From: from, Source: source, Text: text, Received: time.Now().UTC()}
}

// UserSender identifies prompts injected from outside the tree.
const UserSender = "user"

// Task is the single pending/in-flight unit of work an agent holds between
// Activate and Deactivate. Parent is the originating agent's path.
type Task struct {
	Parent string
	Prompt string
}
