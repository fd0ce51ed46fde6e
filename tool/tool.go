// Package tool implements the command surface agents reach through RUN: an
// immutable allow-list table shown to agents in their instructions and an
// executor that runs allow-listed commands at the project root.
package tool

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/hupe1980/agenttree/core"
)

// Command is one allow-listed command line and the description shown to agents.
type Command struct {
	Command     string `yaml:"command" json:"command"`
	Description string `yaml:"description" json:"description"`
}

// AllowList is the fixed table of commands RUN may execute. It is immutable
// after construction and safe to share between interpreters.
type AllowList struct {
	commands []Command
	index    map[string]int
}

// NewAllowList builds an allow-list. Commands are matched exactly after
// trimming surrounding whitespace; empty and duplicate commands are rejected.
func NewAllowList(cmds ...Command) (*AllowList, error) {
	al := &AllowList{index: make(map[string]int, len(cmds))}
	for _, c := range cmds {
		c.Command = strings.TrimSpace(c.Command)
		if c.Command == "" {
			return nil, fmt.Errorf("allow-list: empty command")
		}
		if _, dup := al.index[c.Command]; dup {
			return nil, fmt.Errorf("allow-list: duplicate command %q", c.Command)
		}
		al.index[c.Command] = len(al.commands)
		al.commands = append(al.commands, c)
	}
	return al, nil
}

// MustAllowList is NewAllowList that panics on error. Intended for tests
// and static tables.
func MustAllowList(cmds ...Command) *AllowList {
	al, err := NewAllowList(cmds...)
	if err != nil {
		panic(err)
	}
	return al
}

// Lookup returns the entry for command.
func (a *AllowList) Lookup(command string) (Command, bool) {
	if a == nil {
		return Command{}, false
	}
	i, ok := a.index[strings.TrimSpace(command)]
	if !ok {
		return Command{}, false
	}
	return a.commands[i], true
}

// Check returns a CommandNotAllowed error unless command is allow-listed.
// The error names the closest allowed commands when there are any.
func (a *AllowList) Check(command string) error {
	if _, ok := a.Lookup(command); ok {
		return nil
	}
	err := core.CommandNotAllowed(command)
	if hints := a.Suggest(command, 3); len(hints) > 0 {
		err.Msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(quoteAll(hints), " or "))
	}
	return err
}

// Suggest returns up to n allowed commands fuzzily matching command.
func (a *AllowList) Suggest(command string, n int) []string {
	if a == nil || len(a.commands) == 0 {
		return nil
	}
	names := make([]string, len(a.commands))
	for i, c := range a.commands {
		names[i] = c.Command
	}
	var out []string
	for _, m := range fuzzy.Find(strings.TrimSpace(command), names) {
		out = append(out, m.Str)
		if len(out) == n {
			break
		}
	}
	return out
}

// Commands returns a copy of the table in declaration order.
func (a *AllowList) Commands() []Command {
	if a == nil {
		return nil
	}
	out := make([]Command, len(a.commands))
	copy(out, a.commands)
	return out
}

// Len returns the number of allowed commands.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.commands)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// ToolError represents a command that could not be executed at all (as
// opposed to one that ran and exited non-zero).
type ToolError struct {
	Command string `json:"command"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Err     error  `json:"-"`
}

func (e *ToolError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %q: %s", e.Code, e.Command, msg)
	}
	return fmt.Sprintf("tool error in %q: %s", e.Command, msg)
}

// Unwrap exposes the underlying cause.
func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError.
func NewToolError(command, message, code string, err error) *ToolError {
	return &ToolError{Command: command, Message: message, Code: code, Err: err}
}
