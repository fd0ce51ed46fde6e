package core

import (
	"errors"
	"fmt"
)

// Code categorizes an orchestration error.
type Code string

const (
	// CodeParse marks a malformed response, or one with zero or several directives.
	CodeParse Code = "parse_error"
	// CodeScope marks a target outside the issuing agent's ownership boundary
	// or an already active delegation target.
	CodeScope Code = "scope_violation"
	// CodeState marks an illegal Activate/Deactivate/Wait/Finish.
	CodeState Code = "state_violation"
	// CodeCommandNotAllowed marks a Run command missing from the allow-list.
	CodeCommandNotAllowed Code = "command_not_allowed"
	// CodeFileSystem marks missing/existing path conflicts and I/O failures.
	CodeFileSystem Code = "filesystem_error"
	// CodeFatalBootstrap marks a personal file that could not be created.
	CodeFatalBootstrap Code = "fatal_bootstrap"
)

// Sentinels matched by errors.Is against any *Error of the same code.
var (
	ErrParse             = errors.New("parse error")
	ErrScope             = errors.New("scope violation")
	ErrState             = errors.New("state violation")
	ErrCommandNotAllowed = errors.New("command not allowed")
	ErrFileSystem        = errors.New("filesystem error")
	ErrFatalBootstrap    = errors.New("fatal bootstrap error")
)

var sentinels = map[Code]error{
	CodeParse:             ErrParse,
	CodeScope:             ErrScope,
	CodeState:             ErrState,
	CodeCommandNotAllowed: ErrCommandNotAllowed,
	CodeFileSystem:        ErrFileSystem,
	CodeFatalBootstrap:    ErrFatalBootstrap,
}

// Error is the structured error produced while validating or executing a
// directive. Agent is the canonical path of the agent the error concerns and
// Op names the operation (verb or lifecycle step) that failed.
type Error struct {
	Code  Code   `json:"code"`
	Agent string `json:"agent,omitempty"`
	Op    string `json:"op,omitempty"`
	Msg   string `json:"message"`
	Err   error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Op, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the code sentinel so callers can write errors.Is(err, ErrScope).
func (e *Error) Is(target error) bool {
	return sentinels[e.Code] == target
}

// Recoverable reports whether the error is fed back to the offending agent
// instead of being escalated.
func (e *Error) Recoverable() bool {
	switch e.Code {
	case CodeParse, CodeScope, CodeCommandNotAllowed, CodeFileSystem:
		return true
	default:
		return false
	}
}

// NewError constructs an *Error.
func NewError(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// ParseError reports a malformed directive response.
func ParseError(format string, args ...any) *Error {
	return NewError(CodeParse, "parse", format, args...)
}

// ScopeViolation reports a target outside the permitted ownership boundary.
func ScopeViolation(op, format string, args ...any) *Error {
	return NewError(CodeScope, op, format, args...)
}

// StateViolation reports an illegal lifecycle transition.
func StateViolation(op, format string, args ...any) *Error {
	return NewError(CodeState, op, format, args...)
}

// CommandNotAllowed reports a Run command absent from the allow-list.
func CommandNotAllowed(command string) *Error {
	return NewError(CodeCommandNotAllowed, "run", "command %q is not in the allow-list", command)
}

// FileSystemError wraps an I/O failure for path.
func FileSystemError(op, path string, err error) *Error {
	return &Error{Code: CodeFileSystem, Op: op, Msg: fmt.Sprintf("%s %q", op, path), Err: err}
}

// FatalBootstrapError reports that an agent's personal file could not be created.
func FatalBootstrapError(agentPath, personalFile string, err error) *Error {
	return &Error{
		Code:  CodeFatalBootstrap,
		Agent: agentPath,
		Op:    "bootstrap",
		Msg:   fmt.Sprintf("create personal file %q", personalFile),
		Err:   err,
	}
}

// WithAgent returns a copy of e attributed to the given agent path.
func (e *Error) WithAgent(path string) *Error {
	cp := *e
	cp.Agent = path
	return &cp
}

// CodeOf extracts the Code of err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRecoverable reports whether err should be fed back into the offending
// agent's next context. Unknown errors are not recoverable.
func IsRecoverable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Recoverable()
	}
	return false
}
