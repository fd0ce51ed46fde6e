package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsAndRecoverable(t *testing.T) {
	cases := []struct {
		err         *Error
		sentinel    error
		recoverable bool
	}{
		{ParseError("no directive"), ErrParse, true},
		{ScopeViolation("delegate", "child %q already active", "a.ts"), ErrScope, true},
		{CommandNotAllowed("rm -rf /"), ErrCommandNotAllowed, true},
		{FileSystemError("read", "b.ts", errors.New("missing")), ErrFileSystem, true},
		{StateViolation("finish", "children active"), ErrState, false},
		{FatalBootstrapError("src/a.ts", "src/a.ts", errors.New("denied")), ErrFatalBootstrap, false},
	}
	for _, tc := range cases {
		wrapped := fmt.Errorf("turn: %w", tc.err)
		if !errors.Is(wrapped, tc.sentinel) {
			t.Errorf("%v: errors.Is(%v) = false", tc.err, tc.sentinel)
		}
		if IsRecoverable(wrapped) != tc.recoverable {
			t.Errorf("%v: recoverable = %v", tc.err, !tc.recoverable)
		}
		if CodeOf(wrapped) != tc.err.Code {
			t.Errorf("%v: CodeOf = %q", tc.err, CodeOf(wrapped))
		}
	}
}

func TestError_Message(t *testing.T) {
	cause := errors.New("permission denied")
	err := FileSystemError("write", "src/a.ts", cause)
	if got := err.Error(); got != `filesystem_error [write]: write "src/a.ts": permission denied` {
		t.Fatalf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not unwrapped")
	}
	if attributed := err.WithAgent("src/a.ts"); attributed.Agent != "src/a.ts" || err.Agent != "" {
		t.Fatal("WithAgent must copy")
	}
}

func TestIsRecoverable_ForeignError(t *testing.T) {
	if IsRecoverable(errors.New("boom")) {
		t.Fatal("plain errors are not recoverable")
	}
	if CodeOf(errors.New("boom")) != "" {
		t.Fatal("plain errors carry no code")
	}
}

func TestCallLimiter(t *testing.T) {
	l := NewCallLimiter(2)
	if err := l.Acquire(); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(); err != nil {
		t.Fatal(err)
	}
	if err := l.Acquire(); !errors.Is(err, ErrCallLimit) {
		t.Fatalf("expected ErrCallLimit, got %v", err)
	}
	if l.Spent() != 2 || l.Remaining() != 0 {
		t.Fatalf("spent=%d remaining=%d", l.Spent(), l.Remaining())
	}

	unlimited := NewCallLimiter(0)
	for i := 0; i < 100; i++ {
		if err := unlimited.Acquire(); err != nil {
			t.Fatal(err)
		}
	}
	if unlimited.Remaining() != -1 {
		t.Fatal("unlimited limiter should report -1")
	}
}

func TestNewErrorEvent(t *testing.T) {
	ev := NewErrorEvent("run-1", "src", ScopeViolation("create", "outside"))
	if ev.Type != EventRecovered || ev.ErrorCode != CodeScope || ev.ID == "" || !ev.IsError() {
		t.Fatalf("unexpected event %+v", ev)
	}
	ev = NewErrorEvent("run-1", "src", StateViolation("wait", "no children"))
	if ev.Type != EventViolation {
		t.Fatalf("expected violation, got %s", ev.Type)
	}
}
