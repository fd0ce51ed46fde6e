package tool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/logging"
)

var _ core.Executor = (*ShellExecutor)(nil)

// ShellOptions configures a ShellExecutor.
type ShellOptions struct {
	// Shell and ShellArgs form the interpreter invocation; the command is
	// appended as the final argument.
	Shell     string
	ShellArgs []string
	// Env holds additional KEY=value pairs.
	Env []string
	// Timeout bounds a single command; zero disables it.
	Timeout time.Duration
	// MaxOutput truncates each of stdout and stderr to this many bytes.
	MaxOutput int
	// OnOutput, when set, receives every output line as it arrives.
	OnOutput func(command, stream, line string)
	Logger   logging.Logger
}

// ShellExecutor runs commands through a shell with the working directory
// fixed to the project root, whatever agent issued them.
type ShellExecutor struct {
	root string
	opts ShellOptions
}

// NewShellExecutor returns an executor rooted at dir.
func NewShellExecutor(dir string, optFns ...func(o *ShellOptions)) *ShellExecutor {
	opts := ShellOptions{
		Shell:     "sh",
		ShellArgs: []string{"-c"},
		Timeout:   5 * time.Minute,
		MaxOutput: 64 * 1024,
		Logger:    logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ShellExecutor{root: dir, opts: opts}
}

// Run executes command and blocks until it exits. A non-zero exit is
// reported in the result, not as an error; errors mean the process could
// not be started or was cancelled.
func (s *ShellExecutor) Run(ctx context.Context, command string) (core.CommandResult, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	args := append(append([]string(nil), s.opts.ShellArgs...), command)
	cmd := exec.CommandContext(ctx, s.opts.Shell, args...)
	cmd.Dir = s.root
	if len(s.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), s.opts.Env...)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return core.CommandResult{}, NewToolError(command, "stdout pipe", "pipe", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return core.CommandResult{}, NewToolError(command, "stderr pipe", "pipe", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return core.CommandResult{}, NewToolError(command, "start", "start", err)
	}

	var stdout, stderr strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go s.collect(&wg, command, "stdout", stdoutPipe, &stdout)
	go s.collect(&wg, command, "stderr", stderrPipe, &stderr)
	wg.Wait()

	res := core.CommandResult{
		Stdout: s.truncate(stdout.String()),
		Stderr: s.truncate(stderr.String()),
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			return res, NewToolError(command, "cancelled", "cancelled", ctx.Err())
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
		default:
			return res, NewToolError(command, "wait", "wait", err)
		}
	}
	s.opts.Logger.Debug("command finished", "command", command, "exit_code", res.ExitCode, "duration", time.Since(start).String())
	return res, nil
}

func (s *ShellExecutor) collect(wg *sync.WaitGroup, command, stream string, r io.Reader, buf *strings.Builder) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteByte('\n')
		if s.opts.OnOutput != nil {
			s.opts.OnOutput(command, stream, line)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(buf, "[scanner error: %v]\n", err)
	}
}

func (s *ShellExecutor) truncate(out string) string {
	if s.opts.MaxOutput <= 0 || len(out) <= s.opts.MaxOutput {
		return out
	}
	return out[:s.opts.MaxOutput] + fmt.Sprintf("\n[output truncated: %s of %s shown]\n",
		humanize.Bytes(uint64(s.opts.MaxOutput)), humanize.Bytes(uint64(len(out))))
}

// FormatResult renders a command outcome for an agent's context.
func FormatResult(command string, res core.CommandResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "$ %s\nexit code: %d\n", command, res.ExitCode)
	if res.Stdout != "" {
		b.WriteString("stdout:\n")
		b.WriteString(res.Stdout)
		if !strings.HasSuffix(res.Stdout, "\n") {
			b.WriteByte('\n')
		}
	}
	if res.Stderr != "" {
		b.WriteString("stderr:\n")
		b.WriteString(res.Stderr)
		if !strings.HasSuffix(res.Stderr, "\n") {
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
