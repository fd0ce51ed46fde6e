package interpreter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
	"github.com/hupe1980/agenttree/logging"
	"github.com/hupe1980/agenttree/tool"
	"github.com/hupe1980/agenttree/tree"
)

// Outcome tells the orchestrator how the issuing agent proceeds.
type Outcome int

const (
	// OutcomeContinue feeds the result back as the agent's next prompt.
	OutcomeContinue Outcome = iota
	// OutcomeWait idles the agent until a child result arrives.
	OutcomeWait
	// OutcomeFinished means the agent completed and was deactivated.
	OutcomeFinished
	// OutcomeTerminal means the root finished; the run is over.
	OutcomeTerminal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWait:
		return "wait"
	case OutcomeFinished:
		return "finished"
	case OutcomeTerminal:
		return "terminal"
	default:
		return "continue"
	}
}

// Result is the outcome of one executed directive. Text is the rendering
// fed back to the agent. Errors lists per-target failures of a directive
// that otherwise succeeded (for example one missing file in a READ).
type Result struct {
	Outcome   Outcome
	Text      string
	Activated []*agent.Agent
	Errors    []error
}

// Options configures an Interpreter.
type Options struct {
	// AllowList is the immutable RUN command table. A nil list allows nothing.
	AllowList *tool.AllowList
	// Executor runs allow-listed commands at the project root.
	Executor core.Executor
	Logger   logging.Logger
}

// Interpreter validates directive scope and executes directives against the
// tree and its workspace.
type Interpreter struct {
	tree *tree.Tree
	ws   core.Workspace
	opts Options
}

// New returns an interpreter bound to t.
func New(t *tree.Tree, optFns ...func(o *Options)) *Interpreter {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Interpreter{tree: t, ws: t.Workspace(), opts: opts}
}

// AllowList returns the configured command table.
func (in *Interpreter) AllowList() *tool.AllowList { return in.opts.AllowList }

// Execute validates d against a's scope and runs it. Recoverable failures
// and StateViolations are returned as *core.Error with nothing changed;
// FatalBootstrapErrors abort the run.
func (in *Interpreter) Execute(ctx context.Context, a *agent.Agent, d directive.Directive) (Result, error) {
	if !directive.ProfileFor(a.Kind()).Allows(d.Verb()) {
		return Result{}, core.ParseError("%s is not available to a %s", d.Verb(), a.Kind()).WithAgent(a.Path())
	}
	switch v := d.(type) {
	case directive.Read:
		return in.read(a, v)
	case directive.Create:
		return in.create(a, v)
	case directive.Delete:
		return in.delete(a, v)
	case directive.Delegate:
		return in.delegate(a, v)
	case directive.Spawn:
		return in.spawn(a, v)
	case directive.Change:
		return in.change(a, v)
	case directive.UpdateDoc:
		return in.write(a, "update_readme", v.Content)
	case directive.Run:
		return in.run(ctx, a, v)
	case directive.Wait:
		return in.wait(a)
	case directive.Finish:
		return in.finish(a, v)
	default:
		return Result{}, fmt.Errorf("interpreter: unsupported directive %T", d)
	}
}

func (in *Interpreter) read(a *agent.Agent, d directive.Read) (Result, error) {
	paths := make([]string, len(d.Targets))
	for i, t := range d.Targets {
		if t.Kind == directive.TargetFolder && !directive.ProfileFor(a.Kind()).ReadFolders {
			return Result{}, core.ScopeViolation("read", "a %s may only read files", a.Kind()).WithAgent(a.Path())
		}
		p, err := in.readTarget(a, t)
		if err != nil {
			return Result{}, err
		}
		paths[i] = p
	}

	var res Result
	lines := make([]string, 0, len(paths))
	for _, p := range paths {
		data, err := in.ws.ReadFile(p)
		if err != nil {
			ferr := core.FileSystemError("read", p, err).WithAgent(a.Path())
			res.Errors = append(res.Errors, ferr)
			lines = append(lines, ferr.Error())
			continue
		}
		a.Memory().Add(p, p)
		lines = append(lines, fmt.Sprintf("read %s (%s) into memory", p, humanize.Bytes(uint64(len(data)))))
	}
	res.Text = strings.Join(lines, "\n")
	return res, nil
}

func (in *Interpreter) create(a *agent.Agent, d directive.Create) (Result, error) {
	p, err := resolveChild(a, "create", d.Target.Name)
	if err != nil {
		return Result{}, err
	}
	if _, err := in.ws.Stat(p); err == nil {
		return Result{}, core.FileSystemError("create", p, artifact.ErrExists).WithAgent(a.Path())
	}
	if d.Target.Kind == directive.TargetFolder {
		err = in.ws.Mkdir(p)
	} else {
		err = in.ws.CreateFile(p, nil)
	}
	if err != nil {
		return Result{}, core.FileSystemError("create", p, err).WithAgent(a.Path())
	}
	return Result{Text: fmt.Sprintf("created %s %s", d.Target.Kind, p)}, nil
}

func (in *Interpreter) delete(a *agent.Agent, d directive.Delete) (Result, error) {
	p, err := resolveChild(a, "delete", d.Target.Name)
	if err != nil {
		return Result{}, err
	}
	if p == a.PersonalFile() {
		return Result{}, core.ScopeViolation("delete", "cannot delete your own file %s", p).WithAgent(a.Path())
	}
	if err := in.tree.CheckDeletable(a.Path(), p); err != nil {
		return Result{}, err
	}
	e, err := in.ws.Stat(p)
	if err != nil {
		return Result{}, core.FileSystemError("delete", p, err).WithAgent(a.Path())
	}
	if e.Dir != (d.Target.Kind == directive.TargetFolder) {
		cause := artifact.ErrIsDir
		if !e.Dir {
			cause = artifact.ErrNotDir
		}
		return Result{}, core.FileSystemError("delete", p, cause).WithAgent(a.Path())
	}
	if err := in.ws.Remove(p); err != nil {
		return Result{}, core.FileSystemError("delete", p, err).WithAgent(a.Path())
	}
	if _, err := in.tree.Forget(a.Path(), p); err != nil {
		return Result{}, err
	}
	return Result{Text: fmt.Sprintf("deleted %s %s", d.Target.Kind, p)}, nil
}

func (in *Interpreter) delegate(a *agent.Agent, d directive.Delegate) (Result, error) {
	reqs := make([]tree.Request, 0, len(d.Items))
	for _, it := range d.Items {
		var (
			p    string
			kind core.Kind
			err  error
		)
		if a.Kind() == core.KindRootCoordinator {
			p, kind, err = in.rootTarget(a, it)
		} else {
			p, err = resolveChild(a, "delegate", it.Target.Name)
			kind = kindOf(it.Target)
		}
		if err != nil {
			return Result{}, err
		}
		if p == a.PersonalFile() {
			return Result{}, core.ScopeViolation("delegate", "cannot delegate your own file %s", p).WithAgent(a.Path())
		}
		if e, err := in.ws.Stat(p); err == nil && e.Dir != (kind == core.KindDirectoryManager) {
			cause := artifact.ErrIsDir
			if !e.Dir {
				cause = artifact.ErrNotDir
			}
			return Result{}, core.FileSystemError("delegate", p, cause).WithAgent(a.Path())
		}
		reqs = append(reqs, tree.Request{Path: p, Kind: kind, Prompt: it.Prompt})
	}

	kids, err := in.tree.Delegate(a.Path(), reqs)
	if err != nil {
		return Result{}, err
	}
	names := make([]string, len(kids))
	for i, k := range kids {
		names[i] = k.Path()
	}
	return Result{
		Text:      fmt.Sprintf("delegated to %s; %d active children", strings.Join(names, ", "), len(a.ActiveChildren())),
		Activated: kids,
	}, nil
}

// rootTarget resolves a root-coordinator delegation to its sole managed child.
func (in *Interpreter) rootTarget(a *agent.Agent, it directive.DelegateItem) (string, core.Kind, error) {
	src := in.tree.SourceDir()
	if it.Implicit() {
		return src, core.KindDirectoryManager, nil
	}
	p, err := resolveChild(a, "delegate", it.Target.Name)
	if err != nil {
		return "", 0, err
	}
	if p != src || it.Target.Kind != directive.TargetFolder {
		return "", 0, core.ScopeViolation("delegate", "the root only manages folder %q", src).WithAgent(a.Path())
	}
	return src, core.KindDirectoryManager, nil
}

func (in *Interpreter) spawn(a *agent.Agent, d directive.Spawn) (Result, error) {
	tester, err := in.tree.Spawn(a.Path(), d.Prompt)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Text:      fmt.Sprintf("spawned tester %s (scratch file %s)", tester.Path(), tester.PersonalFile()),
		Activated: []*agent.Agent{tester},
	}, nil
}

func (in *Interpreter) change(a *agent.Agent, d directive.Change) (Result, error) {
	if err := checkPersonalFile(a, d.File); err != nil {
		return Result{}, err
	}
	return in.write(a, "change", d.Content)
}

func (in *Interpreter) write(a *agent.Agent, op, content string) (Result, error) {
	pf := a.PersonalFile()
	if err := in.ws.WriteFile(pf, []byte(content)); err != nil {
		return Result{}, core.FileSystemError(op, pf, err).WithAgent(a.Path())
	}
	return Result{Text: fmt.Sprintf("wrote %s (%s)", pf, humanize.Bytes(uint64(len(content))))}, nil
}

func (in *Interpreter) run(ctx context.Context, a *agent.Agent, d directive.Run) (Result, error) {
	if err := in.opts.AllowList.Check(d.Command); err != nil {
		var ce *core.Error
		if errors.As(err, &ce) {
			return Result{}, ce.WithAgent(a.Path())
		}
		return Result{}, err
	}
	if a.Kind() == core.KindDirectoryManager && a.DirectRuns() >= 1 {
		return Result{}, core.ScopeViolation("run", "a directory manager may RUN once per task; SPAWN a tester for further verification").WithAgent(a.Path())
	}
	a.CountDirectRun()
	if in.opts.Executor == nil {
		return Result{Text: fmt.Sprintf("$ %s\nno command executor is configured", d.Command)}, nil
	}
	res, err := in.opts.Executor.Run(ctx, d.Command)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		in.opts.Logger.Warn("command failed to run", "agent", core.DisplayPath(a.Path()), "command", d.Command, "error", err)
		return Result{Text: fmt.Sprintf("$ %s\ncommand failed to run: %v", d.Command, err), Errors: []error{err}}, nil
	}
	return Result{Text: tool.FormatResult(d.Command, res)}, nil
}

func (in *Interpreter) wait(a *agent.Agent) (Result, error) {
	active, unread := in.tree.Awaiting(a.Path())
	if len(active) == 0 && unread > 0 {
		return Result{Outcome: OutcomeWait, Text: fmt.Sprintf("%s already arrived", pluralResults(unread))}, nil
	}
	if len(active) == 0 {
		return Result{}, core.StateViolation("wait", "WAIT with no active children").WithAgent(a.Path())
	}
	return Result{Outcome: OutcomeWait, Text: fmt.Sprintf("waiting for %s", strings.Join(active, ", "))}, nil
}

func (in *Interpreter) finish(a *agent.Agent, d directive.Finish) (Result, error) {
	isRoot, err := in.tree.Finish(a.Path(), d.Prompt)
	if err != nil {
		if errors.Is(err, tree.ErrUnreadResults) {
			return Result{Text: fmt.Sprintf("FINISH deferred, %v; review them and FINISH again", err)}, nil
		}
		var ce *core.Error
		if errors.As(err, &ce) {
			return Result{}, ce.WithAgent(a.Path())
		}
		return Result{}, err
	}
	if isRoot {
		return Result{Outcome: OutcomeTerminal, Text: d.Prompt}, nil
	}
	return Result{Outcome: OutcomeFinished, Text: d.Prompt}, nil
}

func pluralResults(n int) string {
	if n == 1 {
		return "1 child result"
	}
	return fmt.Sprintf("%d child results", n)
}
