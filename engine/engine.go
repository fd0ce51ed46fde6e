package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
	"github.com/hupe1980/agenttree/flow"
	"github.com/hupe1980/agenttree/interpreter"
	"github.com/hupe1980/agenttree/logging"
	"github.com/hupe1980/agenttree/session"
	"github.com/hupe1980/agenttree/tool"
	"github.com/hupe1980/agenttree/tree"
)

var (
	// ErrQuiescent is returned when no agent has work left but the root
	// coordinator never finished.
	ErrQuiescent = errors.New("run stalled: no agent has pending work and the root has not finished")

	// ErrCallLimit is returned once the run exhausted its reasoning-call budget.
	ErrCallLimit = core.ErrCallLimit

	// ErrRunning is returned when Run is called while the tree already has
	// an active root.
	ErrRunning = errors.New("a run is already in progress")
)

// Options configures an Engine instance using the functional options pattern.
type Options struct {
	// Interpreter executes directives. When nil one is built from AllowList,
	// Executor and Logger.
	Interpreter *interpreter.Interpreter
	AllowList   *tool.AllowList
	Executor    core.Executor

	// Builder renders reasoning-service input. When nil the default
	// pipeline is used with Instructions as role template overrides.
	Builder      *flow.Builder
	Instructions map[core.Kind]string

	// MaxModelCalls caps reasoning-service calls per run; zero is unlimited.
	MaxModelCalls int

	// OnEvent receives every run event. It is called from agent workers and
	// must be safe for concurrent use.
	OnEvent func(core.Event)

	// Callbacks holds lifecycle hooks. Defaults to an empty manager.
	Callbacks *CallbackManager

	// EventLog records every run event when set.
	EventLog *session.EventLog

	Logger logging.Logger
}

// Result summarizes a run. Output is the root coordinator's Finish text.
// Violations lists the StateViolations directives caused; each was also
// fed back to the agent that issued it.
type Result struct {
	RunID      string
	Output     string
	Turns      int
	ModelCalls int
	Violations []error
}

// Engine drives an agent tree: one worker per active agent, each running
// the turn loop over its own mailbox.
type Engine struct {
	tree      *tree.Tree
	reasoner  core.Reasoner
	interp    *interpreter.Interpreter
	builder   *flow.Builder
	callbacks *CallbackManager
	opts      Options
	logger    logging.Logger

	mu  sync.Mutex
	run *runState
}

// New creates an engine over t that calls r once per agent turn.
func New(t *tree.Tree, r core.Reasoner, optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Callbacks == nil {
		opts.Callbacks = NewCallbackManager()
	}

	interp := opts.Interpreter
	if interp == nil {
		interp = interpreter.New(t, func(o *interpreter.Options) {
			o.AllowList = opts.AllowList
			o.Executor = opts.Executor
			o.Logger = opts.Logger
		})
	}
	builder := opts.Builder
	if builder == nil {
		builder = flow.NewBuilder(func(o *flow.Options) {
			o.Workspace = t.Workspace()
			o.AllowList = interp.AllowList()
			o.Instructions = opts.Instructions
			o.Logger = opts.Logger
		})
	}

	return &Engine{
		tree:      t,
		reasoner:  r,
		interp:    interp,
		builder:   builder,
		callbacks: opts.Callbacks,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Tree returns the agent tree the engine drives.
func (e *Engine) Tree() *tree.Tree { return e.tree }

// Callbacks returns the callback registry.
func (e *Engine) Callbacks() *CallbackManager { return e.callbacks }

// runState is the bookkeeping of one Run.
type runState struct {
	id      string
	limiter *core.CallLimiter
	group   *errgroup.Group
	ctx     context.Context

	mu         sync.Mutex
	busy       int
	output     string
	violations []error

	turns      atomic.Int64
	modelCalls atomic.Int64

	idle     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
}

func (rs *runState) beginTurn() {
	rs.mu.Lock()
	rs.busy++
	rs.mu.Unlock()
}

func (rs *runState) endTurn() {
	rs.mu.Lock()
	rs.busy--
	rs.mu.Unlock()
	select {
	case rs.idle <- struct{}{}:
	default:
	}
}

func (rs *runState) finish(output string) {
	rs.doneOnce.Do(func() {
		rs.mu.Lock()
		rs.output = output
		rs.mu.Unlock()
		close(rs.done)
	})
}

func (rs *runState) finished() bool {
	select {
	case <-rs.done:
		return true
	default:
		return false
	}
}

func (rs *runState) addViolation(err error) {
	rs.mu.Lock()
	rs.violations = append(rs.violations, err)
	rs.mu.Unlock()
}

// quiescent reports whether no turn is in flight and no active agent has
// queued prompts. Workers bump busy before draining, so a prompt is either
// still queued or its turn is counted.
func (rs *runState) quiescent(t *tree.Tree) bool {
	if rs.finished() {
		return false
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.busy > 0 {
		return false
	}
	for _, a := range t.Active() {
		if a.Mailbox().Len() > 0 {
			return false
		}
	}
	return true
}

func (rs *runState) result() *Result {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return &Result{
		RunID:      rs.id,
		Output:     rs.output,
		Turns:      int(rs.turns.Load()),
		ModelCalls: int(rs.modelCalls.Load()),
		Violations: append([]error(nil), rs.violations...),
	}
}

// Run activates the root coordinator with task and drives the tree until
// the root finishes. It returns ErrQuiescent if the tree stops making
// progress, ErrCallLimit once the call budget is spent, and the first
// FatalBootstrapError or context error otherwise. The partial result is
// returned alongside any error.
func (e *Engine) Run(ctx context.Context, task string) (*Result, error) {
	e.mu.Lock()
	if e.run != nil {
		e.mu.Unlock()
		return nil, ErrRunning
	}
	if err := e.tree.ActivateRoot(task); err != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %v", ErrRunning, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	rs := &runState{
		id:      core.NewID(),
		limiter: core.NewCallLimiter(e.opts.MaxModelCalls),
		group:   g,
		ctx:     gctx,
		idle:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.run = rs
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.run = nil
		e.mu.Unlock()
	}()

	root := e.tree.Root()
	e.logger.Info("run started", "run_id", rs.id, "max_model_calls", e.opts.MaxModelCalls)
	e.emit(core.NewEvent(rs.id, core.EventActivated, root.Path()))
	e.startWorker(rs, root)

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-rs.done:
				cancel()
				return nil
			case <-rs.idle:
				if rs.quiescent(e.tree) {
					return ErrQuiescent
				}
			}
		}
	})

	err := g.Wait()
	res := rs.result()

	if rs.finished() {
		ev := core.NewEvent(rs.id, core.EventRunFinished, root.Path())
		ev.Text = res.Output
		e.emit(ev)
		e.logger.Info("run finished", "run_id", rs.id, "turns", res.Turns, "model_calls", res.ModelCalls,
			"violations", len(res.Violations))
		return res, nil
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = ErrQuiescent
	}
	e.logger.Error("run aborted", "run_id", rs.id, "error", err, "turns", res.Turns)
	return res, err
}

// Submit delivers an external prompt to an active agent of the running tree.
func (e *Engine) Submit(path, text string) error {
	e.mu.Lock()
	running := e.run != nil
	e.mu.Unlock()
	if !running {
		return core.StateViolation("submit", "no run in progress")
	}
	return e.tree.Submit(core.CleanPath(path), text)
}

// startWorker launches the turn loop of one activation of a.
func (e *Engine) startWorker(rs *runState, a *agent.Agent) {
	gen := a.Generation()
	rs.group.Go(func() error {
		return e.work(rs, a, gen)
	})
}

func (e *Engine) work(rs *runState, a *agent.Agent, gen uint64) error {
	ctx := rs.ctx
	turn := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rs.done:
			return nil
		case <-a.Mailbox().Ready():
		}
		for a.Mailbox().Len() > 0 {
			if !a.IsActive() || a.Generation() != gen {
				return nil
			}
			turn++
			outcome, err := e.turn(rs, a, gen, turn)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if outcome == interpreter.OutcomeFinished || outcome == interpreter.OutcomeTerminal {
				return nil
			}
		}
	}
}

// turn runs one iteration of the loop: drain, call, parse, execute, record.
func (e *Engine) turn(rs *runState, a *agent.Agent, gen uint64, n int) (interpreter.Outcome, error) {
	rs.beginTurn()
	defer rs.endTurn()

	pending := a.Mailbox().Drain()
	if len(pending) == 0 {
		return interpreter.OutcomeContinue, nil
	}
	a.SetStall(true)
	rs.turns.Add(1)

	info := a.Info()
	path := core.DisplayPath(a.Path())
	ctx := core.WithTurn(rs.ctx, core.TurnInfo{RunID: rs.id, Agent: info, Generation: gen, Turn: n})
	prompts := flow.FormatPrompts(a.Path(), pending)
	cc := &CallbackContext{RunID: rs.id, Agent: info, Prompts: prompts}

	e.logger.Debug("turn started", "agent", path, "turn", n, "prompts", len(pending))
	e.emit(core.NewEvent(rs.id, core.EventTurnStarted, a.Path()))
	e.runCallbacks(ctx, CallbackBeforeTurn, cc)

	if err := rs.limiter.Acquire(); err != nil {
		return interpreter.OutcomeTerminal, err
	}
	req, err := e.builder.Build(a, pending)
	if err != nil {
		return interpreter.OutcomeTerminal, fmt.Errorf("build context for %s: %w", path, err)
	}

	response, err := e.reasoner.Call(ctx, req.Context(), req.Prompts)
	rs.modelCalls.Add(1)
	if err != nil {
		if ctx.Err() != nil {
			return interpreter.OutcomeTerminal, ctx.Err()
		}
		e.logger.Warn("reasoning call failed", "agent", path, "error", err)
		cc.Err = err
		return e.feedback(ctx, a, cc, "reasoning service error: "+err.Error()), nil
	}
	cc.Response = response

	d, err := directive.Parse(response, directive.ProfileFor(a.Kind()))
	if err != nil {
		return e.handleError(ctx, rs, a, cc, err)
	}
	cc.Directive = d

	res, err := e.interp.Execute(ctx, a, d)
	if err != nil {
		return e.handleError(ctx, rs, a, cc, err)
	}

	ev := core.NewEvent(rs.id, core.EventDirective, a.Path())
	ev.Verb = string(d.Verb())
	ev.Text = directive.Summary(d)
	e.emit(ev)
	e.logger.Info("directive executed", "agent", path, "directive", directive.Summary(d), "outcome", res.Outcome.String())
	for _, perr := range res.Errors {
		e.emit(core.NewErrorEvent(rs.id, a.Path(), perr))
		e.runCallbacks(ctx, CallbackOnError, &CallbackContext{RunID: rs.id, Agent: info, Prompts: prompts,
			Response: response, Directive: d, Err: perr})
	}
	cc.Result = res.Text
	e.runCallbacks(ctx, CallbackOnDirective, cc)

	for _, child := range res.Activated {
		e.logger.Debug("agent activated", "agent", core.DisplayPath(child.Path()), "kind", child.Kind().String(), "by", path)
		e.emit(core.NewEvent(rs.id, core.EventActivated, child.Path()))
		e.startWorker(rs, child)
	}

	switch res.Outcome {
	case interpreter.OutcomeWait:
		a.Transcript().Append(session.Exchange{Prompts: prompts, Response: response, Result: res.Text})
		a.SetStall(false)
	case interpreter.OutcomeFinished:
		fin := core.NewEvent(rs.id, core.EventFinished, a.Path())
		fin.Text = res.Text
		e.emit(fin)
		e.logger.Info("agent finished", "agent", path)
	case interpreter.OutcomeTerminal:
		fin := core.NewEvent(rs.id, core.EventFinished, a.Path())
		fin.Text = res.Text
		e.emit(fin)
		rs.finish(res.Text)
	default:
		a.Transcript().Append(session.Exchange{Prompts: prompts, Response: response, Result: res.Text})
		a.Mailbox().Post(core.NewPrompt(a.Path(), core.SourceResult, res.Text))
		a.SetStall(false)
	}
	e.runCallbacks(ctx, CallbackAfterTurn, cc)
	return res.Outcome, nil
}

// handleError feeds a directive error back to the agent. FatalBootstrapErrors,
// context errors and errors outside the taxonomy end the run.
func (e *Engine) handleError(ctx context.Context, rs *runState, a *agent.Agent, cc *CallbackContext, err error) (interpreter.Outcome, error) {
	if ctx.Err() != nil {
		return interpreter.OutcomeTerminal, ctx.Err()
	}
	code := core.CodeOf(err)
	if code == "" || code == core.CodeFatalBootstrap {
		e.logger.Error("turn failed", "agent", core.DisplayPath(a.Path()), "error", err)
		return interpreter.OutcomeTerminal, err
	}

	cc.Err = err
	e.emit(core.NewErrorEvent(rs.id, a.Path(), err))
	if code == core.CodeState {
		rs.addViolation(err)
		e.logger.Warn("state violation", "agent", core.DisplayPath(a.Path()), "error", err)
		e.runCallbacks(ctx, CallbackOnViolation, cc)
	} else {
		e.logger.Warn("recoverable error", "agent", core.DisplayPath(a.Path()), "code", string(code), "error", err)
		e.runCallbacks(ctx, CallbackOnError, cc)
	}
	return e.feedback(ctx, a, cc, "error: "+err.Error()), nil
}

// feedback records the exchange and re-prompts the agent with text.
func (e *Engine) feedback(ctx context.Context, a *agent.Agent, cc *CallbackContext, text string) interpreter.Outcome {
	cc.Result = text
	a.Transcript().Append(session.Exchange{Prompts: cc.Prompts, Response: cc.Response, Result: text})
	a.Mailbox().Post(core.NewPrompt(a.Path(), core.SourceResult, text))
	a.SetStall(false)
	e.runCallbacks(ctx, CallbackAfterTurn, cc)
	return interpreter.OutcomeContinue
}

func (e *Engine) runCallbacks(ctx context.Context, typ CallbackType, cc *CallbackContext) {
	if err := e.callbacks.ExecuteCallbacks(ctx, typ, cc); err != nil {
		e.logger.Warn("callback failed", "type", string(typ), "agent", core.DisplayPath(cc.Agent.Path), "error", err)
	}
}

func (e *Engine) emit(ev core.Event) {
	if e.opts.EventLog != nil {
		e.opts.EventLog.AppendEvent(ev)
	}
	if e.opts.OnEvent != nil {
		e.opts.OnEvent(ev)
	}
}
