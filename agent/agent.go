package agent

import (
	"sort"
	"sync"

	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/memory"
	"github.com/hupe1980/agenttree/session"
)

// State is the lifecycle state of an Agent.
type State int

const (
	StateInactive State = iota
	StateActive
)

func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "inactive"
}

// Agent is one node of the tree. Identity fields are immutable after New;
// everything else is guarded by mu. All exported methods are goroutine-safe.
type Agent struct {
	path         string
	kind         core.Kind
	personalFile string
	parent       string
	hasParent    bool
	dir          string

	mu         sync.Mutex
	state      State
	task       *core.Task
	stall      bool
	directRuns int
	generation uint64
	children   map[string]struct{}
	active     map[string]struct{}

	mailbox    *Mailbox
	memory     *memory.Memory
	transcript *session.Transcript
}

// Options configures a new Agent.
type Options struct {
	// Parent is the canonical id of the owning agent. The root has none.
	Parent string
	// Root marks the agent as the parentless root of the tree.
	Root bool
	// Dir overrides the directory targets resolve against. Testers take
	// their spawner's directory.
	Dir *string
}

// New constructs an Inactive agent record.
func New(path string, kind core.Kind, personalFile string, optFns ...func(o *Options)) *Agent {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}
	dir := defaultDir(path, kind)
	if opts.Dir != nil {
		dir = *opts.Dir
	}
	return &Agent{
		path:         path,
		dir:          dir,
		kind:         kind,
		personalFile: personalFile,
		parent:       opts.Parent,
		hasParent:    !opts.Root,
		children:     make(map[string]struct{}),
		active:       make(map[string]struct{}),
		mailbox:      NewMailbox(),
		memory:       memory.New(),
		transcript:   session.NewTranscript(),
	}
}

// WithParent sets the owning agent id.
func WithParent(id string) func(o *Options) {
	return func(o *Options) { o.Parent = id }
}

// WithDir sets the directory file targets resolve against.
func WithDir(dir string) func(o *Options) {
	return func(o *Options) { o.Dir = &dir }
}

func defaultDir(path string, kind core.Kind) string {
	switch kind {
	case core.KindRootCoordinator:
		return core.RootPath
	case core.KindDirectoryManager:
		return path
	default:
		return core.ParentPath(path)
	}
}

// AsRoot marks the agent as the root of the tree.
func AsRoot() func(o *Options) {
	return func(o *Options) { o.Root = true }
}

func (a *Agent) Path() string         { return a.path }
func (a *Agent) Kind() core.Kind      { return a.kind }
func (a *Agent) PersonalFile() string { return a.personalFile }

// Parent returns the owning agent's id; ok is false for the root.
func (a *Agent) Parent() (string, bool) { return a.parent, a.hasParent }

// Info returns the identifying details used in events and callbacks.
func (a *Agent) Info() core.AgentInfo {
	return core.AgentInfo{Path: a.path, Kind: a.kind, PersonalFile: a.personalFile}
}

// Dir returns the directory file targets of this agent resolve against:
// the project root for the root, a manager's own folder, a coder's parent
// folder, and for a tester the directory of the agent that spawned it.
func (a *Agent) Dir() string { return a.dir }

func (a *Agent) Mailbox() *Mailbox               { return a.mailbox }
func (a *Agent) Memory() *memory.Memory          { return a.memory }
func (a *Agent) Transcript() *session.Transcript { return a.transcript }

// State returns the lifecycle state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// IsActive reports whether the agent is Active.
func (a *Agent) IsActive() bool { return a.State() == StateActive }

// Task returns a copy of the held task, if any.
func (a *Agent) Task() (core.Task, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.task == nil {
		return core.Task{}, false
	}
	return *a.task, true
}

// Generation counts activations. Workers bound to an older generation exit.
func (a *Agent) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.generation
}

// Activate takes task and flips the agent to Active. It performs no other
// side effect.
func (a *Agent) Activate(task core.Task) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateActive {
		return core.StateViolation("activate", "agent %s is already active", core.DisplayPath(a.path)).WithAgent(a.path)
	}
	if a.task != nil {
		return core.StateViolation("activate", "agent %s already holds a task", core.DisplayPath(a.path)).WithAgent(a.path)
	}
	a.task = &task
	a.state = StateActive
	a.generation++
	return nil
}

// Deactivate returns the agent to a blank Inactive record. It fails while
// any child is active. Prompts still queued in the mailbox are discarded
// and returned.
func (a *Agent) Deactivate() ([]core.Prompt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateActive {
		return nil, core.StateViolation("deactivate", "agent %s is not active", core.DisplayPath(a.path)).WithAgent(a.path)
	}
	if len(a.active) > 0 {
		return nil, core.StateViolation("deactivate", "agent %s has %d active children", core.DisplayPath(a.path), len(a.active)).WithAgent(a.path)
	}
	a.state = StateInactive
	a.task = nil
	a.stall = false
	a.directRuns = 0
	a.transcript.Clear()
	a.memory.Reset()
	return a.mailbox.Drain(), nil
}

// UnreadResults returns the child results queued in the mailbox that no
// turn has consumed yet.
func (a *Agent) UnreadResults() []core.Prompt {
	var out []core.Prompt
	for _, p := range a.mailbox.Peek() {
		if p.Source == core.SourceResult && p.From != a.path {
			out = append(out, p)
		}
	}
	return out
}

// SetStall records whether a reasoning-service call is in flight.
func (a *Agent) SetStall(v bool) {
	a.mu.Lock()
	a.stall = v
	a.mu.Unlock()
}

// Stalled reports whether a reasoning-service call is in flight.
func (a *Agent) Stalled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stall
}

// CountDirectRun increments and returns the number of RUN directives the
// agent executed itself during the current task.
func (a *Agent) CountDirectRun() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.directRuns++
	return a.directRuns
}

// DirectRuns returns the RUN count of the current task.
func (a *Agent) DirectRuns() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.directRuns
}

// AddChild registers id as owned by this agent.
func (a *Agent) AddChild(id string) {
	a.mu.Lock()
	a.children[id] = struct{}{}
	a.mu.Unlock()
}

// RemoveChild forgets id. It also drops id from the active set.
func (a *Agent) RemoveChild(id string) {
	a.mu.Lock()
	delete(a.children, id)
	delete(a.active, id)
	a.mu.Unlock()
}

// Children returns the owned child ids, sorted.
func (a *Agent) Children() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.children)
}

// MarkChildActive adds id to the active-children set.
func (a *Agent) MarkChildActive(id string) {
	a.mu.Lock()
	a.children[id] = struct{}{}
	a.active[id] = struct{}{}
	a.mu.Unlock()
}

// MarkChildInactive removes id from the active-children set.
func (a *Agent) MarkChildInactive(id string) {
	a.mu.Lock()
	delete(a.active, id)
	a.mu.Unlock()
}

// IsChildActive reports whether id is in the active-children set.
func (a *Agent) IsChildActive(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.active[id]
	return ok
}

// ActiveChildren returns the active child ids, sorted.
func (a *Agent) ActiveChildren() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.active)
}

// HasActiveChildren reports whether any child is active.
func (a *Agent) HasActiveChildren() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.active) > 0
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
