package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/artifact"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/logging"
)

// ErrUnreadResults is returned by Finish when child results arrived after
// the agent's last turn started.
var ErrUnreadResults = errors.New("child results are waiting to be read")

// Options configures a Tree.
type Options struct {
	// SourceDir is the directory managed by the root's sole child.
	SourceDir string
	// ScratchDir holds tester scratch files.
	ScratchDir string
	// RootDoc is the root coordinator's personal file.
	RootDoc string
	Logger  logging.Logger
}

// Tree is the arena of agent records keyed by canonical id. It owns the
// parent/child relation and is the only component that mutates an agent's
// active-children set together with the child's own state, under one lock.
type Tree struct {
	mu     sync.Mutex
	ws     core.Workspace
	agents map[string]*agent.Agent
	root   *agent.Agent
	opts   Options
	logger logging.Logger
}

// New creates the arena and the root coordinator record. The root's
// personal file is created if missing; failure is a FatalBootstrapError.
func New(ws core.Workspace, optFns ...func(o *Options)) (*Tree, error) {
	opts := Options{
		SourceDir:  "src",
		ScratchDir: ".agenttree/scratch",
		RootDoc:    "README.md",
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.SourceDir = core.CleanPath(opts.SourceDir)
	opts.ScratchDir = core.CleanPath(opts.ScratchDir)
	opts.RootDoc = core.CleanPath(opts.RootDoc)
	if opts.SourceDir == "" || strings.Contains(opts.SourceDir, "/") || !core.Within(opts.SourceDir) {
		return nil, fmt.Errorf("source dir %q must be a single top-level folder", opts.SourceDir)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	t := &Tree{
		ws:     ws,
		agents: make(map[string]*agent.Agent),
		opts:   opts,
		logger: opts.Logger,
	}
	root := agent.New(core.RootPath, core.KindRootCoordinator, opts.RootDoc, agent.AsRoot())
	if err := t.materialize(root); err != nil {
		return nil, err
	}
	t.root = root
	t.agents[core.RootPath] = root
	return t, nil
}

// Workspace returns the filesystem the tree materializes personal files in.
func (t *Tree) Workspace() core.Workspace { return t.ws }

// Root returns the root coordinator.
func (t *Tree) Root() *agent.Agent { return t.root }

// SourceDir returns the path of the root's sole managed child.
func (t *Tree) SourceDir() string { return t.opts.SourceDir }

// Get returns the agent with the given id.
func (t *Tree) Get(id string) (*agent.Agent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.agents[id]
	return a, ok
}

// Agents returns every record sorted by id.
func (t *Tree) Agents() []*agent.Agent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*agent.Agent, 0, len(t.agents))
	for _, a := range t.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Active returns the currently Active agents sorted by id.
func (t *Tree) Active() []*agent.Agent {
	var out []*agent.Agent
	for _, a := range t.Agents() {
		if a.IsActive() {
			out = append(out, a)
		}
	}
	return out
}

// PersonalFile returns the personal file of a directory manager or file
// coder with the given canonical path.
func PersonalFile(kind core.Kind, path string) string {
	if kind == core.KindDirectoryManager {
		return DocFile(path)
	}
	return path
}

// DocFile is the conventional documentation file of folder p: p/<base>_README.md.
func DocFile(p string) string {
	return core.JoinPath(p, core.BasePath(p)+"_README.md")
}

// TesterID returns the id of the tester attached to owner.
func TesterID(owner string) string { return owner + "#tester" }

// ScratchFile returns the scratch file of the tester attached to owner.
func (t *Tree) ScratchFile(owner string) string {
	name := "root"
	if owner != core.RootPath {
		name = strings.ReplaceAll(owner, "/", "_")
	}
	return core.JoinPath(t.opts.ScratchDir, name+".scratch")
}

// DocFileOf resolves the documentation file shown for folder p. The root's
// source folder and every other folder follow the manager convention; the
// project root uses the root document.
func (t *Tree) DocFileOf(p string) string {
	if p == core.RootPath {
		return t.opts.RootDoc
	}
	return DocFile(p)
}

// materialize creates a's personal file (and its directory) if absent.
func (t *Tree) materialize(a *agent.Agent) error {
	pf := a.PersonalFile()
	if e, err := t.ws.Stat(pf); err == nil {
		if e.Dir {
			return core.FatalBootstrapError(a.Path(), pf, artifact.ErrIsDir)
		}
		return nil
	} else if !errors.Is(err, artifact.ErrNotFound) {
		return core.FatalBootstrapError(a.Path(), pf, err)
	}
	if dir := core.ParentPath(pf); dir != core.RootPath {
		if err := t.ws.Mkdir(dir); err != nil {
			return core.FatalBootstrapError(a.Path(), pf, err)
		}
	}
	if err := t.ws.CreateFile(pf, nil); err != nil && !errors.Is(err, artifact.ErrExists) {
		return core.FatalBootstrapError(a.Path(), pf, err)
	}
	t.logger.Debug("personal file created", "agent", core.DisplayPath(a.Path()), "file", pf)
	return nil
}

// ActivateRoot starts a run: the root takes the task and the prompt is
// posted to its mailbox.
func (t *Tree) ActivateRoot(prompt string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.root.Activate(core.Task{Parent: core.UserSender, Prompt: prompt}); err != nil {
		return err
	}
	t.root.Mailbox().Post(core.NewPrompt(core.UserSender, core.SourceTask, prompt))
	return nil
}

// Request asks for one child to be activated with a task.
type Request struct {
	Path   string
	Kind   core.Kind
	Prompt string
}

// Delegate activates every requested direct child of parentID. All requests
// are validated first; if any target is already active, duplicated, or
// clashes with an existing record of another kind, nothing is activated and
// no mailbox is touched. Personal-file creation failures are fatal.
func (t *Tree) Delegate(parentID string, reqs []Request) ([]*agent.Agent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parent, ok := t.agents[parentID]
	if !ok {
		return nil, core.StateViolation("delegate", "unknown agent %s", core.DisplayPath(parentID))
	}
	if !parent.IsActive() {
		return nil, core.StateViolation("delegate", "agent %s is not active", core.DisplayPath(parentID)).WithAgent(parentID)
	}
	if len(reqs) == 0 {
		return nil, core.ScopeViolation("delegate", "no delegation targets").WithAgent(parentID)
	}

	var problems error
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if seen[r.Path] {
			problems = multierr.Append(problems, fmt.Errorf("%s targeted twice", r.Path))
			continue
		}
		seen[r.Path] = true
		if !core.IsDirectChild(parentID, r.Path) {
			problems = multierr.Append(problems, fmt.Errorf("%s is not a direct child", r.Path))
			continue
		}
		if existing, ok := t.agents[r.Path]; ok {
			if existing.IsActive() || parent.IsChildActive(r.Path) {
				problems = multierr.Append(problems, fmt.Errorf("child already active: %s", r.Path))
				continue
			}
			if existing.Kind() != r.Kind {
				problems = multierr.Append(problems, fmt.Errorf("%s is a %s, not a %s", r.Path, existing.Kind(), r.Kind))
			}
		}
	}
	if problems != nil {
		return nil, &core.Error{Code: core.CodeScope, Agent: parentID, Op: "delegate", Msg: "delegation rejected", Err: problems}
	}

	children := make([]*agent.Agent, 0, len(reqs))
	for _, r := range reqs {
		child, ok := t.agents[r.Path]
		if !ok {
			child = agent.New(r.Path, r.Kind, PersonalFile(r.Kind, r.Path), agent.WithParent(parentID))
		}
		if err := t.materialize(child); err != nil {
			return nil, err
		}
		t.agents[r.Path] = child
		children = append(children, child)
	}
	for i, child := range children {
		if err := t.activateLocked(parent, child, reqs[i].Prompt); err != nil {
			return nil, err
		}
	}
	return children, nil
}

// Spawn activates the ephemeral tester attached to ownerID. The tester
// record is created on demand together with its scratch file.
func (t *Tree) Spawn(ownerID, prompt string) (*agent.Agent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	owner, ok := t.agents[ownerID]
	if !ok {
		return nil, core.StateViolation("spawn", "unknown agent %s", core.DisplayPath(ownerID))
	}
	if !owner.IsActive() {
		return nil, core.StateViolation("spawn", "agent %s is not active", core.DisplayPath(ownerID)).WithAgent(ownerID)
	}
	if owner.Kind() == core.KindEphemeralTester {
		return nil, core.ScopeViolation("spawn", "a tester cannot spawn testers").WithAgent(ownerID)
	}
	id := TesterID(ownerID)
	tester, ok := t.agents[id]
	if ok && (tester.IsActive() || owner.IsChildActive(id)) {
		return nil, core.ScopeViolation("spawn", "child already active: %s", id).WithAgent(ownerID)
	}
	if !ok {
		tester = agent.New(id, core.KindEphemeralTester, t.ScratchFile(ownerID),
			agent.WithParent(ownerID), agent.WithDir(owner.Dir()))
	}
	if err := t.materialize(tester); err != nil {
		return nil, err
	}
	t.agents[id] = tester
	if err := t.activateLocked(owner, tester, prompt); err != nil {
		return nil, err
	}
	return tester, nil
}

func (t *Tree) activateLocked(parent, child *agent.Agent, prompt string) error {
	if err := child.Activate(core.Task{Parent: parent.Path(), Prompt: prompt}); err != nil {
		return err
	}
	parent.MarkChildActive(child.Path())
	child.Mailbox().Post(core.NewPrompt(parent.Path(), core.SourceTask, prompt))
	t.logger.Debug("agent activated", "agent", core.DisplayPath(child.Path()), "kind", child.Kind().String(), "parent", core.DisplayPath(parent.Path()))
	return nil
}

// Finish completes id's task. It fails with a StateViolation while id has
// active children and with ErrUnreadResults while child results are still
// queued for id. Non-root agents are removed from their parent's active
// set, the result is posted to the parent's mailbox and the agent is
// deactivated, all under the arena lock so parents observe results in
// finish order. Testers are removed from the arena and their scratch file
// deleted. It reports whether id was the root.
func (t *Tree) Finish(id, result string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.agents[id]
	if !ok {
		return false, core.StateViolation("finish", "unknown agent %s", core.DisplayPath(id))
	}
	if !a.IsActive() {
		return false, core.StateViolation("finish", "agent %s is not active", core.DisplayPath(id)).WithAgent(id)
	}
	if active := a.ActiveChildren(); len(active) > 0 {
		return false, core.StateViolation("finish", "cannot finish with %d active children (%s)",
			len(active), strings.Join(active, ", ")).WithAgent(id)
	}

	if unread := a.UnreadResults(); len(unread) > 0 {
		return false, fmt.Errorf("%w: %d from %s", ErrUnreadResults, len(unread), senders(unread))
	}

	parentID, hasParent := a.Parent()
	if hasParent {
		if parent, ok := t.agents[parentID]; ok {
			parent.MarkChildInactive(id)
			parent.Mailbox().Post(core.NewPrompt(id, core.SourceResult, result))
		}
	}
	dropped, err := a.Deactivate()
	if err != nil {
		return false, err
	}
	if len(dropped) > 0 {
		t.logger.Warn("discarded queued prompts on finish", "agent", core.DisplayPath(id), "count", len(dropped))
	}

	if a.Kind() == core.KindEphemeralTester {
		if err := t.ws.Remove(a.PersonalFile()); err != nil && !errors.Is(err, artifact.ErrNotFound) {
			t.logger.Warn("scratch file not removed", "agent", id, "file", a.PersonalFile(), "error", err)
		}
		delete(t.agents, id)
		if parent, ok := t.agents[parentID]; ok {
			parent.RemoveChild(id)
		}
	}
	return !hasParent, nil
}

// Awaiting returns the active children of id and the number of child
// results queued for it, read together under the arena lock.
func (t *Tree) Awaiting(id string) ([]string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.agents[id]
	if !ok {
		return nil, 0
	}
	return a.ActiveChildren(), len(a.UnreadResults())
}

func senders(ps []core.Prompt) string {
	seen := make(map[string]bool, len(ps))
	var out []string
	for _, p := range ps {
		if !seen[p.From] {
			seen[p.From] = true
			out = append(out, core.DisplayPath(p.From))
		}
	}
	return strings.Join(out, ", ")
}

// Forget drops the records of path and every descendant owned by ownerID
// after their files were deleted. It fails with a ScopeViolation when any
// of them is active.
func (t *Tree) Forget(ownerID, path string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []string
	for id, a := range t.agents {
		if covers(path, id) {
			if a.IsActive() {
				return 0, core.ScopeViolation("delete", "cannot delete %s while agent %s is active", path, id).WithAgent(ownerID)
			}
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		a := t.agents[id]
		if pid, ok := a.Parent(); ok {
			if p, ok := t.agents[pid]; ok {
				p.RemoveChild(id)
			}
		}
		delete(t.agents, id)
	}
	return len(ids), nil
}

// CheckDeletable reports a ScopeViolation when path or a descendant has an
// active agent, without changing anything.
func (t *Tree) CheckDeletable(ownerID, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, a := range t.agents {
		if covers(path, id) && a.IsActive() {
			return core.ScopeViolation("delete", "cannot delete %s while agent %s is active", path, id).WithAgent(ownerID)
		}
	}
	return nil
}

// covers reports whether id is path, a descendant of it, or a tester
// attached to either.
func covers(path, id string) bool {
	return id == path || strings.HasPrefix(id, path+"/") || strings.HasPrefix(id, path+"#")
}

// Submit posts an external prompt to an Active agent.
func (t *Tree) Submit(id, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.agents[id]
	if !ok {
		return core.StateViolation("submit", "unknown agent %s", core.DisplayPath(id))
	}
	if !a.IsActive() {
		return core.StateViolation("submit", "agent %s is not active", core.DisplayPath(id)).WithAgent(id)
	}
	a.Mailbox().Post(core.NewPrompt(core.UserSender, core.SourceExternal, text))
	return nil
}

// Busy reports whether any Active agent has queued prompts or a call in flight.
func (t *Tree) Busy() bool {
	for _, a := range t.Active() {
		if a.Stalled() || a.Mailbox().Len() > 0 {
			return true
		}
	}
	return false
}
