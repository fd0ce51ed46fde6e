package interpreter

import (
	"path"
	"strings"

	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
)

// resolve joins name onto the agent's directory. Absolute names and names
// climbing above the project root are scope violations.
func resolve(a *agent.Agent, op, name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" {
		return "", core.ScopeViolation(op, "empty target name").WithAgent(a.Path())
	}
	if strings.HasPrefix(name, "/") {
		return "", core.ScopeViolation(op, "%q is absolute; targets are relative to %s", name, core.DisplayPath(a.Dir())).WithAgent(a.Path())
	}
	joined := path.Join(a.Dir(), name)
	if !core.Within(joined) {
		return "", core.ScopeViolation(op, "%q escapes the project root", name).WithAgent(a.Path())
	}
	p := core.CleanPath(joined)
	if p == core.RootPath {
		return "", core.ScopeViolation(op, "%q resolves to the project root", name).WithAgent(a.Path())
	}
	if strings.Contains(core.BasePath(p), "#") {
		return "", core.ScopeViolation(op, "%q is not a valid name", name).WithAgent(a.Path())
	}
	return p, nil
}

// resolveChild resolves name and requires the result to be a direct child
// of the agent's own directory.
func resolveChild(a *agent.Agent, op, name string) (string, error) {
	p, err := resolve(a, op, name)
	if err != nil {
		return "", err
	}
	if !core.IsDirectChild(a.Dir(), p) {
		return "", core.ScopeViolation(op, "%s is not a direct child of %s", p, core.DisplayPath(a.Dir())).WithAgent(a.Path())
	}
	return p, nil
}

// readTarget resolves one READ target to the file whose content is loaded.
// Files may live anywhere in the project; folders must be direct children
// and resolve to their documentation file.
func (in *Interpreter) readTarget(a *agent.Agent, t directive.Target) (string, error) {
	if t.Kind == directive.TargetFile {
		return resolve(a, "read", t.Name)
	}
	p, err := resolveChild(a, "read", t.Name)
	if err != nil {
		return "", err
	}
	return in.tree.DocFileOf(p), nil
}

// checkPersonalFile requires an explicit CHANGE target to name the agent's
// own personal file.
func checkPersonalFile(a *agent.Agent, name string) error {
	if name == "" {
		return nil
	}
	if core.Within(name) && core.CleanPath(name) == a.PersonalFile() {
		return nil
	}
	p, err := resolve(a, "change", name)
	if err != nil {
		return err
	}
	if p != a.PersonalFile() {
		return core.ScopeViolation("change", "%s is not your file; you may only change %s", p, a.PersonalFile()).WithAgent(a.Path())
	}
	return nil
}

func kindOf(t directive.Target) core.Kind {
	if t.Kind == directive.TargetFolder {
		return core.KindDirectoryManager
	}
	return core.KindFileCoder
}
