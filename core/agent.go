package core

import "fmt"

// Kind categorizes an agent by the role it plays in the tree. The kind
// selects the directive grammar profile, the role instructions and the
// ownership rules that apply to the agent.
type Kind int

const (
	// KindRootCoordinator is the single top-level agent. It owns the project
	// README and manages exactly one child: the source directory manager.
	KindRootCoordinator Kind = iota
	// KindDirectoryManager owns one directory and its README.
	KindDirectoryManager
	// KindFileCoder owns one source file.
	KindFileCoder
	// KindEphemeralTester is a short-lived verifier owning a scratch file.
	KindEphemeralTester
)

// String returns the canonical hyphenated kind name.
func (k Kind) String() string {
	switch k {
	case KindRootCoordinator:
		return "root-coordinator"
	case KindDirectoryManager:
		return "directory-manager"
	case KindFileCoder:
		return "file-coder"
	case KindEphemeralTester:
		return "ephemeral-tester"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a kind from its canonical name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "root-coordinator", "root":
		return KindRootCoordinator, nil
	case "directory-manager", "manager":
		return KindDirectoryManager, nil
	case "file-coder", "coder":
		return KindFileCoder, nil
	case "ephemeral-tester", "tester":
		return KindEphemeralTester, nil
	default:
		return 0, fmt.Errorf("unknown agent kind %q", s)
	}
}

// OwnsChildren reports whether agents of this kind may have filesystem children.
func (k Kind) OwnsChildren() bool {
	return k == KindRootCoordinator || k == KindDirectoryManager
}

// AgentInfo carries identifying details about an agent used in events and
// callbacks. Path is the canonical identity; PersonalFile is the single
// artifact the agent may write.
type AgentInfo struct {
	Path         string
	Kind         Kind
	PersonalFile string
}
