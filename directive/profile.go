package directive

import "github.com/hupe1980/agenttree/core"

// DelegateForm selects which DELEGATE shape a profile accepts.
type DelegateForm int

const (
	// DelegateNone forbids DELEGATE.
	DelegateNone DelegateForm = iota
	// DelegateImplicit allows a single item targeting the sole managed child.
	DelegateImplicit
	// DelegateMulti allows one or more explicitly targeted items.
	DelegateMulti
)

// Profile is the syntactic subset of the directive language available to
// one agent kind. All profiles share the core grammar.
type Profile struct {
	Kind         core.Kind
	ReadFolders  bool
	DelegateForm DelegateForm
	verbs        []Verb
}

var profiles = map[core.Kind]Profile{
	core.KindRootCoordinator: {
		Kind:         core.KindRootCoordinator,
		ReadFolders:  true,
		DelegateForm: DelegateImplicit,
		verbs:        []Verb{VerbRead, VerbDelegate, VerbSpawn, VerbUpdateDoc, VerbRun, VerbWait, VerbFinish},
	},
	core.KindDirectoryManager: {
		Kind:         core.KindDirectoryManager,
		ReadFolders:  true,
		DelegateForm: DelegateMulti,
		verbs: []Verb{VerbRead, VerbCreate, VerbDelete, VerbDelegate, VerbSpawn, VerbUpdateDoc,
			VerbRun, VerbWait, VerbFinish},
	},
	core.KindFileCoder: {
		Kind:  core.KindFileCoder,
		verbs: []Verb{VerbRead, VerbSpawn, VerbChange, VerbRun, VerbFinish},
	},
	core.KindEphemeralTester: {
		Kind:  core.KindEphemeralTester,
		verbs: []Verb{VerbRead, VerbChange, VerbRun, VerbFinish},
	},
}

// ProfileFor returns the grammar profile of an agent kind.
func ProfileFor(kind core.Kind) Profile {
	return profiles[kind]
}

// Allows reports whether verb is legal for the profile.
func (p Profile) Allows(verb Verb) bool {
	for _, v := range p.verbs {
		if v == verb {
			return true
		}
	}
	return false
}

// Verbs lists the profile's legal verbs in presentation order.
func (p Profile) Verbs() []Verb {
	out := make([]Verb, len(p.verbs))
	copy(out, p.verbs)
	return out
}
