package directive

// Verb names a directive kind in its canonical upper-case spelling.
type Verb string

const (
	VerbRead      Verb = "READ"
	VerbCreate    Verb = "CREATE"
	VerbDelete    Verb = "DELETE"
	VerbDelegate  Verb = "DELEGATE"
	VerbSpawn     Verb = "SPAWN"
	VerbChange    Verb = "CHANGE"
	VerbUpdateDoc Verb = "UPDATE_README"
	VerbRun       Verb = "RUN"
	VerbWait      Verb = "WAIT"
	VerbFinish    Verb = "FINISH"
)

// verbAliases maps accepted spellings (upper-cased) to canonical verbs.
var verbAliases = map[string]Verb{
	"READ":          VerbRead,
	"CREATE":        VerbCreate,
	"DELETE":        VerbDelete,
	"DELEGATE":      VerbDelegate,
	"SPAWN":         VerbSpawn,
	"CHANGE":        VerbChange,
	"UPDATE_README": VerbUpdateDoc,
	"UPDATE_DOC":    VerbUpdateDoc,
	"RUN":           VerbRun,
	"WAIT":          VerbWait,
	"FINISH":        VerbFinish,
}

// TargetKind distinguishes file targets from folder targets.
type TargetKind int

const (
	TargetFile TargetKind = iota
	TargetFolder
)

// String returns the grammar keyword for the kind.
func (k TargetKind) String() string {
	if k == TargetFolder {
		return "folder"
	}
	return "file"
}

// Target names a file or folder relative to the issuing agent's directory.
type Target struct {
	Kind TargetKind
	Name string
}

// Directive is the closed set of instructions an agent turn may produce.
// Concrete types implement the unexported isDirective marker.
type Directive interface {
	Verb() Verb
	isDirective()
}

// Read adds each target's content to the issuing agent's memory.
type Read struct {
	Targets []Target
}

// Create makes a new file or folder as a direct child.
type Create struct {
	Target Target
}

// Delete removes a direct child file or folder.
type Delete struct {
	Target Target
}

// DelegateItem pairs a child target with the prompt it receives. A zero
// Target (empty Name) is the root coordinator's implicit sole child.
type DelegateItem struct {
	Target Target
	Prompt string
}

// Implicit reports whether the item relies on the implicit sole-child target.
func (i DelegateItem) Implicit() bool { return i.Target.Name == "" }

// Delegate activates one or more direct children with a task each.
type Delegate struct {
	Items []DelegateItem
}

// Spawn activates the issuing agent's ephemeral tester.
type Spawn struct {
	Prompt string
}

// Change replaces the issuing agent's personal file. File is the optional
// explicit target; when set it must name the personal file.
type Change struct {
	File    string
	Content string
}

// UpdateDoc replaces the issuing agent's documentation file.
type UpdateDoc struct {
	Content string
}

// Run executes an allow-listed command at the project root.
type Run struct {
	Command string
}

// Wait marks that the agent expects only child results next.
type Wait struct{}

// Finish completes the agent's task and reports Prompt to its parent.
type Finish struct {
	Prompt string
}

func (Read) Verb() Verb      { return VerbRead }
func (Create) Verb() Verb    { return VerbCreate }
func (Delete) Verb() Verb    { return VerbDelete }
func (Delegate) Verb() Verb  { return VerbDelegate }
func (Spawn) Verb() Verb     { return VerbSpawn }
func (Change) Verb() Verb    { return VerbChange }
func (UpdateDoc) Verb() Verb { return VerbUpdateDoc }
func (Run) Verb() Verb       { return VerbRun }
func (Wait) Verb() Verb      { return VerbWait }
func (Finish) Verb() Verb    { return VerbFinish }

func (Read) isDirective()      {}
func (Create) isDirective()    {}
func (Delete) isDirective()    {}
func (Delegate) isDirective()  {}
func (Spawn) isDirective()     {}
func (Change) isDirective()    {}
func (UpdateDoc) isDirective() {}
func (Run) isDirective()       {}
func (Wait) isDirective()      {}
func (Finish) isDirective()    {}
