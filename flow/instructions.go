package flow

import (
	"github.com/hupe1980/agenttree/agent"
	"github.com/hupe1980/agenttree/core"
	"github.com/hupe1980/agenttree/directive"
	internalutil "github.com/hupe1980/agenttree/internal/util"
)

const preamble = `You are {{.Role}} in a tree of agents that together build a software project.
You own {{.Owns}}. The only file you may write is {{.PersonalFile}}.
Paths in your directives are relative to {{.Dir}}.

Every response must contain exactly one directive and nothing else.
Quoted strings support \n, \t, \" and \\ escapes.
`

const grammarHeader = `
Directives available to you:
{{range .Syntax}}- {{.}}
{{end}}`

var roleInstructions = map[core.Kind]string{
	core.KindRootCoordinator: preamble + `
You receive the user's request. Keep {{.PersonalFile}} up to date with what the project
is and how to use it, and hand the implementation to the manager of the source folder.
When the managed work is complete and verified, FINISH with a summary for the user.
` + grammarHeader,
	core.KindDirectoryManager: preamble + `
You manage the folder {{.Dir}}. Plan its layout, CREATE the files and folders it needs
and DELEGATE each of them to its own agent with a precise task. Delegated agents work
in parallel; WAIT for their results. Keep {{.PersonalFile}} describing the folder's
contents and interfaces. You may RUN a command once per task; SPAWN a tester for
any further verification. FINISH only when every child has reported back.
` + grammarHeader,
	core.KindFileCoder: preamble + `
You implement {{.PersonalFile}}. READ whatever files you need, then CHANGE your file
with its complete new content. RUN the allowed commands to check your work, or
SPAWN a tester to investigate failures. FINISH with a short report for your manager.
` + grammarHeader,
	core.KindEphemeralTester: preamble + `
You are a short-lived tester. Use {{.PersonalFile}} as a scratch file for probes,
RUN the allowed commands and READ the files involved. FINISH with your findings;
your scratch file is deleted when you finish.
` + grammarHeader,
}

var verbSyntax = map[directive.Verb]string{
	directive.VerbRead:      `READ file "a.ts", folder "lib"`,
	directive.VerbCreate:    `CREATE file "a.ts" | CREATE folder "lib"`,
	directive.VerbDelete:    `DELETE file "old.ts" | DELETE folder "old"`,
	directive.VerbDelegate:  `DELEGATE file "a.ts" PROMPT="...", folder "lib" PROMPT="..."`,
	directive.VerbSpawn:     `SPAWN tester PROMPT="..."`,
	directive.VerbChange:    `CHANGE CONTENT="<complete new file content>"`,
	directive.VerbUpdateDoc: `UPDATE_README CONTENT="<complete new document>"`,
	directive.VerbRun:       `RUN "<allowed command>"`,
	directive.VerbWait:      `WAIT`,
	directive.VerbFinish:    `FINISH PROMPT="<report for your parent>"`,
}

var roleNames = map[core.Kind]string{
	core.KindRootCoordinator:  "the root coordinator",
	core.KindDirectoryManager: "a directory manager",
	core.KindFileCoder:        "a file coder",
	core.KindEphemeralTester:  "an ephemeral tester",
}

// Instructions renders the role instructions of a. A non-empty override
// replaces the built-in template for the agent's kind.
func Instructions(a *agent.Agent, override string) (string, error) {
	text := override
	if text == "" {
		text = roleInstructions[a.Kind()]
	}
	return internalutil.RenderTemplate(text, instructionData(a))
}

func instructionData(a *agent.Agent) map[string]any {
	p := directive.ProfileFor(a.Kind())
	syntax := make([]string, 0, len(p.Verbs()))
	for _, v := range p.Verbs() {
		s := verbSyntax[v]
		switch {
		case v == directive.VerbRead && !p.ReadFolders:
			s = `READ file "a.ts", file "b.ts"`
		case v == directive.VerbDelegate && p.DelegateForm == directive.DelegateImplicit:
			s = `DELEGATE PROMPT="..."`
		}
		syntax = append(syntax, s)
	}

	owns := "the file " + a.Path()
	switch a.Kind() {
	case core.KindRootCoordinator:
		owns = "the project root"
	case core.KindDirectoryManager:
		owns = "the folder " + a.Path()
	case core.KindEphemeralTester:
		parent, _ := a.Parent()
		owns = "nothing; you were spawned by " + core.DisplayPath(parent)
	}

	return map[string]any{
		"Role":         roleNames[a.Kind()],
		"Kind":         a.Kind().String(),
		"Path":         core.DisplayPath(a.Path()),
		"Owns":         owns,
		"PersonalFile": a.PersonalFile(),
		"Dir":          core.DisplayPath(a.Dir()),
		"Syntax":       syntax,
	}
}
