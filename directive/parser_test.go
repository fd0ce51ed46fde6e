package directive

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agenttree/core"
)

func TestParse_Examples(t *testing.T) {
	manager := ProfileFor(core.KindDirectoryManager)
	root := ProfileFor(core.KindRootCoordinator)
	coder := ProfileFor(core.KindFileCoder)

	tests := []struct {
		name    string
		profile Profile
		input   string
		want    Directive
	}{
		{
			name:    "read mixed targets",
			profile: manager,
			input:   `READ file "a.ts", folder "lib"`,
			want:    Read{Targets: []Target{{TargetFile, "a.ts"}, {TargetFolder, "lib"}}},
		},
		{
			name:    "lower-case keywords",
			profile: manager,
			input:   `create folder "src"`,
			want:    Create{Target: Target{TargetFolder, "src"}},
		},
		{
			name:    "multi delegate",
			profile: manager,
			input:   "DELEGATE file \"calc.ts\" PROMPT=\"implement add\",\n  folder \"b\" PROMPT=\"scaffold\"",
			want: Delegate{Items: []DelegateItem{
				{Target: Target{TargetFile, "calc.ts"}, Prompt: "implement add"},
				{Target: Target{TargetFolder, "b"}, Prompt: "scaffold"},
			}},
		},
		{
			name:    "implicit delegate",
			profile: root,
			input:   `DELEGATE PROMPT="build a calculator"`,
			want:    Delegate{Items: []DelegateItem{{Prompt: "build a calculator"}}},
		},
		{
			name:    "spawn without kind word",
			profile: coder,
			input:   `SPAWN PROMPT="why does add fail"`,
			want:    Spawn{Prompt: "why does add fail"},
		},
		{
			name:    "change with multi-line content",
			profile: coder,
			input:   "CHANGE CONTENT=\"export const add = (a, b) => a + b;\nexport const q = \\\"x\\\";\n\"",
			want:    Change{Content: "export const add = (a, b) => a + b;\nexport const q = \"x\";\n"},
		},
		{
			name:    "change with explicit target",
			profile: coder,
			input:   `CHANGE file "calc.ts" CONTENT="x"`,
			want:    Change{File: "calc.ts", Content: "x"},
		},
		{
			name:    "update doc alias",
			profile: manager,
			input:   `UPDATE_DOC CONTENT="# src"`,
			want:    UpdateDoc{Content: "# src"},
		},
		{
			name:    "run",
			profile: coder,
			input:   `RUN "npm test"`,
			want:    Run{Command: "npm test"},
		},
		{
			name:    "wait",
			profile: manager,
			input:   "  WAIT \n",
			want:    Wait{},
		},
		{
			name:    "finish without prompt",
			profile: coder,
			input:   "FINISH",
			want:    Finish{},
		},
		{
			name:    "fenced response",
			profile: coder,
			input:   "```\nFINISH PROMPT=\"done\"\n```",
			want:    Finish{Prompt: "done"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input, tt.profile)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	manager := ProfileFor(core.KindDirectoryManager)
	coder := ProfileFor(core.KindFileCoder)
	tester := ProfileFor(core.KindEphemeralTester)
	root := ProfileFor(core.KindRootCoordinator)

	tests := []struct {
		name    string
		profile Profile
		input   string
		msg     string
	}{
		{"empty", manager, "   \n", "no directive"},
		{"two directives", manager, "READ file \"a\"\nWAIT", "more than one directive"},
		{"trailing junk", manager, `WAIT "x"`, "unexpected"},
		{"unknown verb", manager, `EXPLODE file "a"`, "unknown directive"},
		{"bad escape", coder, `CHANGE CONTENT="\q"`, "invalid escape"},
		{"short hex escape", coder, `CHANGE CONTENT="\x4"`, "two hex digits"},
		{"unterminated", coder, `CHANGE CONTENT="abc`, "unterminated string"},
		{"missing equals", coder, `FINISH PROMPT "x"`, "expected '='"},
		{"empty name", manager, `CREATE file ""`, "empty file name"},
		{"coder cannot delegate", coder, `DELEGATE file "a" PROMPT="x"`, "not available"},
		{"coder cannot read folders", coder, `READ folder "lib"`, "only READ files"},
		{"tester cannot spawn", tester, `SPAWN PROMPT="x"`, "not available"},
		{"manager must name targets", manager, `DELEGATE PROMPT="x"`, "must name"},
		{"root delegates once", root, `DELEGATE file "a" PROMPT="x", file "b" PROMPT="y"`, "exactly one"},
		{"root cannot create", root, `CREATE folder "x"`, "not available"},
		{"change folder target", coder, `CHANGE folder "x" CONTENT="y"`, "file target"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, tt.profile)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrParse), "want parse error, got %v", err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := ParseAny("READ file \"a\",\n  bogus \"b\"")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2, column 3")
}

func TestRender_RoundTrip(t *testing.T) {
	all := []Directive{
		Read{Targets: []Target{{TargetFile, "a b.ts"}, {TargetFolder, "lib"}}},
		Create{Target: Target{TargetFile, "x.ts"}},
		Delete{Target: Target{TargetFolder, "old"}},
		Delegate{Items: []DelegateItem{{Prompt: "only child"}}},
		Delegate{Items: []DelegateItem{
			{Target: Target{TargetFile, "a.ts"}, Prompt: `say "hi"`},
			{Target: Target{TargetFolder, "b"}, Prompt: "line1\nline2"},
		}},
		Spawn{Prompt: "debug"},
		Change{Content: "a\\b\r\n\t\"c\""},
		Change{Content: "bin\xff\xfe\x00ok é"},
		Change{File: "calc.ts", Content: ""},
		UpdateDoc{Content: "# Title\n\nbody"},
		Run{Command: "go test ./..."},
		Wait{},
		Finish{},
		Finish{Prompt: "all done"},
	}

	for _, d := range all {
		text := Render(d)
		got, err := ParseAny(text)
		require.NoError(t, err, "rendered: %s", text)
		if diff := cmp.Diff(d, got); diff != "" {
			t.Errorf("round trip of %s mismatch (-want +got):\n%s", text, diff)
		}
	}
}

func TestRender_InvalidUTF8IsEscaped(t *testing.T) {
	text := Render(Change{Content: "a\xffb"})
	assert.Equal(t, `CHANGE CONTENT="a\xffb"`, text)

	d, err := ParseAny(`CHANGE CONTENT="\x41\x4a"`)
	require.NoError(t, err)
	assert.Equal(t, Change{Content: "AJ"}, d)
}

func TestRender_Canonical(t *testing.T) {
	assert.Equal(t, `DELEGATE PROMPT="go"`, Render(Delegate{Items: []DelegateItem{{Prompt: "go"}}}))
	assert.Equal(t, `READ file "a", folder "b"`, Render(Read{Targets: []Target{{TargetFile, "a"}, {TargetFolder, "b"}}}))
	assert.Equal(t, "FINISH", Render(Finish{}))
	assert.Equal(t, `SPAWN tester PROMPT="p"`, Render(Spawn{Prompt: "p"}))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "CHANGE (3 bytes)", Summary(Change{Content: "abc"}))
	assert.Equal(t, `RUN "make"`, Summary(Run{Command: "make"}))
	assert.Equal(t, `FINISH PROMPT="a ...`, Summary(Finish{Prompt: "a\nb"}))
}

func TestProfiles(t *testing.T) {
	assert.True(t, ProfileFor(core.KindFileCoder).Allows(VerbChange))
	assert.False(t, ProfileFor(core.KindFileCoder).Allows(VerbWait))
	assert.False(t, ProfileFor(core.KindDirectoryManager).Allows(VerbChange))
	assert.Equal(t, []Verb{VerbRead, VerbChange, VerbRun, VerbFinish}, ProfileFor(core.KindEphemeralTester).Verbs())
}
