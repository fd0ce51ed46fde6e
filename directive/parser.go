package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/agenttree/core"
)

// Parse turns a reasoning-service response into exactly one Directive legal
// for profile p. Empty responses, responses holding more than one top-level
// directive, malformed syntax and verbs outside the profile all yield a
// *core.Error with code core.CodeParse. Sub-items of a single READ or
// DELEGATE do not count as separate directives.
func Parse(text string, p Profile) (Directive, error) {
	d, err := parse(text)
	if err != nil {
		return nil, err
	}
	if err := check(d, p); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseAny parses text without applying a profile.
func ParseAny(text string) (Directive, error) {
	return parse(text)
}

func parse(text string) (Directive, error) {
	toks, err := lex(stripFence(text))
	if err != nil {
		return nil, wrapSyntax(err)
	}
	if toks[0].kind == tokEOF {
		return nil, core.ParseError("response contains no directive")
	}
	ps := &parser{toks: toks}
	d, err := ps.directive()
	if err != nil {
		return nil, wrapSyntax(err)
	}
	if tok := ps.peek(); tok.kind != tokEOF {
		if tok.kind == tokWord {
			if v, ok := lookupVerb(tok.text); ok {
				return nil, core.ParseError("line %d, column %d: response contains more than one directive (%s after %s)",
					tok.line, tok.col, v, d.Verb())
			}
		}
		return nil, core.ParseError("line %d, column %d: unexpected %s after %s directive", tok.line, tok.col, tok, d.Verb())
	}
	return d, nil
}

func wrapSyntax(err error) error {
	var se *syntaxError
	if errors.As(err, &se) {
		return core.ParseError("%s", se.Error())
	}
	return err
}

func lookupVerb(word string) (Verb, bool) {
	v, ok := verbAliases[strings.ToUpper(word)]
	return v, ok
}

type parser struct {
	toks []token
	pos  int
}

func (ps *parser) peek() token { return ps.toks[ps.pos] }

func (ps *parser) take() token {
	tok := ps.toks[ps.pos]
	if tok.kind != tokEOF {
		ps.pos++
	}
	return tok
}

func (ps *parser) errorf(tok token, format string, args ...any) error {
	return &syntaxError{line: tok.line, col: tok.col, msg: fmt.Sprintf(format, args...)}
}

func (ps *parser) isWord(word string) bool {
	tok := ps.peek()
	return tok.kind == tokWord && strings.EqualFold(tok.text, word)
}

func (ps *parser) expectString(what string) (string, error) {
	tok := ps.take()
	if tok.kind != tokString {
		return "", ps.errorf(tok, "expected quoted %s, found %s", what, tok)
	}
	return tok.text, nil
}

// field parses NAME="value".
func (ps *parser) field(name string) (string, error) {
	tok := ps.take()
	if tok.kind != tokWord || !strings.EqualFold(tok.text, name) {
		return "", ps.errorf(tok, "expected %s=, found %s", name, tok)
	}
	if eq := ps.take(); eq.kind != tokEquals {
		return "", ps.errorf(eq, "expected '=' after %s, found %s", name, eq)
	}
	return ps.expectString(strings.ToLower(name))
}

func (ps *parser) target() (Target, error) {
	tok := ps.take()
	if tok.kind != tokWord {
		return Target{}, ps.errorf(tok, "expected file or folder, found %s", tok)
	}
	var kind TargetKind
	switch strings.ToLower(tok.text) {
	case "file":
		kind = TargetFile
	case "folder":
		kind = TargetFolder
	default:
		return Target{}, ps.errorf(tok, "expected file or folder, found %s", tok)
	}
	nameTok := ps.peek()
	name, err := ps.expectString(kind.String() + " name")
	if err != nil {
		return Target{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Target{}, ps.errorf(nameTok, "empty %s name", kind)
	}
	return Target{Kind: kind, Name: name}, nil
}

func (ps *parser) directive() (Directive, error) {
	tok := ps.take()
	if tok.kind != tokWord {
		return nil, ps.errorf(tok, "expected a directive verb, found %s", tok)
	}
	verb, ok := lookupVerb(tok.text)
	if !ok {
		return nil, ps.errorf(tok, "unknown directive %q", tok.text)
	}

	switch verb {
	case VerbRead:
		var targets []Target
		for {
			t, err := ps.target()
			if err != nil {
				return nil, err
			}
			targets = append(targets, t)
			if ps.peek().kind != tokComma {
				return Read{Targets: targets}, nil
			}
			ps.take()
		}

	case VerbCreate, VerbDelete:
		t, err := ps.target()
		if err != nil {
			return nil, err
		}
		if verb == VerbCreate {
			return Create{Target: t}, nil
		}
		return Delete{Target: t}, nil

	case VerbDelegate:
		if ps.isWord("PROMPT") {
			prompt, err := ps.field("PROMPT")
			if err != nil {
				return nil, err
			}
			return Delegate{Items: []DelegateItem{{Prompt: prompt}}}, nil
		}
		var items []DelegateItem
		for {
			t, err := ps.target()
			if err != nil {
				return nil, err
			}
			prompt, err := ps.field("PROMPT")
			if err != nil {
				return nil, err
			}
			items = append(items, DelegateItem{Target: t, Prompt: prompt})
			if ps.peek().kind != tokComma {
				return Delegate{Items: items}, nil
			}
			ps.take()
		}

	case VerbSpawn:
		if ps.isWord("tester") {
			ps.take()
		}
		prompt, err := ps.field("PROMPT")
		if err != nil {
			return nil, err
		}
		return Spawn{Prompt: prompt}, nil

	case VerbChange:
		var file string
		if ps.peek().kind == tokWord && !ps.isWord("CONTENT") {
			t, err := ps.target()
			if err != nil {
				return nil, err
			}
			if t.Kind != TargetFile {
				return nil, ps.errorf(tok, "CHANGE only accepts a file target")
			}
			file = t.Name
		}
		content, err := ps.field("CONTENT")
		if err != nil {
			return nil, err
		}
		return Change{File: file, Content: content}, nil

	case VerbUpdateDoc:
		content, err := ps.field("CONTENT")
		if err != nil {
			return nil, err
		}
		return UpdateDoc{Content: content}, nil

	case VerbRun:
		command, err := ps.expectString("command")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(command) == "" {
			return nil, ps.errorf(tok, "empty command")
		}
		return Run{Command: command}, nil

	case VerbWait:
		return Wait{}, nil

	case VerbFinish:
		if !ps.isWord("PROMPT") {
			return Finish{}, nil
		}
		prompt, err := ps.field("PROMPT")
		if err != nil {
			return nil, err
		}
		return Finish{Prompt: prompt}, nil
	}

	return nil, ps.errorf(tok, "unhandled directive %s", verb)
}

// check enforces the profile-specific subset on a syntactically valid directive.
func check(d Directive, p Profile) error {
	if !p.Allows(d.Verb()) {
		return core.ParseError("%s is not available to a %s", d.Verb(), p.Kind)
	}
	switch v := d.(type) {
	case Read:
		if !p.ReadFolders {
			for _, t := range v.Targets {
				if t.Kind == TargetFolder {
					return core.ParseError("a %s may only READ files (got folder %q)", p.Kind, t.Name)
				}
			}
		}
	case Delegate:
		switch p.DelegateForm {
		case DelegateImplicit:
			if len(v.Items) != 1 {
				return core.ParseError("a %s delegates to exactly one child", p.Kind)
			}
		case DelegateMulti:
			for _, it := range v.Items {
				if it.Implicit() {
					return core.ParseError("a %s must name each DELEGATE target", p.Kind)
				}
			}
		}
	}
	return nil
}
