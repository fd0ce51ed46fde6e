package directive

import (
	"fmt"
	"strings"
)

// Render produces the canonical text of d. Parse(Render(d)) yields a
// directive equal to d for every kind.
func Render(d Directive) string {
	var b strings.Builder
	b.WriteString(string(d.Verb()))

	switch v := d.(type) {
	case Read:
		for i, t := range v.Targets {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			b.WriteString(renderTarget(t))
		}
	case Create:
		b.WriteString(" " + renderTarget(v.Target))
	case Delete:
		b.WriteString(" " + renderTarget(v.Target))
	case Delegate:
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte(' ')
			if !it.Implicit() {
				b.WriteString(renderTarget(it.Target) + " ")
			}
			b.WriteString("PROMPT=" + quote(it.Prompt))
		}
	case Spawn:
		b.WriteString(" tester PROMPT=" + quote(v.Prompt))
	case Change:
		if v.File != "" {
			b.WriteString(" file " + quote(v.File))
		}
		b.WriteString(" CONTENT=" + quote(v.Content))
	case UpdateDoc:
		b.WriteString(" CONTENT=" + quote(v.Content))
	case Run:
		b.WriteString(" " + quote(v.Command))
	case Wait:
	case Finish:
		if v.Prompt != "" {
			b.WriteString(" PROMPT=" + quote(v.Prompt))
		}
	default:
		panic(fmt.Sprintf("directive: cannot render %T", d))
	}
	return b.String()
}

func renderTarget(t Target) string {
	return t.Kind.String() + " " + quote(t.Name)
}

// Summary is a one-line description of d for logs and transcripts; long
// payloads are elided.
func Summary(d Directive) string {
	switch v := d.(type) {
	case Change:
		return fmt.Sprintf("CHANGE (%d bytes)", len(v.Content))
	case UpdateDoc:
		return fmt.Sprintf("UPDATE_README (%d bytes)", len(v.Content))
	default:
		s := Render(d)
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[:i] + " ..."
		}
		if len(s) > 160 {
			s = s[:157] + "..."
		}
		return s
	}
}
