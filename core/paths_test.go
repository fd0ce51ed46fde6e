package core

import "testing"

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":           "",
		".":          "",
		"/":          "",
		"./src":      "src",
		"src/":       "src",
		"src//a.ts":  "src/a.ts",
		"src\\a.ts":  "src/a.ts",
		"/src/b/../": "src",
	}
	for in, want := range cases {
		if got := CleanPath(in); got != want {
			t.Errorf("CleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParentAndBase(t *testing.T) {
	if got := ParentPath("src/calc.ts"); got != "src" {
		t.Fatalf("parent = %q", got)
	}
	if got := ParentPath("src"); got != "" {
		t.Fatalf("parent of top-level = %q", got)
	}
	if got := ParentPath(""); got != "" {
		t.Fatalf("parent of root = %q", got)
	}
	if got := BasePath("src/lib/x.ts"); got != "x.ts" {
		t.Fatalf("base = %q", got)
	}
}

func TestIsDirectChild(t *testing.T) {
	if !IsDirectChild("src", "src/calc.ts") {
		t.Error("expected direct child")
	}
	if IsDirectChild("src", "src/lib/calc.ts") {
		t.Error("grandchild accepted")
	}
	if IsDirectChild("src/lib", "src") {
		t.Error("ancestor accepted")
	}
	if IsDirectChild("src", "test/a.ts") {
		t.Error("sibling subtree accepted")
	}
	if !IsDirectChild("", "src") {
		t.Error("top-level entry should be a child of the root")
	}
}

func TestWithin(t *testing.T) {
	for _, ok := range []string{"a.ts", "src/../b.ts", "src/lib/c.ts"} {
		if !Within(ok) {
			t.Errorf("Within(%q) = false", ok)
		}
	}
	for _, bad := range []string{"../x", "/etc/passwd", "src/../../x"} {
		if Within(bad) {
			t.Errorf("Within(%q) = true", bad)
		}
	}
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindRootCoordinator, KindDirectoryManager, KindFileCoder, KindEphemeralTester} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("janitor"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
