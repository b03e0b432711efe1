package markdown

import "testing"

func TestHeading(t *testing.T) {
	if got := Heading("Notes"); got != "# Notes\n\n" {
		t.Errorf("Heading = %q", got)
	}
}

func TestParse_FrontmatterTitleWins(t *testing.T) {
	d := Parse([]byte("---\ntitle: From YAML\n---\n# From Heading\nBody text.\n"))
	if d.Title != "From YAML" {
		t.Errorf("title = %q, want %q", d.Title, "From YAML")
	}
	if d.Body != "# From Heading\nBody text.\n" {
		t.Errorf("body = %q", d.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	d := Parse([]byte("intro\n# Just a heading\nSome text.\n"))
	if d.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", d.Frontmatter)
	}
	if d.Title != "Just a heading" {
		t.Errorf("title = %q", d.Title)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	d := Parse([]byte(input))
	if d.Frontmatter != nil {
		t.Error("expected nil frontmatter on invalid YAML")
	}
	if d.Body != input {
		t.Errorf("body = %q", d.Body)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	d := Parse([]byte("---\ntitle: x\nno end"))
	if d.Frontmatter != nil || d.Title != "" {
		t.Errorf("unexpected parse: %+v", d)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 50); got != "short" {
		t.Errorf("Truncate = %q", got)
	}
	if got := Truncate("привет мир", 6); got != "привет" {
		t.Errorf("Truncate = %q", got)
	}
}
