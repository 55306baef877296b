package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.json")
	if err := os.WriteFile(path, []byte(`{"name":"Jo","skills":["Go"]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := LoadDocument(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Path == "" || len(doc.Content) == 0 {
		t.Fatalf("document not populated: %+v", doc)
	}
}

func TestLoadDocumentErrors(t *testing.T) {
	if _, err := LoadDocument(""); err == nil {
		t.Fatal("expected error for empty path")
	}

	if _, err := LoadDocument(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDocument(empty); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestProfileValidate(t *testing.T) {
	valid := func() *Profile {
		return &Profile{
			Name:       "Jo Smith",
			Email:      "jo@example.com",
			Skills:     []string{"Go"},
			Experience: []Experience{{Title: "Backend Engineer"}},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"missing name", func(p *Profile) { p.Name = " " }},
		{"missing email", func(p *Profile) { p.Email = "" }},
		{"missing skills", func(p *Profile) { p.Skills = nil }},
		{"missing experience", func(p *Profile) { p.Experience = nil }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := valid()
			tc.mutate(p)
			if err := p.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestSkillsLine(t *testing.T) {
	p := &Profile{Skills: []string{"Go", "Python", "SQL", "Docker"}}
	if got := p.SkillsLine(2); got != "Go, Python..." {
		t.Fatalf("unexpected skills line: %q", got)
	}
	if got := p.SkillsLine(0); got != "Go, Python, SQL, Docker" {
		t.Fatalf("unexpected full skills line: %q", got)
	}
}
