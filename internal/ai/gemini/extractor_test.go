package gemini

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/profile"
)

const extractorResponse = `{
  "name": "Jo Smith",
  "email": "jo@example.com",
  "skills": ["Go", "Kubernetes", "PostgreSQL"],
  "experience": [
    {"title": "Backend Engineer", "employer": "Acme", "duration": "2019-2023"}
  ],
  "education": ["BSc Computer Science"],
  "summary": "Backend engineer with platform experience."
}`

func TestExtractorParsesProfile(t *testing.T) {
	stub := &stubGenerator{response: extractorResponse}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	doc := &profile.Document{Path: "cv.json", Content: []byte("raw cv text")}
	p, err := extractor.Extract(context.Background(), correlation.New(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "Jo Smith" || p.Email != "jo@example.com" {
		t.Fatalf("unexpected identity: %+v", p)
	}
	if len(p.Skills) != 3 || p.Skills[0] != "Go" {
		t.Fatalf("unexpected skills: %v", p.Skills)
	}
	if len(p.Experience) != 1 || p.Experience[0].Employer != "Acme" {
		t.Fatalf("unexpected experience: %+v", p.Experience)
	}

	if !strings.Contains(stub.lastPrompt, "raw cv text") {
		t.Fatal("prompt must embed the cv document")
	}
}

func TestExtractorRejectsEmptyDocument(t *testing.T) {
	extractor := NewExtractor(&stubGenerator{}, zap.NewNop(), 0)

	if _, err := extractor.Extract(context.Background(), correlation.New(), nil); err == nil {
		t.Fatal("expected error for nil document")
	}
	if _, err := extractor.Extract(context.Background(), correlation.New(), &profile.Document{}); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestExtractorRejectsProfileWithoutSkills(t *testing.T) {
	stub := &stubGenerator{response: `{"name": "Jo", "email": "jo@example.com", "skills": [], "experience": [{"title": "Dev"}]}`}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	doc := &profile.Document{Content: []byte("cv")}
	if _, err := extractor.Extract(context.Background(), correlation.New(), doc); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestExtractorStripsCodeFences(t *testing.T) {
	stub := &stubGenerator{response: "```json\n" + extractorResponse + "\n```"}
	extractor := NewExtractor(stub, zap.NewNop(), 0)

	doc := &profile.Document{Content: []byte("cv")}
	p, err := extractor.Extract(context.Background(), correlation.New(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Jo Smith" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}
