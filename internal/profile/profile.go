package profile

import (
	"fmt"
	"strings"
)

// Experience is a single work history entry.
type Experience struct {
	Title    string `json:"title"`
	Employer string `json:"employer,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// Profile is the structured candidate profile produced by the Analyze stage.
// It is treated as immutable once extracted.
type Profile struct {
	Name           string       `json:"name,omitempty"`
	Email          string       `json:"email,omitempty"`
	Skills         []string     `json:"skills"`
	Experience     []Experience `json:"experience"`
	Education      []string     `json:"education,omitempty"`
	Certifications []string     `json:"certifications,omitempty"`
	Summary        string       `json:"summary,omitempty"`
}

// Validate checks that the extracted profile is usable for matching and
// submission. Name, email, skills and at least one work history entry are
// all required downstream: identity and contact go into every application,
// skills and experience drive the relevance scoring.
func (p *Profile) Validate() error {
	if p == nil {
		return fmt.Errorf("profile is nil")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile has no name")
	}
	if strings.TrimSpace(p.Email) == "" {
		return fmt.Errorf("profile has no email")
	}
	if len(p.Skills) == 0 {
		return fmt.Errorf("profile has no skills")
	}
	if len(p.Experience) == 0 {
		return fmt.Errorf("profile has no work experience")
	}
	return nil
}

// SkillsLine returns a comma-separated preview of the first few skills,
// suitable for log output.
func (p *Profile) SkillsLine(max int) string {
	if p == nil || len(p.Skills) == 0 {
		return ""
	}
	if max <= 0 || max > len(p.Skills) {
		max = len(p.Skills)
	}
	line := strings.Join(p.Skills[:max], ", ")
	if max < len(p.Skills) {
		line += "..."
	}
	return line
}
