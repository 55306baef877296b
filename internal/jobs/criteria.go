package jobs

import (
	"fmt"
	"strings"
)

const (
	// MinLimit and MaxLimit bound the number of postings requested per criterion.
	MinLimit = 1
	MaxLimit = 100
)

// Criteria describes a single job search request against the remote source.
type Criteria struct {
	Title       string `mapstructure:"title" json:"title"`
	Location    string `mapstructure:"location" json:"location"`
	SalaryFloor int    `mapstructure:"salary-floor" json:"salary_floor,omitempty"`
	Limit       int    `mapstructure:"limit" json:"limit"`
}

// Validate checks the criterion before any stage runs.
func (c Criteria) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("search title is required")
	}
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("search location is required")
	}
	if c.Limit < MinLimit || c.Limit > MaxLimit {
		return fmt.Errorf("search limit must be between %d and %d, got %d", MinLimit, MaxLimit, c.Limit)
	}
	if c.SalaryFloor < 0 {
		return fmt.Errorf("salary floor must not be negative")
	}
	return nil
}

// Label returns a short human-readable description used in logs and warnings.
func (c Criteria) Label() string {
	return fmt.Sprintf("%s @ %s", c.Title, c.Location)
}
