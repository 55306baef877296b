package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/profile"
	"github.com/spigell/job-pilot/internal/util"
)

//go:embed extract_prompt.md
var extractPromptTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Extractor turns a raw CV document into a structured profile using Gemini.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Extractor) Extract(ctx context.Context, corr correlation.Context, doc *profile.Document) (*profile.Profile, error) {
	if doc == nil || len(doc.Content) == 0 {
		return nil, fmt.Errorf("cv document is required")
	}

	prompt := strings.ReplaceAll(extractPromptTemplate, "{{CV_DOCUMENT}}", string(doc.Content))

	e.logger.Debug("gemini extract request",
		corr.Field(),
		zap.String("cv_path", doc.Path),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("extract profile: %w", err)
	}

	e.logger.Debug("gemini extract response",
		corr.Field(),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, e.maxLogLen)),
	)

	p, err := parseProfile(raw)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("extracted profile is unusable: %w", err)
	}

	return p, nil
}

func parseProfile(raw string) (*profile.Profile, error) {
	cleaned := extractJSON(raw)

	var data struct {
		Name       string   `json:"name"`
		Email      string   `json:"email"`
		Skills     []string `json:"skills"`
		Experience []struct {
			Title    string `json:"title"`
			Employer string `json:"employer"`
			Duration string `json:"duration"`
		} `json:"experience"`
		Education      []string `json:"education"`
		Certifications []string `json:"certifications"`
		Summary        string   `json:"summary"`
	}

	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini profile response: %w", err)
	}

	p := &profile.Profile{
		Name:           strings.TrimSpace(data.Name),
		Email:          strings.TrimSpace(data.Email),
		Skills:         data.Skills,
		Education:      data.Education,
		Certifications: data.Certifications,
		Summary:        strings.TrimSpace(data.Summary),
	}

	for _, exp := range data.Experience {
		p.Experience = append(p.Experience, profile.Experience{
			Title:    strings.TrimSpace(exp.Title),
			Employer: strings.TrimSpace(exp.Employer),
			Duration: strings.TrimSpace(exp.Duration),
		})
	}

	return p, nil
}
