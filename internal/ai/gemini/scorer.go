package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/profile"
	"github.com/spigell/job-pilot/internal/util"
)

//go:embed score_prompt.md
var scorePromptTemplate string

const defaultMaxLogLength = 200

// Scorer judges posting relevance with Gemini. The minimum score threshold
// flips the selected flag even when the model claims a fit.
type Scorer struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

func NewScorer(generator contentGenerator, logger *zap.Logger, minScore float64, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if minScore < 0 {
		minScore = 0
	}

	return &Scorer{
		generator: generator,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *Scorer) Score(ctx context.Context, corr correlation.Context, p *profile.Profile, posting *jobs.Posting) (*jobs.Decision, error) {
	if p == nil {
		return nil, fmt.Errorf("candidate profile is required")
	}
	if posting == nil {
		return nil, fmt.Errorf("posting is required")
	}

	prompt, err := buildScorePrompt(p, posting)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini score request",
		corr.Field(),
		zap.String("job_id", posting.ID),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini score response",
		corr.Field(),
		zap.String("job_id", posting.ID),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, s.maxLogLen)),
	)

	decision, err := parseDecision(raw, posting)
	if err != nil {
		return nil, err
	}

	if s.minScore > 0 && decision.Score < s.minScore && decision.Selected {
		s.logger.Debug("deselecting posting by score threshold",
			corr.Field(),
			zap.String("job_id", posting.ID),
			zap.Float64("score", decision.Score),
			zap.Float64("threshold", s.minScore),
		)
		decision.Selected = false
	}

	return decision, nil
}

func buildScorePrompt(p *profile.Profile, posting *jobs.Posting) (string, error) {
	profileJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal profile payload: %w", err)
	}

	postingJSON, err := json.MarshalIndent(posting, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal posting payload: %w", err)
	}

	prompt := strings.ReplaceAll(scorePromptTemplate, "{{PROFILE_JSON}}", string(profileJSON))
	prompt = strings.ReplaceAll(prompt, "{{POSTING_JSON}}", string(postingJSON))
	return prompt, nil
}

func parseDecision(raw string, posting *jobs.Posting) (*jobs.Decision, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini score response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		score = 0
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return &jobs.Decision{
		Posting:  posting,
		Score:    score,
		Selected: coerceBool(data["fit"]),
		Reason:   coerceString(data["reason"]),
	}, nil
}
