package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobsentinel/jobsentinel/internal/analysis"
	"github.com/jobsentinel/jobsentinel/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// Extractor implements analysis.Provider on top of a Gemini generator.
type Extractor struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

func NewExtractor(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Extractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// ExtractSkills asks the model for a structured profile of the CV text.
func (e *Extractor) ExtractSkills(ctx context.Context, cvText string) (*analysis.Profile, error) {
	cvText = strings.TrimSpace(cvText)
	if cvText == "" {
		return nil, fmt.Errorf("cv text is required")
	}

	prompt := buildPrompt(cvText)

	e.logger.Debug("gemini extract skills request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini extract skills response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	profile, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	profile.Raw = raw
	return profile, nil
}

func buildPrompt(cvText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "CV text:\n{{CV_TEXT}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{CV_TEXT}}", cvText)
}

func parseResponse(raw string) (*analysis.Profile, error) {
	cleaned := extractJSON(strings.TrimSpace(raw))

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &analysis.Profile{
		Skills:  coerceStringSlice(data["skills"]),
		Fields:  coerceStringSlice(data["fields"]),
		Summary: coerceString(data["summary"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.ToLower(coerceString(item))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
