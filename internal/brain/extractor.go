package brain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/lommaks/researchdigest/internal/logging"
	"github.com/lommaks/researchdigest/internal/scoring"
)

// Hypothesis is one candidate idea extracted from an article.
// Fields are coerced from untrusted provider output; the category label is
// re-validated downstream against the closed set.
type Hypothesis struct {
	Idea      string
	Category  string
	Ease      float64
	Potential float64
	Rationale string
}

// PromptConfig tunes the consultant system prompt.
type PromptConfig struct {
	BusinessContext  string `yaml:"business_context"`
	MaxBudgetUSD     int    `yaml:"max_budget_usd"`
	MaxDurationWeeks int    `yaml:"max_duration_weeks"`
}

// DefaultPromptConfig returns the stock business constraints.
func DefaultPromptConfig() PromptConfig {
	return PromptConfig{
		BusinessContext:  "an online massage school selling courses and webinars",
		MaxBudgetUSD:     2000,
		MaxDurationWeeks: 2,
	}
}

// Extractor asks a Provider for hypotheses and validates the answer.
type Extractor struct {
	provider Provider
	limiter  *rate.Limiter
	prompt   string
}

// NewExtractor creates an Extractor. The limiter paces provider calls
// across the whole run; pass nil to disable pacing.
func NewExtractor(provider Provider, limiter *rate.Limiter, cfg PromptConfig) *Extractor {
	return &Extractor{
		provider: provider,
		limiter:  limiter,
		prompt:   buildPrompt(cfg),
	}
}

func buildPrompt(cfg PromptConfig) string {
	return fmt.Sprintf(`You are a growth consultant for %s.
Every hypothesis must apply to this business specifically; if an idea does not, omit it entirely.
Constraints: no development team, test budget <= $%d, test duration <= %d weeks.
Categories: "Ads", "Funnel", "Product".
Return a CLEAN JSON array of objects:
[{"idea":"short, specific to the business","category":"Ads|Funnel|Product","ease":7,"potential":9,"rationale":"why this lowers CPL or raises LTV/margin"}]
Return the JSON array only, no prose.`,
		cfg.BusinessContext, cfg.MaxBudgetUSD, cfg.MaxDurationWeeks)
}

// Extract sends one article's title and text and returns the validated
// hypotheses. Provider failures and unparseable output degrade to an empty
// slice; an article never aborts the run.
func (e *Extractor) Extract(ctx context.Context, title, text string) []Hypothesis {
	if e.provider == nil || !e.provider.Available() {
		return nil
	}
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			logging.Warn("rate limiter wait aborted", "error", err)
			return nil
		}
	}

	resp, err := e.provider.Generate(ctx, Request{
		SystemPrompt: e.prompt,
		UserPrompt:   fmt.Sprintf("Title: %s\nText: %s", title, text),
	})
	if err != nil {
		logging.Warn("hypothesis extraction failed", "title", title, "error", err)
		return nil
	}

	hyps := parseHypotheses(resp.Content)
	if hyps == nil {
		logging.Warn("unparseable hypothesis output", "title", title, "model", resp.Model)
	}
	return hyps
}

// parseHypotheses parses a JSON array of hypotheses from model output,
// tolerating markdown code fences and surrounding prose by slicing to the
// outermost bracket pair. Returns nil when no array can be recovered.
func parseHypotheses(content string) []Hypothesis {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var raw []struct {
		Idea      string          `json:"idea"`
		Category  string          `json:"category"`
		Ease      json.RawMessage `json:"ease"`
		Potential json.RawMessage `json:"potential"`
		Rationale string          `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil
	}

	hyps := make([]Hypothesis, 0, len(raw))
	for _, r := range raw {
		hyps = append(hyps, Hypothesis{
			Idea:      strings.TrimSpace(r.Idea),
			Category:  strings.TrimSpace(r.Category),
			Ease:      coerceNumber(r.Ease),
			Potential: coerceNumber(r.Potential),
			Rationale: strings.TrimSpace(r.Rationale),
		})
	}
	return hyps
}

// coerceNumber accepts a JSON number or a numeric string; anything else is 0.
func coerceNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return scoring.ClampRating(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return scoring.CoerceRating(s)
	}
	return 0
}
