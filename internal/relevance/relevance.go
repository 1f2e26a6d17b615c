// Package relevance decides whether a hypothesis belongs in the public
// "clean" view and assigns closed-set category labels.
// All functions are pure: string in, verdict out. No side effects.
package relevance

import (
	"regexp"
	"strings"
	"unicode"
)

// Category is one of the closed set of hypothesis labels.
type Category string

const (
	CategoryAds     Category = "Ads"
	CategoryFunnel  Category = "Funnel"
	CategoryProduct Category = "Product"
)

// Categories is the closed set of valid labels.
var Categories = []Category{CategoryAds, CategoryFunnel, CategoryProduct}

// ValidCategory reports whether s is already a closed-set label.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if s == string(c) {
			return true
		}
	}
	return false
}

// mustHavePatterns are domain terms at least one of which must appear in a
// relevant hypothesis. The stored corpus is bilingual, so each term matches
// both its Latin and Cyrillic variant.
var mustHavePatterns = []string{
	`(?i)massage|массаж`,
	`(?i)school|школ`,
	`(?i)course|курс`,
	`(?i)student|студент|ученик`,
	`(?i)online|онлайн`,
	`(?i)webinar|вебинар|автовебинар`,
	`(?i)therap|терап`,
	`(?i)client|клиент`,
	`(?i)booking|запис`,
}

// rejectPatterns mark out-of-domain technical jargon. Any match rejects.
var rejectPatterns = []string{
	`(?i)\bsaas\b`,
	`(?i)\bkubernetes\b`,
	`(?i)\bmicroservice`,
	`(?i)\bapi gateway\b`,
	`(?i)\bdevops\b`,
	`(?i)\bcontainer`,
	`(?i)\bmicro-?frontend`,
	`(?i)\bk8s\b`,
}

// categoryRules map idea text to a label. First match wins; the fallback
// is CategoryProduct.
var categoryRules = []struct {
	pattern string
	label   Category
}{
	{`(?i)\bads?\b|advertis|retarget|facebook|instagram|creative|реклам|таргет|креатив`, CategoryAds},
	{`(?i)funnel|lead[- ]?magnet|email|sequence|nurtur|onboard|drip|воронк|рассылк|прогрев|лид`, CategoryFunnel},
}

// Config tunes the filter. Zero values fall back to sensible defaults.
type Config struct {
	MustHave []string `yaml:"must_have"`
	Reject   []string `yaml:"reject"`

	// Language heuristic: reject when Latin letters exceed MaxLatin while
	// target-script (Cyrillic) letters stay under MinTarget. A coarse two
	// counter check, not language identification.
	MaxLatin  int `yaml:"max_latin"`
	MinTarget int `yaml:"min_target"`
}

// DefaultConfig returns the stock pattern lists and thresholds.
func DefaultConfig() Config {
	return Config{
		MustHave:  mustHavePatterns,
		Reject:    rejectPatterns,
		MaxLatin:  120,
		MinTarget: 10,
	}
}

// Filter evaluates hypotheses against compiled pattern lists.
type Filter struct {
	mustHave  []*regexp.Regexp
	reject    []*regexp.Regexp
	category  []categoryRule
	maxLatin  int
	minTarget int
}

type categoryRule struct {
	re    *regexp.Regexp
	label Category
}

// New compiles a Filter from cfg. Patterns that fail to compile are skipped.
func New(cfg Config) *Filter {
	if len(cfg.MustHave) == 0 {
		cfg.MustHave = mustHavePatterns
	}
	if len(cfg.Reject) == 0 {
		cfg.Reject = rejectPatterns
	}
	if cfg.MaxLatin == 0 {
		cfg.MaxLatin = 120
	}
	if cfg.MinTarget == 0 {
		cfg.MinTarget = 10
	}

	f := &Filter{
		maxLatin:  cfg.MaxLatin,
		minTarget: cfg.MinTarget,
	}
	f.mustHave = compileAll(cfg.MustHave)
	f.reject = compileAll(cfg.Reject)
	for _, r := range categoryRules {
		if re, err := regexp.Compile(r.pattern); err == nil {
			f.category = append(f.category, categoryRule{re: re, label: r.label})
		}
	}
	return f
}

func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			compiled = append(compiled, re)
		}
	}
	return compiled
}

// Relevant reports whether a hypothesis belongs in the clean view.
//
// Rejects when the idea is blank, the combined text reads as predominantly
// foreign-language, or any reject pattern matches. The must-have keyword
// requirement is waived when category is already a closed-set label.
func (f *Filter) Relevant(idea, rationale, section, category string) bool {
	if strings.TrimSpace(idea) == "" {
		return false
	}

	text := strings.TrimSpace(strings.Join([]string{idea, rationale, section, category}, " "))

	if f.likelyForeign(text) {
		return false
	}
	for _, re := range f.reject {
		if re.MatchString(text) {
			return false
		}
	}
	if ValidCategory(category) {
		return true
	}
	for _, re := range f.mustHave {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// likelyForeign implements the two-counter language heuristic: long mostly
// Latin passages are rejected, short incidental foreign terms tolerated.
func (f *Filter) likelyForeign(text string) bool {
	latin, target := 0, 0
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			latin++
		case unicode.Is(unicode.Cyrillic, r):
			target++
		}
	}
	return latin > f.maxLatin && target < f.minTarget
}

// InferCategory maps free idea text to a closed-set label.
// First matching rule wins; CategoryProduct is the fallback.
func (f *Filter) InferCategory(idea string) Category {
	for _, r := range f.category {
		if r.re.MatchString(idea) {
			return r.label
		}
	}
	return CategoryProduct
}

// Coerce returns the upstream category when it is already a closed-set
// label, otherwise infers one from the idea text.
func (f *Filter) Coerce(category, idea string) Category {
	if ValidCategory(category) {
		return Category(category)
	}
	return f.InferCategory(idea)
}
