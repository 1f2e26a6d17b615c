// Package ingest drives one digest run: fetch candidate items per bucket,
// extract hypotheses, gate them through threshold, dedup, and relevance,
// append survivors to the store, and republish the derived views.
//
// Collaborators are injected as interfaces so runs can be tested without
// network access. Every external failure degrades to an empty result for
// that one item; only store-write I/O is fatal.
package ingest

import (
	"context"
	"time"

	"github.com/lommaks/researchdigest/internal/brain"
	"github.com/lommaks/researchdigest/internal/config"
	"github.com/lommaks/researchdigest/internal/feeds"
	"github.com/lommaks/researchdigest/internal/logging"
	"github.com/lommaks/researchdigest/internal/relevance"
	"github.com/lommaks/researchdigest/internal/scoring"
	"github.com/lommaks/researchdigest/internal/store"
	"github.com/lommaks/researchdigest/internal/telegram"
)

// ItemSource provides candidate items per bucket key.
type ItemSource interface {
	PickAll(ctx context.Context, buckets map[string][]string, take int, freshWindow time.Duration) map[string][]feeds.Item
}

// TextSource produces article text for a URL ("" on any failure).
type TextSource interface {
	Text(ctx context.Context, pageURL string) string
}

// HypothesisSource extracts hypotheses from one article.
type HypothesisSource interface {
	Extract(ctx context.Context, title, text string) []brain.Hypothesis
}

// Publisher renders the two store views.
type Publisher interface {
	Write(clean, all []store.Record) error
}

// Notifier delivers the per-run chat digest.
type Notifier interface {
	Post(ctx context.Context, dateStr string, sections []telegram.SectionBlock) error
}

// Candidate is a constructed record plus the provider's original category
// label. The relevance gate judges the upstream label: a coerced label is
// always closed-set and would waive the keyword requirement for everything.
type Candidate struct {
	Record           store.Record
	UpstreamCategory string
}

// Result summarizes one run for logging and CLI output.
type Result struct {
	Appended int
	Clean    int
	Raw      int
}

// Pipeline wires the collaborators for a run.
type Pipeline struct {
	Store      *store.Store
	Filter     *relevance.Filter
	Weights    scoring.Weights
	Items      ItemSource
	Text       TextSource
	Hypotheses HypothesisSource
	Publisher  Publisher
	Notifier   Notifier

	Buckets       []config.Bucket
	MinPotential  float64
	TakePerBucket int
	FreshWindow   time.Duration
}

// Run executes one full ingest-and-publish cycle.
//
// A run where every external call fails still republishes the existing
// store unchanged and reports zero appended records.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	existing, err := p.Store.Load()
	if err != nil {
		return Result{}, err
	}

	deduper := NewDeduper()
	for _, rec := range existing {
		deduper.Add(Key(rec.Section, rec.Idea))
	}

	bucketFeeds := make(map[string][]string, len(p.Buckets))
	for _, b := range p.Buckets {
		bucketFeeds[b.Key] = b.Feeds
	}
	picked := p.Items.PickAll(ctx, bucketFeeds, p.TakePerBucket, p.FreshWindow)

	var candidates []Candidate
	for _, b := range p.Buckets {
		items := picked[b.Key]
		logging.Info("building section", "bucket", b.Key, "items", len(items))
		candidates = append(candidates, p.BuildSection(ctx, b.Title, items)...)
	}

	var accepted []store.Record
	for _, c := range candidates {
		rec := c.Record
		key := Key(rec.Section, rec.Idea)
		if deduper.Seen(key) {
			logging.Debug("duplicate hypothesis skipped", "section", rec.Section, "idea", rec.Idea)
			continue
		}
		deduper.Add(key)
		if !p.Filter.Relevant(rec.Idea, rec.Rationale, rec.Section, c.UpstreamCategory) {
			logging.Debug("irrelevant hypothesis skipped", "section", rec.Section, "idea", rec.Idea)
			continue
		}
		accepted = append(accepted, rec)
	}

	if err := p.Store.Append(accepted); err != nil {
		return Result{}, err
	}

	res, err := p.Publish(ctx)
	if err != nil {
		return Result{}, err
	}
	res.Appended = len(accepted)

	logging.Info("run complete", "appended", res.Appended, "clean", res.Clean, "raw", res.Raw)
	return res, nil
}

// BuildSection turns one bucket's items into candidate records.
// Failures inside an item (no text, no hypotheses) skip that item only.
func (p *Pipeline) BuildSection(ctx context.Context, title string, items []feeds.Item) []Candidate {
	today := time.Now().Format(store.DateFormat)

	var out []Candidate
	for _, it := range items {
		text := p.Text.Text(ctx, it.URL)
		hyps := p.Hypotheses.Extract(ctx, it.Title, text)
		for _, h := range hyps {
			if h.Potential < p.MinPotential {
				logging.Debug("below potential threshold", "idea", h.Idea, "potential", h.Potential)
				continue
			}
			ease := scoring.ClampRating(h.Ease)
			potential := scoring.ClampRating(h.Potential)
			out = append(out, Candidate{
				UpstreamCategory: h.Category,
				Record: store.Record{
					Date:      today,
					Section:   title,
					Source:    it.SourceName,
					Category:  string(p.Filter.Coerce(h.Category, h.Idea)),
					Idea:      h.Idea,
					Ease:      ease,
					Potential: potential,
					Score:     p.Weights.Score(ease, potential),
					Link:      it.URL,
					Rationale: h.Rationale,
				},
			})
		}
	}
	return out
}

// Publish re-reads the store, renders both views, and sends the chat
// digest. Used by Run and by the standalone publish command.
func (p *Pipeline) Publish(ctx context.Context) (Result, error) {
	raw, err := p.Store.Load()
	if err != nil {
		return Result{}, err
	}
	clean := p.CleanView(raw)

	if p.Publisher != nil {
		if err := p.Publisher.Write(clean, raw); err != nil {
			return Result{}, err
		}
	}

	if p.Notifier != nil {
		sections := make([]telegram.SectionBlock, 0, len(p.Buckets))
		for _, b := range p.Buckets {
			block := telegram.SectionBlock{Title: b.Title}
			for _, rec := range clean {
				if rec.Section == b.Title {
					block.Records = append(block.Records, rec)
				}
			}
			sections = append(sections, block)
		}
		dateStr := time.Now().Format(store.DateFormat)
		if err := p.Notifier.Post(ctx, dateStr, sections); err != nil {
			// Telegram failure never fails the run; data is already durable.
			logging.Error("telegram delivery failed", "error", err)
		}
	}

	return Result{Clean: len(clean), Raw: len(raw)}, nil
}

// CleanView returns the subset of records passing the relevance filter.
func (p *Pipeline) CleanView(records []store.Record) []store.Record {
	clean := make([]store.Record, 0, len(records))
	for _, rec := range records {
		if p.Filter.Relevant(rec.Idea, rec.Rationale, rec.Section, rec.Category) {
			clean = append(clean, rec)
		}
	}
	return clean
}

// Prune rewrites the store keeping only relevance-passing rows. This is the
// explicit maintenance path; normal runs never rewrite existing rows.
func (p *Pipeline) Prune() (kept, dropped int, err error) {
	raw, err := p.Store.Load()
	if err != nil {
		return 0, 0, err
	}
	clean := p.CleanView(raw)
	if err := p.Store.Rewrite(clean); err != nil {
		return 0, 0, err
	}
	return len(clean), len(raw) - len(clean), nil
}
