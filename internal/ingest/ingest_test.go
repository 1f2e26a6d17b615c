package ingest

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/lommaks/researchdigest/internal/brain"
	"github.com/lommaks/researchdigest/internal/config"
	"github.com/lommaks/researchdigest/internal/feeds"
	"github.com/lommaks/researchdigest/internal/relevance"
	"github.com/lommaks/researchdigest/internal/scoring"
	"github.com/lommaks/researchdigest/internal/store"
	"github.com/lommaks/researchdigest/internal/telegram"
)

// fakeItems serves canned items per bucket key.
type fakeItems struct {
	items map[string][]feeds.Item
}

func (f *fakeItems) PickAll(ctx context.Context, buckets map[string][]string, take int, fresh time.Duration) map[string][]feeds.Item {
	return f.items
}

// fakeText returns a fixed article body.
type fakeText struct{ text string }

func (f *fakeText) Text(ctx context.Context, pageURL string) string { return f.text }

// fakeHyps returns canned hypotheses for every article.
type fakeHyps struct {
	hyps  []brain.Hypothesis
	calls int
}

func (f *fakeHyps) Extract(ctx context.Context, title, text string) []brain.Hypothesis {
	f.calls++
	return f.hyps
}

// capturePublisher records what was rendered.
type capturePublisher struct {
	clean []store.Record
	all   []store.Record
	calls int
}

func (c *capturePublisher) Write(clean, all []store.Record) error {
	c.clean, c.all = clean, all
	c.calls++
	return nil
}

// captureNotifier records the sections posted.
type captureNotifier struct {
	sections []telegram.SectionBlock
	calls    int
}

func (c *captureNotifier) Post(ctx context.Context, dateStr string, sections []telegram.SectionBlock) error {
	c.sections = sections
	c.calls++
	return nil
}

func newTestPipeline(t *testing.T, hyps *fakeHyps, items map[string][]feeds.Item) (*Pipeline, *capturePublisher, *captureNotifier) {
	t.Helper()
	weights := scoring.DefaultWeights()
	filter := relevance.New(relevance.DefaultConfig())
	st := store.New(filepath.Join(t.TempDir(), "hypotheses.csv"), weights, filter)
	pub := &capturePublisher{}
	not := &captureNotifier{}
	return &Pipeline{
		Store:      st,
		Filter:     filter,
		Weights:    weights,
		Items:      &fakeItems{items: items},
		Text:       &fakeText{text: "article body"},
		Hypotheses: hyps,
		Publisher:  pub,
		Notifier:   not,
		Buckets: []config.Bucket{
			{Key: "massage", Title: "Massage", Feeds: []string{"https://example.com/feed"}},
			{Key: "sales", Title: "Growth", Feeds: []string{"https://example.com/sales"}},
		},
		MinPotential:  6,
		TakePerBucket: 2,
		FreshWindow:   72 * time.Hour,
	}, pub, not
}

func oneItem() map[string][]feeds.Item {
	return map[string][]feeds.Item{
		"massage": {{Title: "Article", URL: "https://example.com/a", SourceName: "BlogX", Published: time.Now()}},
	}
}

func TestRunScenario(t *testing.T) {
	hyps := &fakeHyps{hyps: []brain.Hypothesis{
		{Idea: "Offer a free intro massage webinar", Category: "Funnel", Ease: 8, Potential: 7, Rationale: "low cost, high interest"},
	}}
	p, pub, not := newTestPipeline(t, hyps, oneItem())

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if res.Appended != 1 {
		t.Errorf("expected 1 appended record, got %d", res.Appended)
	}
	if res.Clean != 1 || res.Raw != 1 {
		t.Errorf("expected clean=1 raw=1, got %+v", res)
	}

	loaded, err := p.Store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(loaded))
	}
	rec := loaded[0]
	want := 0.6*7 + 0.4*8
	if math.Abs(rec.Score-want) > 1e-9 {
		t.Errorf("expected score %v, got %v", want, rec.Score)
	}
	if rec.Section != "Massage" || rec.Source != "BlogX" || rec.Category != "Funnel" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.Link != "https://example.com/a" {
		t.Errorf("unexpected link: %q", rec.Link)
	}

	if pub.calls != 1 || len(pub.clean) != 1 {
		t.Errorf("publisher should render the clean view, got %d calls / %d rows", pub.calls, len(pub.clean))
	}
	if not.calls != 1 {
		t.Errorf("notifier should be invoked once, got %d", not.calls)
	}
	if len(not.sections) != 2 || len(not.sections[0].Records) != 1 || len(not.sections[1].Records) != 0 {
		t.Errorf("notifier should receive the grouped clean view: %+v", not.sections)
	}
}

func TestRunIdempotentReappendGuard(t *testing.T) {
	hyps := &fakeHyps{hyps: []brain.Hypothesis{
		{Idea: "Offer a free intro massage webinar", Category: "Funnel", Ease: 8, Potential: 7},
	}}
	p, _, _ := newTestPipeline(t, hyps, oneItem())

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if res.Appended != 0 {
		t.Errorf("second run should append nothing, got %d", res.Appended)
	}
	loaded, _ := p.Store.Load()
	if len(loaded) != 1 {
		t.Errorf("store should still hold 1 record, got %d", len(loaded))
	}
}

func TestRunSameRunDuplicatesCollapse(t *testing.T) {
	h := brain.Hypothesis{Idea: "Offer a free intro massage webinar", Category: "Funnel", Ease: 8, Potential: 7}
	hyps := &fakeHyps{hyps: []brain.Hypothesis{h, h}}
	p, _, _ := newTestPipeline(t, hyps, oneItem())

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Appended != 1 {
		t.Errorf("duplicate candidates in one run should collapse, got %d", res.Appended)
	}
}

func TestRunThresholdFiltering(t *testing.T) {
	hyps := &fakeHyps{hyps: []brain.Hypothesis{
		{Idea: "Massage webinar idea below threshold", Category: "Funnel", Ease: 9, Potential: 4},
	}}
	p, _, _ := newTestPipeline(t, hyps, oneItem())

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Appended != 0 {
		t.Errorf("potential below minimum should be discarded, got %d appended", res.Appended)
	}
}

func TestRunIrrelevantRecordsGated(t *testing.T) {
	hyps := &fakeHyps{hyps: []brain.Hypothesis{
		// No domain keyword anywhere in idea/section/category, and the
		// upstream label is not closed-set, so the keyword rule applies.
		{Idea: "Сделать рассылку новостей компании", Category: "Misc", Ease: 8, Potential: 8},
	}}
	p, _, _ := newTestPipeline(t, hyps, map[string][]feeds.Item{
		"sales": {{Title: "Article", URL: "https://example.com/s", SourceName: "BlogY", Published: time.Now()}},
	})

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Appended != 0 {
		t.Errorf("irrelevant record should be gated, got %d appended", res.Appended)
	}
}

func TestRunAllExternalFailures(t *testing.T) {
	// Pre-seed the store, then run with empty item lists everywhere.
	hyps := &fakeHyps{}
	p, pub, _ := newTestPipeline(t, hyps, map[string][]feeds.Item{})

	seed := store.Record{Date: "01.09.2026", Section: "Massage", Source: "X", Category: "Funnel", Idea: "Запустить вебинар по массажу", Ease: 8, Potential: 7, Score: 7.4}
	if err := p.Store.Append([]store.Record{seed}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Appended != 0 {
		t.Errorf("expected 0 appended, got %d", res.Appended)
	}
	if res.Raw != 1 || res.Clean != 1 {
		t.Errorf("existing store should republish unchanged: %+v", res)
	}
	if pub.calls != 1 {
		t.Errorf("publisher should still run, got %d calls", pub.calls)
	}
}

func TestBuildSectionCoercesCategory(t *testing.T) {
	hyps := &fakeHyps{hyps: []brain.Hypothesis{
		{Idea: "Run a retargeting ad campaign for massage courses", Category: "Маркетинг", Ease: 7, Potential: 8},
	}}
	p, _, _ := newTestPipeline(t, hyps, nil)

	candidates := p.BuildSection(context.Background(), "Massage", []feeds.Item{
		{Title: "A", URL: "https://example.com/a", SourceName: "BlogX"},
	})

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Record.Category != "Ads" {
		t.Errorf("invalid upstream category should be inferred, got %q", candidates[0].Record.Category)
	}
	if candidates[0].UpstreamCategory != "Маркетинг" {
		t.Errorf("upstream label should be preserved for gating, got %q", candidates[0].UpstreamCategory)
	}
}

func TestPrune(t *testing.T) {
	hyps := &fakeHyps{}
	p, _, _ := newTestPipeline(t, hyps, nil)

	keep := store.Record{Date: "01.09.2026", Section: "Massage", Source: "X", Category: "Funnel", Idea: "Вебинар по массажу", Ease: 8, Potential: 7, Score: 7.4}
	drop := store.Record{Date: "01.09.2026", Section: "Sales", Source: "Y", Category: "Misc", Idea: "Ничего общего с темой", Ease: 2, Potential: 2, Score: 2}
	if err := p.Store.Append([]store.Record{keep, drop}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	kept, dropped, err := p.Prune()
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if kept != 1 || dropped != 1 {
		t.Errorf("expected kept=1 dropped=1, got %d/%d", kept, dropped)
	}

	loaded, _ := p.Store.Load()
	if len(loaded) != 1 || loaded[0].Idea != keep.Idea {
		t.Errorf("wrong rows survived prune: %+v", loaded)
	}
}

func TestDeduperKey(t *testing.T) {
	if Key("Massage", "Idea") != Key("  massage ", " idea") {
		t.Error("key should normalize case and whitespace")
	}
	if Key("Massage", "a") == Key("Sales", "a") {
		t.Error("different sections must produce different keys")
	}

	d := NewDeduper()
	k := Key("Massage", "Idea")
	if d.Seen(k) {
		t.Error("fresh deduper should not contain the key")
	}
	d.Add(k)
	if !d.Seen(k) {
		t.Error("added key should be seen")
	}
	if d.Len() != 1 {
		t.Errorf("expected 1 key, got %d", d.Len())
	}
}
