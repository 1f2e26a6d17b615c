package main

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/lommaks/researchdigest/internal/brain"
	"github.com/lommaks/researchdigest/internal/config"
	"github.com/lommaks/researchdigest/internal/extract"
	"github.com/lommaks/researchdigest/internal/feeds"
	"github.com/lommaks/researchdigest/internal/ingest"
	"github.com/lommaks/researchdigest/internal/logging"
	"github.com/lommaks/researchdigest/internal/relevance"
	"github.com/lommaks/researchdigest/internal/site"
	"github.com/lommaks/researchdigest/internal/store"
	"github.com/lommaks/researchdigest/internal/telegram"
)

// loadConfig loads the config file or fatals.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal("failed to load config", "path", path, "error", err)
	}
	return cfg
}

// newPipeline assembles the ingest pipeline from config. The returned
// cleanup func closes the article cache when one is open.
func newPipeline(cfg *config.Config) (*ingest.Pipeline, func()) {
	filter := relevance.New(cfg.Relevance)
	weights := cfg.Thresholds.ScoreWeights
	st := store.New(cfg.StorePath, weights, filter)

	fetchTimeout := time.Duration(cfg.Ingest.FetchTimeoutSec) * time.Second

	var text ingest.TextSource = extract.NewExtractor(fetchTimeout, cfg.Ingest.MaxArticleChars)
	cleanup := func() {}
	if cfg.CachePath != "" {
		ttl := time.Duration(cfg.Ingest.CacheTTLHours) * time.Hour
		cache, err := extract.OpenCache(cfg.CachePath, text.(*extract.Extractor), ttl)
		if err != nil {
			logging.Warn("article cache unavailable, extracting without it", "error", err)
		} else {
			text = cache
			cleanup = func() { cache.Close() }
		}
	}

	var limiter *rate.Limiter
	if rpm := cfg.OpenAI.RequestsPerMinute; rpm > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
	provider := brain.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model)

	return &ingest.Pipeline{
		Store:         st,
		Filter:        filter,
		Weights:       weights,
		Items:         feeds.NewFetcher(fetchTimeout),
		Text:          text,
		Hypotheses:    brain.NewExtractor(provider, limiter, cfg.Prompt),
		Publisher:     site.NewRenderer(cfg.DocsDir, weights),
		Notifier:      telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.SiteURL),
		Buckets:       cfg.Buckets,
		MinPotential:  cfg.Thresholds.MinPotential,
		TakePerBucket: cfg.Ingest.TakePerBucket,
		FreshWindow:   time.Duration(cfg.Ingest.FreshHours) * time.Hour,
	}, cleanup
}
