// Package config holds the digest configuration.
//
// Components never look configuration up ambiently: main loads one Config
// and hands each component the values it needs at construction.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lommaks/researchdigest/internal/brain"
	"github.com/lommaks/researchdigest/internal/relevance"
	"github.com/lommaks/researchdigest/internal/scoring"
)

// Bucket is one topical grouping of feeds.
type Bucket struct {
	Key   string   `yaml:"key"`   // stable identifier: "sales", "edtech", "massage"
	Title string   `yaml:"title"` // section label stored with each record
	Feeds []string `yaml:"feeds"`
}

// OpenAIConfig holds LLM provider settings.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
	Model  string `yaml:"model,omitempty"`
	// RequestsPerMinute paces provider calls across the run. 0 disables.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// TelegramConfig holds chat delivery settings.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
}

// Thresholds gate which hypotheses reach the store.
type Thresholds struct {
	MinPotential float64         `yaml:"min_potential"`
	ScoreWeights scoring.Weights `yaml:"score_weights"`
}

// IngestConfig tunes the fetch/extract half of the pipeline.
type IngestConfig struct {
	TakePerBucket   int `yaml:"take_per_bucket"`
	FreshHours      int `yaml:"fresh_hours"`
	MaxArticleChars int `yaml:"max_article_chars"`
	FetchTimeoutSec int `yaml:"fetch_timeout_sec"`
	CacheTTLHours   int `yaml:"cache_ttl_hours"`
}

// Config is the whole digest configuration.
type Config struct {
	StorePath string `yaml:"store_path"`
	DocsDir   string `yaml:"docs_dir"`
	CachePath string `yaml:"cache_path,omitempty"` // empty disables the article cache
	SiteURL   string `yaml:"site_url"`

	OpenAI     OpenAIConfig       `yaml:"openai"`
	Telegram   TelegramConfig     `yaml:"telegram"`
	Thresholds Thresholds         `yaml:"thresholds"`
	Ingest     IngestConfig       `yaml:"ingest"`
	Relevance  relevance.Config   `yaml:"relevance"`
	Prompt     brain.PromptConfig `yaml:"prompt"`
	Buckets    []Bucket           `yaml:"buckets"`
}

// DefaultConfig returns the stock pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		StorePath: "hypotheses.csv",
		DocsDir:   "docs",
		CachePath: "articles.db",
		SiteURL:   "",
		OpenAI: OpenAIConfig{
			Model:             "gpt-4.1-mini",
			RequestsPerMinute: 30,
		},
		Thresholds: Thresholds{
			MinPotential: 6,
			ScoreWeights: scoring.DefaultWeights(),
		},
		Ingest: IngestConfig{
			TakePerBucket:   2,
			FreshHours:      72,
			MaxArticleChars: 8000,
			FetchTimeoutSec: 15,
			CacheTTLHours:   24 * 7,
		},
		Relevance: relevance.DefaultConfig(),
		Prompt:    brain.DefaultPromptConfig(),
		Buckets: []Bucket{
			{
				Key:   "sales",
				Title: "Sales & Marketing",
				Feeds: []string{
					"https://blog.hubspot.com/sales/rss.xml",
					"https://thesalesblog.com/blog/rss.xml",
					"https://www.rainsalestraining.com/blog/rss.xml",
					"https://clickfunnels.com/blog/feed",
					"https://cxl.com/blog/feed/",
				},
			},
			{
				Key:   "edtech",
				Title: "EdTech",
				Feeds: []string{
					"https://feeds.feedburner.com/elearningindustry",
					"https://feeds.feedburner.com/theelearningcoach",
					"https://sellcoursesonline.com/feed",
					"https://www.shiftelearning.com/blog/rss.xml",
					"https://elearninguncovered.com/feed",
				},
			},
			{
				Key:   "massage",
				Title: "Massage",
				Feeds: []string{
					"https://discovermassage.com.au/feed",
					"https://www.massagetherapyfoundation.org/feed/",
					"https://www.academyofclinicalmassage.com/feed/",
					"https://realbodywork.com/feed",
					"https://themtdc.com/feed",
				},
			},
		},
	}
}

// Load reads config from path, layered over defaults. A missing file is not
// an error: defaults plus environment variables are enough to run.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.AutoPopulateFromEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// AutoPopulateFromEnv fills in credentials from environment variables.
// Env values win over file values so CI secrets never live on disk.
func (c *Config) AutoPopulateFromEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.OpenAI.APIKey = key
	}
	if token := os.Getenv("TG_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}
	if chat := os.Getenv("TG_CHAT_ID"); chat != "" {
		c.Telegram.ChatID = chat
	}
}
