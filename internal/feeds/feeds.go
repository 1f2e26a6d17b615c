// Package feeds retrieves candidate source items from RSS/Atom feeds.
//
// Each topical bucket polls a handful of feeds, keeps the freshest items
// inside a configurable window, and hands the top N to the ingest pipeline.
// A feed that fails to fetch or parse is logged and skipped; it never
// aborts the run.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/lommaks/researchdigest/internal/logging"
)

// userAgent identifies the bot to feed servers.
const userAgent = "Mozilla/5.0 (DailyDigestBot)"

// Item is one candidate source item from a feed.
type Item struct {
	Title      string
	URL        string
	SourceName string
	Published  time.Time
}

// Fetcher retrieves items from feed URLs.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves all items from one feed URL.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	sourceName := feed.Title
	if sourceName == "" {
		sourceName = url
	}

	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		title := entry.Title
		if title == "" {
			title = "(untitled)"
		}
		var published time.Time
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}
		items = append(items, Item{
			Title:      title,
			URL:        entry.Link,
			SourceName: sourceName,
			Published:  published,
		})
	}
	return items, nil
}

// PickLatest fetches every feed in urls and returns the freshest take items.
//
// Items published inside the freshness window are preferred; when nothing is
// fresh, the newest items overall are used instead so a quiet week still
// produces a digest. Failed feeds are skipped.
func (f *Fetcher) PickLatest(ctx context.Context, urls []string, take int, freshWindow time.Duration) []Item {
	var all []Item
	for _, url := range urls {
		items, err := f.Fetch(ctx, url)
		if err != nil {
			logging.Warn("feed fetch failed", "url", url, "error", err)
			continue
		}
		all = append(all, items...)
	}

	cutoff := time.Now().Add(-freshWindow)
	fresh := make([]Item, 0, len(all))
	for _, it := range all {
		if it.Published.After(cutoff) {
			fresh = append(fresh, it)
		}
	}
	if len(fresh) == 0 {
		fresh = all
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].Published.After(fresh[j].Published)
	})
	if len(fresh) > take {
		fresh = fresh[:take]
	}
	return fresh
}

// maxConcurrentBuckets caps parallel bucket fetches.
const maxConcurrentBuckets = 3

// PickAll fetches every bucket's feed list concurrently and returns the
// picked items keyed by bucket key. Bucket fetches are independent; the cap
// only bounds outbound connections.
func (f *Fetcher) PickAll(ctx context.Context, buckets map[string][]string, take int, freshWindow time.Duration) map[string][]Item {
	var mu sync.Mutex
	picked := make(map[string][]Item, len(buckets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBuckets)
	for key, urls := range buckets {
		g.Go(func() error {
			items := f.PickLatest(gctx, urls, take, freshWindow)
			mu.Lock()
			picked[key] = items
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures degrade to empty buckets.
	_ = g.Wait()
	return picked
}
