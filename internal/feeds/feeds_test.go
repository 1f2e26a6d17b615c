package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func rssBody(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>` + items + `
  </channel>
</rss>`
}

func rssItem(title, link string, published time.Time) string {
	return fmt.Sprintf(`
    <item>
      <title>%s</title>
      <link>%s</link>
      <pubDate>%s</pubDate>
    </item>`, title, link, published.Format(time.RFC1123Z))
}

func TestFetch(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, rssBody(
			rssItem("Article 1", "http://example.com/1", now.Add(-time.Hour))+
				rssItem("Article 2", "http://example.com/2", now.Add(-2*time.Hour))))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	items, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Article 1" {
		t.Errorf("expected 'Article 1', got %s", items[0].Title)
	}
	if items[0].SourceName != "Test Feed" {
		t.Errorf("expected feed title as source name, got %s", items[0].SourceName)
	}
	if items[0].URL != "http://example.com/1" {
		t.Errorf("unexpected URL: %s", items[0].URL)
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestPickLatestPrefersFresh(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(
			rssItem("Stale", "http://example.com/stale", now.Add(-200*time.Hour))+
				rssItem("Fresh A", "http://example.com/a", now.Add(-time.Hour))+
				rssItem("Fresh B", "http://example.com/b", now.Add(-2*time.Hour))+
				rssItem("Fresh C", "http://example.com/c", now.Add(-3*time.Hour))))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	items := f.PickLatest(context.Background(), []string{server.URL}, 2, 72*time.Hour)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Fresh A" || items[1].Title != "Fresh B" {
		t.Errorf("expected newest-first fresh items, got %q, %q", items[0].Title, items[1].Title)
	}
}

func TestPickLatestFallsBackWhenNothingFresh(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(
			rssItem("Old A", "http://example.com/a", now.Add(-300*time.Hour))+
				rssItem("Old B", "http://example.com/b", now.Add(-400*time.Hour))))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	items := f.PickLatest(context.Background(), []string{server.URL}, 1, 72*time.Hour)

	if len(items) != 1 {
		t.Fatalf("expected fallback to newest overall, got %d items", len(items))
	}
	if items[0].Title != "Old A" {
		t.Errorf("expected newest stale item, got %q", items[0].Title)
	}
}

func TestPickLatestSkipsFailingFeeds(t *testing.T) {
	now := time.Now()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(rssItem("Only Item", "http://example.com/1", now)))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	f := NewFetcher(5 * time.Second)
	items := f.PickLatest(context.Background(), []string{bad.URL, good.URL}, 5, 72*time.Hour)

	if len(items) != 1 {
		t.Fatalf("expected 1 item from the healthy feed, got %d", len(items))
	}
}

func TestPickAll(t *testing.T) {
	now := time.Now()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody(rssItem("Item", "http://example.com/1", now)))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	picked := f.PickAll(context.Background(), map[string][]string{
		"sales":   {server.URL},
		"edtech":  {server.URL},
		"massage": {server.URL},
	}, 2, 72*time.Hour)

	if len(picked) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(picked))
	}
	for key, items := range picked {
		if len(items) != 1 {
			t.Errorf("bucket %s: expected 1 item, got %d", key, len(items))
		}
	}
}
