// Package telegram delivers the per-run digest message to a chat.
//
// Delivery is best effort: an unconfigured notifier silently no-ops and a
// failed send is logged, never fatal. The store and site are already
// written by the time this runs.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lommaks/researchdigest/internal/logging"
	"github.com/lommaks/researchdigest/internal/store"
)

const apiBase = "https://api.telegram.org"

// SectionBlock is one bucket's worth of records, in display order.
type SectionBlock struct {
	Title   string
	Records []store.Record
}

// Notifier posts digest messages to a Telegram chat.
type Notifier struct {
	token   string
	chatID  string
	siteURL string
	apiBase string
	client  *http.Client
}

// NewNotifier creates a Notifier. Empty token or chat ID disables delivery.
func NewNotifier(token, chatID, siteURL string) *Notifier {
	return &Notifier{
		token:   token,
		chatID:  chatID,
		siteURL: siteURL,
		apiBase: apiBase,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether delivery is enabled.
func (n *Notifier) Configured() bool {
	return n.token != "" && n.chatID != ""
}

// Post sends the grouped digest for dateStr. Empty sections are skipped;
// a digest with no content at all sends nothing.
func (n *Notifier) Post(ctx context.Context, dateStr string, sections []SectionBlock) error {
	if !n.Configured() {
		logging.Debug("telegram not configured, skipping notification")
		return nil
	}

	text := FormatMessage(dateStr, sections, n.siteURL)
	if text == "" {
		logging.Info("nothing to notify, skipping telegram message")
		return nil
	}

	payload := map[string]interface{}{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// FormatMessage builds the HTML digest body. Returns "" when every section
// is empty.
func FormatMessage(dateStr string, sections []SectionBlock, siteURL string) string {
	var blocks []string
	for _, sec := range sections {
		if len(sec.Records) == 0 {
			continue
		}
		lines := make([]string, 0, len(sec.Records))
		for _, rec := range sec.Records {
			lines = append(lines, fmt.Sprintf(
				"• %s\n<i>Category: %s · Ease: %s/10 · Potential: %s/10</i>\n<code>%s</code>",
				html.EscapeString(rec.Idea),
				html.EscapeString(rec.Category),
				formatRating(rec.Ease),
				formatRating(rec.Potential),
				html.EscapeString(rec.Source),
			))
		}
		blocks = append(blocks, fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(sec.Title), strings.Join(lines, "\n\n")))
	}
	if len(blocks) == 0 {
		return ""
	}

	parts := []string{fmt.Sprintf("<b>Daily research — %s</b>", html.EscapeString(dateStr))}
	parts = append(parts, blocks...)
	if siteURL != "" {
		parts = append(parts, fmt.Sprintf("\n🔗 Full table: %s", siteURL))
	}
	return strings.Join(parts, "\n\n")
}

func formatRating(v float64) string {
	if v == float64(int(v)) {
		return fmt.Sprintf("%d", int(v))
	}
	return fmt.Sprintf("%.1f", v)
}
