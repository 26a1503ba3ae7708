// Package feeds retrieves RSS and Atom items from configured sources and
// converts them to status candidates. It does not store anything.
package feeds

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/runnerr0/nooze/internal/config"
)

const userAgent = "nooze/0.3 (+https://github.com/runnerr0/nooze)"

// Item is one feed entry in status shape.
type Item struct {
	ID        string
	Source    string
	Author    string
	Text      string
	Link      string
	Published time.Time
}

// Fetcher retrieves items from feed sources.
type Fetcher struct {
	client *http.Client
	now    func() time.Time
}

// NewFetcher creates a Fetcher whose HTTP client gives up after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return NewFetcherWithClient(&http.Client{Timeout: timeout})
}

// NewFetcherWithClient creates a Fetcher on an existing client.
func NewFetcherWithClient(client *http.Client) *Fetcher {
	return &Fetcher{client: client, now: time.Now}
}

// Fetch downloads and parses src. Items come back in feed order.
func (f *Fetcher) Fetch(ctx context.Context, src config.FeedSource) ([]Item, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: HTTP %d", src.Name, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.Name, err)
	}

	now := f.now().UTC()
	items := make([]Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, convert(entry, src, now))
	}
	return items, nil
}

func convert(entry *gofeed.Item, src config.FeedSource, fetched time.Time) Item {
	published := fetched
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	} else if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.UTC()
	}

	return Item{
		ID:        itemID(entry),
		Source:    src.URL,
		Author:    src.Name,
		Text:      itemText(entry),
		Link:      entry.Link,
		Published: published,
	}
}

// itemID is stable across fetches: the GUID, else the link, else the title
// and publish time, hashed.
func itemID(entry *gofeed.Item) string {
	key := entry.GUID
	if key == "" {
		key = entry.Link
	}
	if key == "" {
		key = entry.Title
		if entry.PublishedParsed != nil {
			key += entry.PublishedParsed.String()
		}
	}
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:8])
}

// itemText joins the title and the plain-text summary.
func itemText(entry *gofeed.Item) string {
	title := strings.TrimSpace(entry.Title)
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}
	summary = PlainText(summary)

	switch {
	case summary == "" || summary == title:
		return title
	case title == "":
		return summary
	default:
		return title + ". " + summary
	}
}

// PlainText strips markup from s and collapses whitespace.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.Contains(s, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
