package explore

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"

	"github.com/yihengz/trendscope/pkg/trend"
	"github.com/yihengz/trendscope/pkg/video"
)

// HashtagSource derives candidates from hashtag co-occurrence: it searches
// the video provider for the keyword and treats every non-generic hashtag on
// the returned videos as a related-keyword candidate, with reach and
// engagement signals accumulated per tag.
type HashtagSource struct {
	provider  video.Provider
	fetchSize int
}

// NewHashtagSource creates a hashtag co-occurrence source.
func NewHashtagSource(provider video.Provider, fetchSize int) *HashtagSource {
	if fetchSize <= 0 {
		fetchSize = 30
	}
	return &HashtagSource{provider: provider, fetchSize: fetchSize}
}

func (h *HashtagSource) Name() string { return "hashtag" }

func (h *HashtagSource) Candidates(ctx context.Context, keyword string) ([]Candidate, error) {
	videos, err := h.provider.Search(ctx, keyword, h.fetchSize)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}

	type acc struct {
		videos        int
		views         int64
		engagementSum float64
	}
	stats := make(map[string]*acc)
	var order []string

	for _, v := range videos {
		rate := v.EngagementRate()
		for _, raw := range v.Hashtags {
			tag := trend.NormalizeTag(raw)
			if tag == "" || tag == strings.ToLower(keyword) || trend.IsGenericTag(tag) {
				continue
			}
			a, ok := stats[tag]
			if !ok {
				a = &acc{}
				stats[tag] = a
				order = append(order, tag)
			}
			a.videos++
			a.views += v.Plays
			a.engagementSum += rate
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, tag := range order {
		a := stats[tag]
		out = append(out, Candidate{
			Keyword:       tag,
			Videos:        a.videos,
			TotalViews:    a.views,
			AvgEngagement: a.engagementSum / float64(a.videos),
			Relation:      "hashtag",
		})
	}
	return out, nil
}

// Feed is a named RSS/Atom trend feed.
type Feed struct {
	Name string
	URL  string
}

// FeedSource derives candidates from RSS/Atom trend feeds: tokens and
// categories co-occurring with the keyword in feed item titles. Feed
// candidates carry no reach signal, so they rank as novel rather than
// popular.
type FeedSource struct {
	client *http.Client
	parser *gofeed.Parser
	feeds  []Feed
}

// NewFeedSource creates an RSS trend-feed source.
func NewFeedSource(feeds []Feed) *FeedSource {
	return &FeedSource{
		client: &http.Client{Timeout: 30 * time.Second},
		parser: gofeed.NewParser(),
		feeds:  feeds,
	}
}

func (f *FeedSource) Name() string { return "feed" }

func (f *FeedSource) Candidates(ctx context.Context, keyword string) ([]Candidate, error) {
	keyword = strings.ToLower(keyword)
	counts := make(map[string]int)
	var order []string

	for _, feed := range f.feeds {
		parsed, err := f.fetchFeed(ctx, feed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  feed %s error: %v\n", feed.Name, err)
			continue
		}
		for _, item := range parsed.Items {
			title := strings.ToLower(item.Title)
			if !strings.Contains(title, keyword) {
				continue
			}
			for _, tok := range significantTokens(title) {
				if tok == keyword || trend.IsGenericTag(tok) {
					continue
				}
				if counts[tok] == 0 {
					order = append(order, tok)
				}
				counts[tok]++
			}
			for _, cat := range item.Categories {
				cat = strings.ToLower(strings.TrimSpace(cat))
				if cat == "" || cat == keyword {
					continue
				}
				if counts[cat] == 0 {
					order = append(order, cat)
				}
				counts[cat]++
			}
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, kw := range order {
		out = append(out, Candidate{Keyword: kw, Relation: "feed"})
	}
	return out, nil
}

func (f *FeedSource) fetchFeed(ctx context.Context, feed Feed) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create feed request %s: %w", feed.Name, err)
	}
	req.Header.Set("User-Agent", "trendscope/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s: status %d", feed.Name, resp.StatusCode)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}
	return parsed, nil
}

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "with": true, "by": true, "from": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"this": true, "that": true, "these": true, "those": true,
	"it": true, "its": true, "how": true, "what": true, "when": true,
	"where": true, "why": true, "not": true, "no": true, "new": true,
	"just": true, "about": true, "up": true, "out": true, "if": true,
	"so": true, "can": true, "all": true, "more": true, "than": true,
}

// significantTokens extracts meaningful lowercase words from a title.
func significantTokens(title string) []string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []string
	for _, w := range words {
		if len(w) >= 3 && !stopwords[w] {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
