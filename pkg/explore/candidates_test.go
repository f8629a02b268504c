package explore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yihengz/trendscope/pkg/video"
)

type stubProvider struct {
	videos []video.Video
	err    error
}

func (s stubProvider) Search(ctx context.Context, keyword string, limit int) ([]video.Video, error) {
	return s.videos, s.err
}

func TestHashtagSourceAccumulates(t *testing.T) {
	src := NewHashtagSource(stubProvider{videos: []video.Video{
		{ID: "v1", Plays: 1000, Likes: 100, Hashtags: []string{"#BookTok", "#fantasybooks", "#fyp"}},
		{ID: "v2", Plays: 3000, Likes: 60, Hashtags: []string{"#fantasybooks", "#bookclub"}},
	}}, 30)

	cands, err := src.Candidates(context.Background(), "booktok")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}

	// The keyword itself and generic tags never become candidates.
	byKw := make(map[string]Candidate)
	for _, c := range cands {
		byKw[c.Keyword] = c
	}
	if _, ok := byKw["booktok"]; ok {
		t.Error("keyword itself surfaced as a candidate")
	}
	if _, ok := byKw["fyp"]; ok {
		t.Error("generic tag surfaced as a candidate")
	}

	fb, ok := byKw["fantasybooks"]
	if !ok {
		t.Fatalf("fantasybooks missing: %+v", cands)
	}
	if fb.Videos != 2 || fb.TotalViews != 4000 {
		t.Errorf("fantasybooks signals = %+v", fb)
	}
	// Rates 10% and 2%, mean 6%.
	if fb.AvgEngagement != 6 {
		t.Errorf("AvgEngagement = %v, want 6", fb.AvgEngagement)
	}
	if fb.Relation != "hashtag" {
		t.Errorf("relation = %q", fb.Relation)
	}
}

func TestHashtagSourcePropagatesError(t *testing.T) {
	src := NewHashtagSource(stubProvider{err: errors.New("quota exceeded")}, 30)
	if _, err := src.Candidates(context.Background(), "booktok"); err == nil {
		t.Error("provider error should propagate")
	}
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Trends</title>
<item><title>Booktok fans push fantasy romance sales</title><category>Books</category></item>
<item><title>New booktok drama over the series finale</title></item>
<item><title>Unrelated gadget review</title><category>Tech</category></item>
</channel></rss>`

func TestFeedSourceTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "trendscope/1.0" {
			t.Errorf("user agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	src := NewFeedSource([]Feed{{Name: "test", URL: srv.URL}})
	cands, err := src.Candidates(context.Background(), "booktok")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}

	byKw := make(map[string]Candidate)
	for _, c := range cands {
		byKw[c.Keyword] = c
	}
	// Tokens from matching titles only; the gadget item never matched.
	for _, want := range []string{"fantasy", "romance", "books"} {
		if _, ok := byKw[want]; !ok {
			t.Errorf("missing candidate %q in %+v", want, cands)
		}
	}
	if _, ok := byKw["gadget"]; ok {
		t.Error("token from non-matching item surfaced")
	}
	if _, ok := byKw["booktok"]; ok {
		t.Error("keyword itself surfaced as a candidate")
	}
	// Stopwords and short words are dropped.
	if _, ok := byKw["the"]; ok {
		t.Error("stopword surfaced")
	}
	// Feed candidates carry no reach signal.
	if c := byKw["fantasy"]; c.TotalViews != 0 || c.Relation != "feed" {
		t.Errorf("fantasy = %+v", c)
	}
}

func TestFeedSourceSurvivesDownFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	src := NewFeedSource([]Feed{{Name: "down", URL: srv.URL}})
	cands, err := src.Candidates(context.Background(), "booktok")
	if err != nil {
		t.Fatalf("one down feed should not fail the source: %v", err)
	}
	if len(cands) != 0 {
		t.Errorf("candidates = %+v, want none", cands)
	}
}

func TestSignificantTokens(t *testing.T) {
	got := significantTokens("how the new booktok trend is changing book sales!")
	want := map[string]bool{"booktok": true, "trend": true, "changing": true, "book": true, "sales": true}
	for _, tok := range got {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
		delete(want, tok)
	}
	for tok := range want {
		t.Errorf("missing token %q", tok)
	}
}
