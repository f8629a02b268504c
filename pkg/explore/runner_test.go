package explore

import (
	"context"
	"testing"

	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/internal/store/memstore"
)

func TestRunnerExcludesTrackedKeywords(t *testing.T) {
	db := memstore.New()
	kw := &store.TrackedKeyword{UserID: "u1", Keyword: "FantasyBooks"}
	if err := db.CreateKeyword(context.Background(), kw); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{name: "test", candidates: map[string][]Candidate{
		"booktok": {
			{Keyword: "fantasybooks", Videos: 20, TotalViews: 50000, AvgEngagement: 8, Relation: "hashtag"},
			{Keyword: "bookclub", Videos: 10, TotalViews: 20000, AvgEngagement: 4, Relation: "hashtag"},
		},
	}}
	runner := NewRunner(NewEngine([]CandidateSource{src}, nil, 5), db)

	res, err := runner.Run(context.Background(), Request{
		Seed: "booktok", Depth: 1, ExcludeKnown: true, UserID: "u1",
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// Tracked keyword matching is case-insensitive.
	if len(res.Discoveries) != 1 || res.Discoveries[0].Keyword != "bookclub" {
		t.Errorf("discoveries = %+v, want only bookclub", res.Discoveries)
	}
}

func TestRunnerPersistsAuditRecord(t *testing.T) {
	db := memstore.New()
	src := &fakeSource{name: "test", candidates: map[string][]Candidate{
		"booktok": {{Keyword: "bookclub", Videos: 10, TotalViews: 20000, AvgEngagement: 4, Relation: "hashtag"}},
	}}
	runner := NewRunner(NewEngine([]CandidateSource{src}, nil, 5), db)

	if _, err := runner.Run(context.Background(), Request{
		Seed: "booktok", Depth: 1, Strategy: StrategyNovelty, UserID: "u1",
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	recs := db.Explorations()
	if len(recs) != 1 {
		t.Fatalf("got %d audit records, want 1", len(recs))
	}
	rec := recs[0]
	if rec.Seed != "booktok" || rec.Strategy != "novelty" || rec.UserID != "u1" {
		t.Errorf("audit record = %+v", rec)
	}
	if rec.ResultJSON == "" {
		t.Error("audit record missing serialized result")
	}
}

func TestRunnerRejectsBadRequest(t *testing.T) {
	runner := NewRunner(NewEngine(nil, nil, 5), memstore.New())
	if _, err := runner.Run(context.Background(), Request{Seed: "x", Depth: 1}); err == nil {
		t.Error("one-character seed should be rejected")
	}
}
