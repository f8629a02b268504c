package explore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeSource serves canned candidates per keyword and can be set to fail.
type fakeSource struct {
	name       string
	candidates map[string][]Candidate
	err        error
	calls      []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Candidates(ctx context.Context, keyword string) ([]Candidate, error) {
	f.calls = append(f.calls, keyword)
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates[keyword], nil
}

// chainSource generates "<kw>-a" .. deterministically for every keyword, so
// exploration can always go deeper.
type chainSource struct{ perKeyword int }

func (c *chainSource) Name() string { return "chain" }

func (c *chainSource) Candidates(ctx context.Context, keyword string) ([]Candidate, error) {
	out := make([]Candidate, c.perKeyword)
	for i := range out {
		out[i] = Candidate{
			Keyword:       fmt.Sprintf("%s-%c", keyword, 'a'+i),
			Videos:        10,
			TotalViews:    int64(1000 * (i + 1)),
			AvgEngagement: 5,
			Relation:      "hashtag",
		}
	}
	return out, nil
}

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{Seed: "booktok", Depth: 2}, false},
		{"trims whitespace", Request{Seed: "  booktok  ", Depth: 1}, false},
		{"too short", Request{Seed: "b", Depth: 1}, true},
		{"too long", Request{Seed: strings.Repeat("x", 51), Depth: 1}, true},
		{"whitespace only", Request{Seed: "   ", Depth: 1}, true},
		{"depth zero", Request{Seed: "booktok", Depth: 0}, true},
		{"depth four", Request{Seed: "booktok", Depth: 4}, true},
		{"bad strategy", Request{Seed: "booktok", Depth: 1, Strategy: "aggressive"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestValidateDefaults(t *testing.T) {
	req := Request{Seed: "booktok", Depth: 1}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Strategy != StrategyBalanced {
		t.Errorf("default strategy = %q, want balanced", req.Strategy)
	}
	if req.MaxResults != MaxResultsFull {
		t.Errorf("default max results = %d, want %d", req.MaxResults, MaxResultsFull)
	}

	req = Request{Seed: "booktok", Depth: 1, MaxResults: 500}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.MaxResults != MaxResultsFull {
		t.Errorf("oversized max results not capped: %d", req.MaxResults)
	}
}

func TestExploreDepthOne(t *testing.T) {
	src := &fakeSource{name: "test", candidates: map[string][]Candidate{
		"booktok": {
			{Keyword: "fantasybooks", Videos: 20, TotalViews: 50000, AvgEngagement: 8, Relation: "hashtag"},
			{Keyword: "bookclub", Videos: 10, TotalViews: 20000, AvgEngagement: 4, Relation: "hashtag"},
		},
	}}
	engine := NewEngine([]CandidateSource{src}, nil, 5)

	res, err := engine.Explore(context.Background(), Request{Seed: "BookTok", Depth: 1}, nil)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}

	if res.Seed != "booktok" {
		t.Errorf("seed = %q, want lowercased", res.Seed)
	}
	if len(res.Discoveries) != 2 {
		t.Fatalf("got %d discoveries, want 2", len(res.Discoveries))
	}
	for _, d := range res.Discoveries {
		if d.Depth != 1 {
			t.Errorf("discovery %q at depth %d, want 1", d.Keyword, d.Depth)
		}
	}
	// Seed node plus both discoveries, and one edge per discovery.
	if len(res.Network.Nodes) != 3 || len(res.Network.Edges) != 2 {
		t.Errorf("network = %d nodes, %d edges", len(res.Network.Nodes), len(res.Network.Edges))
	}
	if res.Stats.NodesExplored != 1 || res.Stats.MaxDepth != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestExploreRespectsDepthAndBranchLimit(t *testing.T) {
	engine := NewEngine([]CandidateSource{&chainSource{perKeyword: 10}}, nil, 3)

	res, err := engine.Explore(context.Background(), Request{Seed: "seed", Depth: 2}, nil)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}

	// Level 1 admits at most 3 from the seed; level 2 at most 3 per parent.
	if res.Stats.LevelCounts[0] != 3 {
		t.Errorf("level 1 count = %d, want 3", res.Stats.LevelCounts[0])
	}
	if res.Stats.LevelCounts[1] > 9 {
		t.Errorf("level 2 count = %d, want <= 9", res.Stats.LevelCounts[1])
	}
	for _, d := range res.Discoveries {
		if d.Depth > 2 {
			t.Errorf("discovery %q beyond requested depth: %d", d.Keyword, d.Depth)
		}
	}
	if res.Stats.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", res.Stats.MaxDepth)
	}
}

func TestExploreDeterministic(t *testing.T) {
	run := func() *Result {
		engine := NewEngine([]CandidateSource{&chainSource{perKeyword: 6}}, nil, 4)
		res, err := engine.Explore(context.Background(), Request{Seed: "seed", Depth: 3, Strategy: StrategyNovelty}, nil)
		if err != nil {
			t.Fatalf("explore: %v", err)
		}
		return res
	}

	a, b := run(), run()
	if len(a.Discoveries) != len(b.Discoveries) {
		t.Fatalf("run sizes differ: %d vs %d", len(a.Discoveries), len(b.Discoveries))
	}
	for i := range a.Discoveries {
		if a.Discoveries[i].Keyword != b.Discoveries[i].Keyword || a.Discoveries[i].Score != b.Discoveries[i].Score {
			t.Fatalf("runs diverge at %d: %+v vs %+v", i, a.Discoveries[i], b.Discoveries[i])
		}
	}
}

func TestExploreExcludeKnownKeepsGraphConnectivity(t *testing.T) {
	// booktok -> fantasybooks (known) -> dragonbooks. With fantasybooks
	// excluded it must stay in the graph as a known node, but is never
	// expanded, so dragonbooks stays unreachable.
	src := &fakeSource{name: "test", candidates: map[string][]Candidate{
		"booktok": {
			{Keyword: "fantasybooks", Videos: 20, TotalViews: 50000, AvgEngagement: 8, Relation: "hashtag"},
			{Keyword: "bookclub", Videos: 10, TotalViews: 20000, AvgEngagement: 4, Relation: "hashtag"},
		},
		"fantasybooks": {
			{Keyword: "dragonbooks", Videos: 5, TotalViews: 9000, AvgEngagement: 6, Relation: "hashtag"},
		},
		"bookclub": {},
	}}
	engine := NewEngine([]CandidateSource{src}, nil, 5)
	known := map[string]bool{"fantasybooks": true}

	res, err := engine.Explore(context.Background(), Request{Seed: "booktok", Depth: 2, ExcludeKnown: true}, known)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}

	for _, d := range res.Discoveries {
		if d.Keyword == "fantasybooks" {
			t.Error("known keyword surfaced as a discovery")
		}
		if d.Keyword == "dragonbooks" {
			t.Error("known keyword was expanded")
		}
	}

	var knownNode *Node
	for i := range res.Network.Nodes {
		if res.Network.Nodes[i].Keyword == "fantasybooks" {
			knownNode = &res.Network.Nodes[i]
		}
	}
	if knownNode == nil {
		t.Fatal("known keyword dropped from the graph, edges through it would dangle")
	}
	if !knownNode.Known || knownNode.Score != 0 {
		t.Errorf("known node = %+v, want flagged with no score", knownNode)
	}

	var edgeToKnown bool
	for _, e := range res.Network.Edges {
		if e.To == "fantasybooks" {
			edgeToKnown = true
		}
	}
	if !edgeToKnown {
		t.Error("edge to known node missing")
	}

	for _, called := range src.calls {
		if called == "fantasybooks" {
			t.Error("known node was sent to the candidate source for expansion")
		}
	}
}

func TestExploreIncludesKnownWhenNotExcluding(t *testing.T) {
	src := &fakeSource{name: "test", candidates: map[string][]Candidate{
		"booktok": {
			{Keyword: "fantasybooks", Videos: 20, TotalViews: 50000, AvgEngagement: 8, Relation: "hashtag"},
		},
	}}
	engine := NewEngine([]CandidateSource{src}, nil, 5)
	known := map[string]bool{"fantasybooks": true}

	res, err := engine.Explore(context.Background(), Request{Seed: "booktok", Depth: 1, ExcludeKnown: false}, known)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(res.Discoveries) != 1 || res.Discoveries[0].Keyword != "fantasybooks" {
		t.Errorf("discoveries = %+v, want fantasybooks included", res.Discoveries)
	}
}

func TestExploreFailingSourceDegrades(t *testing.T) {
	bad := &fakeSource{name: "flaky", err: errors.New("upstream down")}
	good := &fakeSource{name: "steady", candidates: map[string][]Candidate{
		"booktok": {{Keyword: "bookclub", Videos: 5, TotalViews: 10000, AvgEngagement: 3, Relation: "hashtag"}},
	}}
	engine := NewEngine([]CandidateSource{bad, good}, nil, 5)

	res, err := engine.Explore(context.Background(), Request{Seed: "booktok", Depth: 1}, nil)
	if err != nil {
		t.Fatalf("explore should survive one failing source: %v", err)
	}
	if len(res.Discoveries) != 1 {
		t.Errorf("got %d discoveries, want 1 from the healthy source", len(res.Discoveries))
	}
}

func TestExploreMaxResultsCap(t *testing.T) {
	engine := NewEngine([]CandidateSource{&chainSource{perKeyword: 10}}, nil, 10)

	res, err := engine.Explore(context.Background(), Request{Seed: "seed", Depth: 2, MaxResults: 5}, nil)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	if len(res.Discoveries) != 5 {
		t.Errorf("got %d discoveries, want cap of 5", len(res.Discoveries))
	}
	if res.Stats.Discovered != 5 {
		t.Errorf("Stats.Discovered = %d, want 5", res.Stats.Discovered)
	}
	// The cap bounds the response, not the walk.
	if res.Stats.CandidatesSeen <= 5 {
		t.Errorf("CandidatesSeen = %d, exploration should have seen more", res.Stats.CandidatesSeen)
	}
}

func TestExploreDiscoveriesSorted(t *testing.T) {
	engine := NewEngine([]CandidateSource{&chainSource{perKeyword: 5}}, nil, 5)

	res, err := engine.Explore(context.Background(), Request{Seed: "seed", Depth: 2, Strategy: StrategyPopularity}, nil)
	if err != nil {
		t.Fatalf("explore: %v", err)
	}
	for i := 1; i < len(res.Discoveries); i++ {
		if res.Discoveries[i].Score > res.Discoveries[i-1].Score {
			t.Fatalf("discoveries not sorted by score at %d", i)
		}
	}
}

func TestGatherMergesAcrossSources(t *testing.T) {
	a := &fakeSource{name: "a", candidates: map[string][]Candidate{
		"seed": {{Keyword: "Shared", Videos: 10, TotalViews: 1000, AvgEngagement: 4, Relation: "hashtag"}},
	}}
	b := &fakeSource{name: "b", candidates: map[string][]Candidate{
		"seed": {{Keyword: "shared", Videos: 30, TotalViews: 3000, AvgEngagement: 8, Relation: "feed"}},
	}}
	engine := NewEngine([]CandidateSource{a, b}, nil, 5)

	merged := engine.gather(context.Background(), "seed")
	if len(merged) != 1 {
		t.Fatalf("got %d candidates, want 1 merged", len(merged))
	}
	c := merged[0]
	if c.Keyword != "shared" {
		t.Errorf("keyword = %q, want normalized", c.Keyword)
	}
	if c.Videos != 40 || c.TotalViews != 4000 {
		t.Errorf("signals not summed: %+v", c)
	}
	// Engagement is weighted by video count: (4*10 + 8*30) / 40 = 7.
	if c.AvgEngagement != 7 {
		t.Errorf("AvgEngagement = %v, want 7", c.AvgEngagement)
	}
}
