// Package explore expands a keyword graph outward from a seed term to
// discover new, related keywords worth tracking.
package explore

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/yihengz/trendscope/internal/metrics"
)

// Strategy is the candidate-selection bias used while expanding the graph.
type Strategy string

const (
	StrategyNovelty    Strategy = "novelty"
	StrategyPopularity Strategy = "popularity"
	StrategyBalanced   Strategy = "balanced"
)

// Response-size caps. These bound the returned discovery list, not the
// internal exploration.
const (
	MaxResultsFull  = 50
	MaxResultsQuick = 30
)

// Request describes one exploration run.
type Request struct {
	Seed         string   `json:"seed"`
	Depth        int      `json:"depth"`
	Strategy     Strategy `json:"strategy"`
	ExcludeKnown bool     `json:"exclude_known"`
	WithInsights bool     `json:"insights"`
	MaxResults   int      `json:"max_results"`
	UserID       string   `json:"-"`
}

// Validate rejects malformed requests before any expansion work begins and
// fills in defaults. The empty strategy means balanced.
func (r *Request) Validate() error {
	r.Seed = strings.TrimSpace(r.Seed)
	if len(r.Seed) < 2 || len(r.Seed) > 50 {
		return fmt.Errorf("seed keyword must be 2-50 characters, got %d", len(r.Seed))
	}
	if r.Depth < 1 || r.Depth > 3 {
		return fmt.Errorf("depth must be 1, 2 or 3, got %d", r.Depth)
	}
	switch r.Strategy {
	case "":
		r.Strategy = StrategyBalanced
	case StrategyNovelty, StrategyPopularity, StrategyBalanced:
	default:
		return fmt.Errorf("unknown strategy %q", r.Strategy)
	}
	if r.MaxResults <= 0 || r.MaxResults > MaxResultsFull {
		r.MaxResults = MaxResultsFull
	}
	return nil
}

// Candidate is one related keyword derived for a parent, with the signals
// the strategies score on.
type Candidate struct {
	Keyword       string
	Videos        int
	TotalViews    int64
	AvgEngagement float64
	Relation      string
}

// CandidateSource derives related-keyword candidates for one keyword.
type CandidateSource interface {
	Name() string
	Candidates(ctx context.Context, keyword string) ([]Candidate, error)
}

// Node is one keyword in the exploration graph. Known nodes represent
// already-tracked keywords kept only for connectivity; they carry no score
// and are never expanded.
type Node struct {
	Keyword string  `json:"keyword"`
	Depth   int     `json:"depth"`
	Score   float64 `json:"score"`
	Known   bool    `json:"known,omitempty"`
}

// Edge records which keyword led to which during expansion.
type Edge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

// Network is the visualization-ready exploration graph.
type Network struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Discovery is one ranked discovered keyword.
type Discovery struct {
	Keyword       string  `json:"keyword"`
	Depth         int     `json:"depth"`
	Score         float64 `json:"score"`
	Videos        int     `json:"videos"`
	TotalViews    int64   `json:"total_views"`
	AvgEngagement float64 `json:"avg_engagement"`
	Relation      string  `json:"relation"`
}

// Stats summarizes one run.
type Stats struct {
	NodesExplored  int   `json:"nodes_explored"`
	CandidatesSeen int   `json:"candidates_seen"`
	Discovered     int   `json:"discovered"`
	MaxDepth       int   `json:"max_depth"`
	LevelCounts    []int `json:"level_counts"`
	DurationMS     int64 `json:"duration_ms"`
}

// Result is the complete output of one exploration run.
type Result struct {
	Seed        string      `json:"seed"`
	Depth       int         `json:"depth"`
	Strategy    Strategy    `json:"strategy"`
	Discoveries []Discovery `json:"discoveries"`
	Network     Network     `json:"network"`
	Stats       Stats       `json:"stats"`
	Insights    *Insights   `json:"insights,omitempty"`
}

// Engine iteratively expands a keyword graph, level by level, admitting a
// bounded number of the best candidates per parent at each depth.
type Engine struct {
	sources     []CandidateSource
	synthesizer *InsightSynthesizer
	branchLimit int
}

// NewEngine creates an exploration engine. The synthesizer is optional;
// nil disables insight generation.
func NewEngine(sources []CandidateSource, synthesizer *InsightSynthesizer, branchLimit int) *Engine {
	if branchLimit <= 0 {
		branchLimit = 5
	}
	return &Engine{
		sources:     sources,
		synthesizer: synthesizer,
		branchLimit: branchLimit,
	}
}

// Explore runs one seed-to-graph expansion. known maps normalized tracked
// keywords; with ExcludeKnown set, matching candidates are dropped from
// discoveries and never expanded, but stay in the graph as known-flagged
// nodes so edges through them remain valid.
func (e *Engine) Explore(ctx context.Context, req Request, known map[string]bool) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	seed := strings.ToLower(req.Seed)

	res := &Result{
		Seed:     seed,
		Depth:    req.Depth,
		Strategy: req.Strategy,
	}
	res.Network.Nodes = []Node{{Keyword: seed, Depth: 0}}

	seen := map[string]bool{seed: true}
	frontier := []string{seed}

	for depth := 1; depth <= req.Depth; depth++ {
		var next []string

		for _, parent := range frontier {
			res.Stats.NodesExplored++
			candidates := e.gather(ctx, parent)
			res.Stats.CandidatesSeen += len(candidates)

			rankCandidates(candidates, req.Strategy)

			admitted := 0
			for _, c := range candidates {
				if admitted >= e.branchLimit {
					break
				}
				kw := c.Keyword
				if kw == parent || len(kw) < 2 || seen[kw] {
					continue
				}

				if req.ExcludeKnown && known[kw] {
					seen[kw] = true
					res.Network.Nodes = append(res.Network.Nodes, Node{Keyword: kw, Depth: depth, Known: true})
					res.Network.Edges = append(res.Network.Edges, Edge{From: parent, To: kw, Relation: c.Relation})
					continue
				}

				seen[kw] = true
				score := req.Strategy.Score(c)
				res.Network.Nodes = append(res.Network.Nodes, Node{Keyword: kw, Depth: depth, Score: score})
				res.Network.Edges = append(res.Network.Edges, Edge{From: parent, To: kw, Relation: c.Relation})
				res.Discoveries = append(res.Discoveries, Discovery{
					Keyword:       kw,
					Depth:         depth,
					Score:         score,
					Videos:        c.Videos,
					TotalViews:    c.TotalViews,
					AvgEngagement: c.AvgEngagement,
					Relation:      c.Relation,
				})
				next = append(next, kw)
				admitted++
			}
		}

		res.Stats.LevelCounts = append(res.Stats.LevelCounts, len(next))
		if len(next) > 0 {
			res.Stats.MaxDepth = depth
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	sort.SliceStable(res.Discoveries, func(i, j int) bool {
		a, b := res.Discoveries[i], res.Discoveries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		return a.Keyword < b.Keyword
	})
	if len(res.Discoveries) > req.MaxResults {
		res.Discoveries = res.Discoveries[:req.MaxResults]
	}
	res.Stats.Discovered = len(res.Discoveries)
	res.Stats.DurationMS = time.Since(start).Milliseconds()

	// Insights are always attempted last; any failure degrades to none.
	if req.WithInsights && e.synthesizer != nil && len(res.Discoveries) > 0 {
		insights, err := e.synthesizer.Synthesize(ctx, seed, res.Discoveries)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  insight synthesis for %q: %v\n", seed, err)
		} else {
			res.Insights = insights
		}
	}

	metrics.RecordExploration(string(req.Strategy))
	return res, nil
}

// gather merges candidates from all sources, deduplicating by normalized
// keyword. A failing source is logged and skipped; exploration continues on
// whatever the remaining sources yield.
func (e *Engine) gather(ctx context.Context, keyword string) []Candidate {
	merged := make(map[string]*Candidate)
	var order []string

	for _, src := range e.sources {
		candidates, err := src.Candidates(ctx, keyword)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  candidate source %s for %q: %v\n", src.Name(), keyword, err)
			continue
		}
		for _, c := range candidates {
			kw := strings.ToLower(strings.TrimSpace(c.Keyword))
			if kw == "" {
				continue
			}
			existing, ok := merged[kw]
			if !ok {
				c.Keyword = kw
				copied := c
				merged[kw] = &copied
				order = append(order, kw)
				continue
			}
			// Merge signals: weight engagement by per-source video counts.
			totalVideos := existing.Videos + c.Videos
			if totalVideos > 0 {
				existing.AvgEngagement = (existing.AvgEngagement*float64(existing.Videos) +
					c.AvgEngagement*float64(c.Videos)) / float64(totalVideos)
			}
			existing.Videos = totalVideos
			existing.TotalViews += c.TotalViews
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, kw := range order {
		out = append(out, *merged[kw])
	}
	return out
}

// rankCandidates orders candidates by strategy score descending, ties by
// keyword for determinism.
func rankCandidates(candidates []Candidate, strategy Strategy) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := strategy.Score(candidates[i]), strategy.Score(candidates[j])
		if a != b {
			return a > b
		}
		return candidates[i].Keyword < candidates[j].Keyword
	})
}
