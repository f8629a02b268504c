package explore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/yihengz/trendscope/internal/store"
)

// Runner wires the engine to the store: it loads the caller's tracked
// keywords for exclusion matching, runs the exploration, and persists the
// run as an audit record. The audit write is best-effort; the computed
// result is returned either way.
type Runner struct {
	engine *Engine
	store  store.Store
}

// NewRunner creates a runner.
func NewRunner(engine *Engine, s store.Store) *Runner {
	return &Runner{engine: engine, store: s}
}

// Run executes one exploration request.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	known := make(map[string]bool)
	kws, err := r.store.ListKeywords(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tracked keywords: %w", err)
	}
	for _, kw := range kws {
		known[strings.ToLower(strings.TrimSpace(kw.Keyword))] = true
	}

	result, err := r.engine.Explore(ctx, req, known)
	if err != nil {
		return nil, err
	}

	resultJSON, _ := json.Marshal(result)
	rec := &store.ExplorationRecord{
		UserID:       req.UserID,
		Seed:         result.Seed,
		Depth:        req.Depth,
		Strategy:     string(result.Strategy),
		ExcludeKnown: req.ExcludeKnown,
		ResultJSON:   string(resultJSON),
	}
	if err := r.store.SaveExploration(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "  save exploration audit for %q: %v\n", result.Seed, err)
	}

	return result, nil
}
