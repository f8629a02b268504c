// Package recommend manages the lifecycle of keyword and account
// suggestions derived from exploration runs or popularity analysis.
package recommend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/pkg/explore"
)

// Service persists and transitions recommendations. Status transitions are
// constrained: pending -> accepted or pending -> dismissed, both terminal; a
// transition out of a terminal status is rejected with
// store.ErrTerminalStatus, never silently ignored.
type Service struct {
	store store.Store
}

// NewService creates a recommendation service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// FromExploration converts a run's discoveries into pending keyword
// recommendations.
func FromExploration(result *explore.Result, userID string) []store.Recommendation {
	recs := make([]store.Recommendation, 0, len(result.Discoveries))
	for _, d := range result.Discoveries {
		recs = append(recs, store.Recommendation{
			ID:     uuid.NewString(),
			UserID: userID,
			Type:   store.TypeKeyword,
			Value:  d.Keyword,
			Status: store.StatusPending,
			Source: fmt.Sprintf("exploration:%s", result.Seed),
			Score:  d.Score,
			Note:   fmt.Sprintf("found at depth %d via %s", d.Depth, d.Relation),
		})
	}
	return recs
}

// Save bulk-inserts a freshly generated recommendation batch.
func (s *Service) Save(ctx context.Context, recs []store.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	for i := range recs {
		if recs[i].ID == "" {
			recs[i].ID = uuid.NewString()
		}
		if recs[i].Status == "" {
			recs[i].Status = store.StatusPending
		}
	}
	return s.store.SaveRecommendations(ctx, recs)
}

// List returns recommendations matching the filter.
func (s *Service) List(ctx context.Context, opts store.RecommendationListOpts) ([]store.Recommendation, error) {
	return s.store.ListRecommendations(ctx, opts)
}

// Accept transitions a pending recommendation to accepted.
func (s *Service) Accept(ctx context.Context, id string) error {
	return s.store.UpdateRecommendationStatus(ctx, id, store.StatusAccepted)
}

// Dismiss transitions a pending recommendation to dismissed.
func (s *Service) Dismiss(ctx context.Context, id string) error {
	return s.store.UpdateRecommendationStatus(ctx, id, store.StatusDismissed)
}
