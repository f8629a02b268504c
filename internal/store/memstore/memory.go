// Package memstore provides an in-memory implementation of store.Store for tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yihengz/trendscope/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu         sync.RWMutex
	nextKwID   int64
	nextSnapID int64
	nextRunID  int64
	keywords   map[int64]store.TrackedKeyword
	snapshots  []store.Snapshot
	runs       []store.ExplorationRecord
	recs       map[string]store.Recommendation
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextKwID:   1,
		nextSnapID: 1,
		nextRunID:  1,
		keywords:   make(map[int64]store.TrackedKeyword),
		recs:       make(map[string]store.Recommendation),
	}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateKeyword(ctx context.Context, kw *store.TrackedKeyword) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kw.CreatedAt.IsZero() {
		kw.CreatedAt = time.Now().UTC()
	}
	kw.ID = s.nextKwID
	s.nextKwID++
	s.keywords[kw.ID] = *kw
	return nil
}

func (s *Store) GetKeyword(ctx context.Context, id int64) (*store.TrackedKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw, ok := s.keywords[id]
	if !ok {
		return nil, fmt.Errorf("keyword %d: %w", id, store.ErrNotFound)
	}
	return &kw, nil
}

func (s *Store) ListKeywords(ctx context.Context, userID string) ([]store.TrackedKeyword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var kws []store.TrackedKeyword
	for _, kw := range s.keywords {
		if userID != "" && kw.UserID != userID {
			continue
		}
		kws = append(kws, kw)
	}
	sort.SliceStable(kws, func(i, j int) bool {
		if kws[i].Priority != kws[j].Priority {
			return kws[i].Priority > kws[j].Priority
		}
		if !kws[i].CreatedAt.Equal(kws[j].CreatedAt) {
			return kws[i].CreatedAt.Before(kws[j].CreatedAt)
		}
		return kws[i].ID < kws[j].ID
	})
	return kws, nil
}

func (s *Store) UpdateKeyword(ctx context.Context, id int64, displayName, color string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kw, ok := s.keywords[id]
	if !ok {
		return fmt.Errorf("keyword %d: %w", id, store.ErrNotFound)
	}
	kw.DisplayName = displayName
	kw.Color = color
	kw.Priority = priority
	s.keywords[id] = kw
	return nil
}

func (s *Store) TouchLastAnalyzed(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kw, ok := s.keywords[id]
	if !ok {
		return fmt.Errorf("keyword %d: %w", id, store.ErrNotFound)
	}
	at = at.UTC()
	kw.LastAnalyzedAt = &at
	s.keywords[id] = kw
	return nil
}

func (s *Store) InsertSnapshot(ctx context.Context, snap *store.Snapshot) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Date = store.Day(snap.Date)
	for _, existing := range s.snapshots {
		if existing.KeywordID == snap.KeywordID && existing.Date.Equal(snap.Date) {
			return false, nil
		}
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	snap.ID = s.nextSnapID
	s.nextSnapID++
	s.snapshots = append(s.snapshots, *snap)
	return true, nil
}

func (s *Store) GetSnapshotByDate(ctx context.Context, keywordID int64, date time.Time) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := store.Day(date)
	for _, snap := range s.snapshots {
		if snap.KeywordID == keywordID && snap.Date.Equal(day) {
			out := snap
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) LatestSnapshotBefore(ctx context.Context, keywordID int64, date time.Time) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := store.Day(date)
	var best *store.Snapshot
	for i := range s.snapshots {
		snap := s.snapshots[i]
		if snap.KeywordID != keywordID || !snap.Date.Before(day) {
			continue
		}
		if best == nil || snap.Date.After(best.Date) {
			out := snap
			best = &out
		}
	}
	return best, nil
}

func (s *Store) ListSnapshots(ctx context.Context, keywordID int64, from, to time.Time) ([]store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fromDay, toDay := store.Day(from), store.Day(to)
	var snaps []store.Snapshot
	for _, snap := range s.snapshots {
		if snap.KeywordID != keywordID {
			continue
		}
		if snap.Date.Before(fromDay) || snap.Date.After(toDay) {
			continue
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Date.Before(snaps[j].Date) })
	return snaps, nil
}

func (s *Store) SaveExploration(ctx context.Context, rec *store.ExplorationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.ID = s.nextRunID
	s.nextRunID++
	s.runs = append(s.runs, *rec)
	return nil
}

// Explorations returns all saved runs, oldest first.
func (s *Store) Explorations() []store.ExplorationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]store.ExplorationRecord(nil), s.runs...)
}

func (s *Store) SaveRecommendations(ctx context.Context, recs []store.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range recs {
		r := recs[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		if _, exists := s.recs[r.ID]; exists {
			return fmt.Errorf("save recommendation %s: duplicate id", r.ID)
		}
		s.recs[r.ID] = r
	}
	return nil
}

func (s *Store) GetRecommendation(ctx context.Context, id string) (*store.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[id]
	if !ok {
		return nil, fmt.Errorf("recommendation %s: %w", id, store.ErrNotFound)
	}
	return &rec, nil
}

func (s *Store) ListRecommendations(ctx context.Context, opts store.RecommendationListOpts) ([]store.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []store.Recommendation
	for _, rec := range s.recs {
		if opts.Type != "" && rec.Type != opts.Type {
			continue
		}
		if opts.Status != "" && rec.Status != opts.Status {
			continue
		}
		if opts.KeywordID > 0 && (rec.KeywordID == nil || *rec.KeywordID != opts.KeywordID) {
			continue
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].CreatedAt.After(recs[j].CreatedAt)
	})
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (s *Store) UpdateRecommendationStatus(ctx context.Context, id, status string) error {
	if status != store.StatusAccepted && status != store.StatusDismissed {
		return fmt.Errorf("invalid target status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.recs[id]
	if !ok {
		return fmt.Errorf("recommendation %s: %w", id, store.ErrNotFound)
	}
	if rec.Status != store.StatusPending {
		return fmt.Errorf("recommendation %s: %w", id, store.ErrTerminalStatus)
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	s.recs[id] = rec
	return nil
}
