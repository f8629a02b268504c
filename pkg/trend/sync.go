package trend

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yihengz/trendscope/internal/metrics"
	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/pkg/video"
)

// SyncStatus classifies one keyword's sync outcome.
type SyncStatus string

const (
	SyncSynced  SyncStatus = "synced"
	SyncSkipped SyncStatus = "skipped"
	SyncFailed  SyncStatus = "failed"
)

// SyncResult is one keyword's outcome within a sync batch.
type SyncResult struct {
	KeywordID int64           `json:"keyword_id"`
	Keyword   string          `json:"keyword"`
	Status    SyncStatus      `json:"status"`
	Note      string          `json:"note,omitempty"`
	Snapshot  *store.Snapshot `json:"snapshot,omitempty"`
}

// SyncSummary is the structured batch result: every requested keyword
// appears exactly once, nothing is silently dropped.
type SyncSummary struct {
	Results []SyncResult `json:"results"`
	Synced  int          `json:"synced"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
}

// Synchronizer fetches fresh video data per tracked keyword and persists
// one immutable daily snapshot. Keywords are processed sequentially so a
// rate-limited search provider is never hit concurrently for the same
// caller; do not parallelize this loop.
type Synchronizer struct {
	store     store.Store
	provider  video.Provider
	fetchSize int
	now       func() time.Time
}

// NewSynchronizer creates a synchronizer with the given fetch size per keyword.
func NewSynchronizer(s store.Store, p video.Provider, fetchSize int) *Synchronizer {
	if fetchSize <= 0 {
		fetchSize = 30
	}
	return &Synchronizer{
		store:     s,
		provider:  p,
		fetchSize: fetchSize,
		now:       time.Now,
	}
}

// Sync processes the caller's tracked keywords, or only the supplied subset
// of keyword IDs when non-empty. Partial success is the normal outcome: one
// keyword's failure never aborts the batch. The returned error is non-nil
// only when the keyword list itself cannot be loaded.
func (s *Synchronizer) Sync(ctx context.Context, userID string, keywordIDs []int64) (*SyncSummary, error) {
	type unit struct {
		kw      store.TrackedKeyword
		missing bool
	}
	var units []unit

	if len(keywordIDs) == 0 {
		kws, err := s.store.ListKeywords(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list keywords: %w", err)
		}
		for _, kw := range kws {
			units = append(units, unit{kw: kw})
		}
	} else {
		for _, id := range keywordIDs {
			kw, err := s.store.GetKeyword(ctx, id)
			if err != nil {
				units = append(units, unit{kw: store.TrackedKeyword{ID: id}, missing: true})
				continue
			}
			units = append(units, unit{kw: *kw})
		}
	}

	summary := &SyncSummary{}
	for _, u := range units {
		var res SyncResult
		if u.missing {
			res = SyncResult{KeywordID: u.kw.ID, Status: SyncFailed, Note: "keyword not found"}
		} else {
			res = s.syncKeyword(ctx, u.kw)
		}

		metrics.RecordSync(string(res.Status))
		switch res.Status {
		case SyncSynced:
			summary.Synced++
		case SyncSkipped:
			summary.Skipped++
		case SyncFailed:
			summary.Failed++
			fmt.Fprintf(os.Stderr, "  sync %q: %s\n", res.Keyword, res.Note)
		}
		summary.Results = append(summary.Results, res)
	}

	return summary, nil
}

func (s *Synchronizer) syncKeyword(ctx context.Context, kw store.TrackedKeyword) SyncResult {
	res := SyncResult{KeywordID: kw.ID, Keyword: kw.Keyword}
	today := store.Day(s.now())

	existing, err := s.store.GetSnapshotByDate(ctx, kw.ID, today)
	if err != nil {
		res.Status = SyncFailed
		res.Note = fmt.Sprintf("store: %v", err)
		return res
	}
	if existing != nil {
		res.Status = SyncSkipped
		res.Note = "already synced today"
		res.Snapshot = existing
		return res
	}

	videos, err := s.provider.Search(ctx, kw.Keyword, s.fetchSize)
	if err != nil {
		res.Status = SyncFailed
		res.Note = fmt.Sprintf("search provider: %v", err)
		return res
	}
	if len(videos) == 0 {
		res.Status = SyncFailed
		res.Note = "no videos found"
		return res
	}

	prev, err := s.store.LatestSnapshotBefore(ctx, kw.ID, today)
	if err != nil {
		res.Status = SyncFailed
		res.Note = fmt.Sprintf("store: %v", err)
		return res
	}

	snap := buildSnapshot(kw.ID, today, videos, prev)
	inserted, err := s.store.InsertSnapshot(ctx, snap)
	if err != nil {
		res.Status = SyncFailed
		res.Note = fmt.Sprintf("store: %v", err)
		return res
	}
	if !inserted {
		// Lost a check-then-insert race; the day is covered either way.
		res.Status = SyncSkipped
		res.Note = "already synced today"
		return res
	}

	if err := s.store.TouchLastAnalyzed(ctx, kw.ID, s.now().UTC()); err != nil {
		fmt.Fprintf(os.Stderr, "  touch lastAnalyzedAt for %q: %v\n", kw.Keyword, err)
	}

	res.Status = SyncSynced
	res.Snapshot = snap
	return res
}

// buildSnapshot aggregates and scores one day's videos, using the previous
// snapshot (if any) as the growth baseline.
func buildSnapshot(keywordID int64, day time.Time, videos []video.Video, prev *store.Snapshot) *store.Snapshot {
	agg := Summarize(videos)
	viralThreshold, highThreshold := EngagementThresholds(videos)
	viralCount, highCount := CountStandouts(videos, viralThreshold, highThreshold)

	snap := &store.Snapshot{
		KeywordID:           keywordID,
		Date:                day,
		TotalViews:          agg.TotalViews,
		AvgViews:            agg.AvgViews,
		AvgEngagement:       agg.AvgEngagement,
		TotalVideos:         agg.TotalVideos,
		ViralCount:          viralCount,
		HighPerformingCount: highCount,
		TopHashtags:         agg.TopHashtags,
		TrendScore:          TrendScore(agg.TotalViews, agg.AvgEngagement, viralCount),
		ViralityScore:       ViralityScore(viralCount, agg.TotalVideos),
		GrowthScore:         50,
	}

	if prev != nil {
		snap.ViewsGrowth = GrowthPercent(float64(agg.TotalViews), float64(prev.TotalViews))
		snap.EngagementGrowth = GrowthPercent(agg.AvgEngagement, prev.AvgEngagement)
		snap.VideosGrowth = GrowthPercent(float64(agg.TotalVideos), float64(prev.TotalVideos))
		snap.GrowthScore = GrowthScore(float64(agg.TotalViews), float64(prev.TotalViews))
	}

	return snap
}
