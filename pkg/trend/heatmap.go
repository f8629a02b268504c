package trend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/yihengz/trendscope/internal/store"
)

// KeywordSnapshots pairs a tracked keyword with its preloaded snapshots.
type KeywordSnapshots struct {
	Keyword   store.TrackedKeyword
	Snapshots []store.Snapshot
}

// HeatmapCell is one (keyword, date) entry. Cells without snapshot data
// carry zero-valued metrics and nil growth fields with HasData false, so
// consumers never need gap handling.
type HeatmapCell struct {
	Keyword       string   `json:"keyword"`
	Date          string   `json:"date"`
	TrendScore    int      `json:"trend_score"`
	ViralityScore int      `json:"virality_score"`
	GrowthScore   int      `json:"growth_score"`
	TotalViews    int64    `json:"total_views"`
	AvgEngagement float64  `json:"avg_engagement"`
	ViewsGrowth   *float64 `json:"views_growth"`
	HasData       bool     `json:"has_data"`
}

// KeywordScore names a keyword together with one of its scores.
type KeywordScore struct {
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
}

// HeatmapSummary aggregates over the populated cells of a heatmap.
type HeatmapSummary struct {
	AvgTrendScore  float64       `json:"avg_trend_score"`
	PopulatedCells int           `json:"populated_cells"`
	TopGrowth      *KeywordScore `json:"top_growth,omitempty"`
	TopViral       *KeywordScore `json:"top_viral,omitempty"`
}

// Heatmap is a dense keyword-by-date grid for visualization. Cells always
// holds exactly len(Keywords)*len(Dates) entries in keyword-then-date order.
type Heatmap struct {
	Dates    []string       `json:"dates"`
	Keywords []string       `json:"keywords"`
	Cells    []HeatmapCell  `json:"cells"`
	Summary  HeatmapSummary `json:"summary"`
}

const dateLayout = "2006-01-02"

// BuildHeatmap produces a dense matrix covering the days consecutive
// calendar days ending today. Keywords are ordered by descending priority,
// then by creation order.
func BuildHeatmap(keywords []KeywordSnapshots, days int, today time.Time) *Heatmap {
	if days <= 0 {
		days = 30
	}
	end := store.Day(today)

	dates := make([]string, days)
	for i := 0; i < days; i++ {
		dates[i] = end.AddDate(0, 0, i-days+1).Format(dateLayout)
	}

	sort.SliceStable(keywords, func(i, j int) bool {
		a, b := keywords[i].Keyword, keywords[j].Keyword
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	hm := &Heatmap{
		Dates:    dates,
		Keywords: make([]string, len(keywords)),
		Cells:    make([]HeatmapCell, 0, len(keywords)*days),
	}

	var trendSum int
	for ki, ks := range keywords {
		hm.Keywords[ki] = ks.Keyword.Keyword

		byDate := make(map[string]store.Snapshot, len(ks.Snapshots))
		for _, snap := range ks.Snapshots {
			byDate[snap.Date.Format(dateLayout)] = snap
		}

		for _, date := range dates {
			cell := HeatmapCell{Keyword: ks.Keyword.Keyword, Date: date}
			if snap, ok := byDate[date]; ok {
				cell.TrendScore = snap.TrendScore
				cell.ViralityScore = snap.ViralityScore
				cell.GrowthScore = snap.GrowthScore
				cell.TotalViews = snap.TotalViews
				cell.AvgEngagement = snap.AvgEngagement
				cell.ViewsGrowth = snap.ViewsGrowth
				cell.HasData = true

				hm.Summary.PopulatedCells++
				trendSum += snap.TrendScore
				if hm.Summary.TopGrowth == nil || snap.GrowthScore > hm.Summary.TopGrowth.Score {
					hm.Summary.TopGrowth = &KeywordScore{Keyword: ks.Keyword.Keyword, Score: snap.GrowthScore}
				}
				if hm.Summary.TopViral == nil || snap.ViralityScore > hm.Summary.TopViral.Score {
					hm.Summary.TopViral = &KeywordScore{Keyword: ks.Keyword.Keyword, Score: snap.ViralityScore}
				}
			}
			hm.Cells = append(hm.Cells, cell)
		}
	}

	if hm.Summary.PopulatedCells > 0 {
		hm.Summary.AvgTrendScore = float64(trendSum) / float64(hm.Summary.PopulatedCells)
	}
	return hm
}

// LoadHeatmap reads a user's keywords and their snapshots for the window
// ending today and builds the dense matrix.
func LoadHeatmap(ctx context.Context, s store.Store, userID string, days int) (*Heatmap, error) {
	if days <= 0 {
		days = 30
	}
	today := time.Now()
	end := store.Day(today)
	start := end.AddDate(0, 0, 1-days)

	kws, err := s.ListKeywords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}

	loaded := make([]KeywordSnapshots, 0, len(kws))
	for _, kw := range kws {
		snaps, err := s.ListSnapshots(ctx, kw.ID, start, end)
		if err != nil {
			return nil, fmt.Errorf("load snapshots for %q: %w", kw.Keyword, err)
		}
		loaded = append(loaded, KeywordSnapshots{Keyword: kw, Snapshots: snaps})
	}

	return BuildHeatmap(loaded, days, today), nil
}
