package trend

import (
	"fmt"
	"testing"

	"github.com/yihengz/trendscope/pkg/video"
)

func TestTrendScoreBounds(t *testing.T) {
	if got := TrendScore(0, 0, 0); got != 0 {
		t.Errorf("zero inputs: got %d, want 0", got)
	}
	if got := TrendScore(1_000_000_000_000, 50, 100); got != 100 {
		t.Errorf("huge inputs: got %d, want 100", got)
	}
}

func TestTrendScoreComponents(t *testing.T) {
	// 10^7 - 1 views: log10(10^7) * 12.5 = 87.5, weighted 0.4 -> 35.
	// Engagement 5%: 5 * 10 = 50, weighted 0.4 -> 20.
	// 2 viral: min(20, 2*5) = 10.
	// Total 65.
	if got := TrendScore(9_999_999, 5, 2); got != 65 {
		t.Errorf("got %d, want 65", got)
	}

	// Viral bonus saturates at 20 regardless of count.
	if a, b := TrendScore(9_999_999, 5, 4), TrendScore(9_999_999, 5, 40); a != b {
		t.Errorf("viral bonus not capped: %d vs %d", a, b)
	}
}

func TestViralityScore(t *testing.T) {
	tests := []struct {
		viral, total int
		want         int
	}{
		{0, 0, 0},   // no videos, no division
		{0, 100, 0}, // nothing viral
		{1, 100, 10},
		{5, 100, 50},
		{10, 100, 100},
		{50, 100, 100}, // capped
		{1, 10, 100},
	}
	for _, tt := range tests {
		if got := ViralityScore(tt.viral, tt.total); got != tt.want {
			t.Errorf("ViralityScore(%d, %d) = %d, want %d", tt.viral, tt.total, got, tt.want)
		}
	}
}

func TestGrowthScore(t *testing.T) {
	tests := []struct {
		name          string
		current, prev float64
		want          int
	}{
		{"no baseline", 5000, 0, 50},
		{"flat", 1000, 1000, 50},
		{"fifty percent up", 1500, 1000, 100},
		{"twenty percent up", 1200, 1000, 70},
		{"thirty percent down", 700, 1000, 20},
		{"collapse clamps to zero", 100, 1000, 0},
		{"surge clamps to hundred", 10000, 1000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GrowthScore(tt.current, tt.prev); got != tt.want {
				t.Errorf("GrowthScore(%v, %v) = %d, want %d", tt.current, tt.prev, got, tt.want)
			}
		})
	}
}

func TestGrowthPercent(t *testing.T) {
	if got := GrowthPercent(1500, 0); got != nil {
		t.Errorf("no baseline: got %v, want nil", *got)
	}
	got := GrowthPercent(1500, 1000)
	if got == nil || *got != 50 {
		t.Errorf("1000 -> 1500: got %v, want 50", got)
	}
	got = GrowthPercent(500, 1000)
	if got == nil || *got != -50 {
		t.Errorf("1000 -> 500: got %v, want -50", got)
	}
}

// videosWithRates builds one video per engagement rate. Plays are fixed at
// 1000 so rate = (likes+comments+shares)/1000*100.
func videosWithRates(rates ...float64) []video.Video {
	out := make([]video.Video, len(rates))
	for i, r := range rates {
		out[i] = video.Video{
			ID:    fmt.Sprintf("v%d", i),
			Plays: 1000,
			Likes: int64(r * 10),
		}
	}
	return out
}

func TestEngagementThresholdsTenVideos(t *testing.T) {
	// Sorted descending: 10, 9, 8, ... 1. With n=10 the viral threshold is
	// the second-highest rate (index 1) and high is index 3.
	videos := videosWithRates(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	viral, high := EngagementThresholds(videos)
	if viral != 9 {
		t.Errorf("viral threshold = %v, want 9", viral)
	}
	if high != 7 {
		t.Errorf("high threshold = %v, want 7", high)
	}
}

func TestEngagementThresholdsSmallBatch(t *testing.T) {
	// With fewer than 10 videos both indexes floor to 0, so both thresholds
	// collapse to the single best rate.
	videos := videosWithRates(2, 8, 5)
	viral, high := EngagementThresholds(videos)
	if viral != 8 || high != 8 {
		t.Errorf("thresholds = (%v, %v), want (8, 8)", viral, high)
	}

	videos = videosWithRates(4)
	viral, high = EngagementThresholds(videos)
	if viral != 4 || high != 4 {
		t.Errorf("single video thresholds = (%v, %v), want (4, 4)", viral, high)
	}
}

func TestTrendScoreMonotonicInReach(t *testing.T) {
	// 30 videos, most with modest plays, one mega-viral outlier. Removing
	// the outlier must strictly lower the composite score.
	var with []video.Video
	for i := 0; i < 29; i++ {
		with = append(with, video.Video{
			ID:    fmt.Sprintf("v%d", i),
			Plays: int64(1000 + i*100),
			Likes: 40,
		})
	}
	with = append(with, video.Video{ID: "mega", Plays: 2_000_000, Likes: 80_000})
	without := with[:29]

	score := func(videos []video.Video) int {
		agg := Summarize(videos)
		viral, high := EngagementThresholds(videos)
		vc, _ := CountStandouts(videos, viral, high)
		return TrendScore(agg.TotalViews, agg.AvgEngagement, vc)
	}

	if a, b := score(with), score(without); a <= b {
		t.Errorf("score with outlier = %d, without = %d; want strictly greater", a, b)
	}

	if agg := Summarize(with); agg.TotalVideos != 30 || agg.AvgViews == 0 {
		t.Errorf("aggregate = %+v", agg)
	}
}

func TestCountStandouts(t *testing.T) {
	videos := videosWithRates(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	viral, high := CountStandouts(videos, 9, 7)
	// At or above 9: 9 and 10. At or above 7 but below viral: 7 and 8.
	if viral != 2 {
		t.Errorf("viral count = %d, want 2", viral)
	}
	if high != 2 {
		t.Errorf("high count = %d, want 2", high)
	}
}
