package trend

import (
	"math"
	"sort"

	"github.com/yihengz/trendscope/pkg/video"
)

// TrendScore combines reach, engagement and a bounded standout-video bonus
// into a 0-100 composite. Views are scaled logarithmically so one mega-viral
// keyword cannot saturate the scale.
func TrendScore(totalViews int64, avgEngagement float64, viralCount int) int {
	viewScore := math.Min(100, math.Log10(float64(totalViews)+1)*12.5)
	engagementScore := math.Min(100, avgEngagement*10)
	viralBonus := math.Min(20, float64(viralCount)*5)
	return clampScore(math.Round(viewScore*0.4 + engagementScore*0.4 + viralBonus))
}

// ViralityScore expresses virality as the ratio of standout videos to total
// videos, independent of absolute volume. Zero videos scores zero.
func ViralityScore(viralCount, totalVideos int) int {
	if totalVideos == 0 {
		return 0
	}
	ratio := float64(viralCount) / float64(totalVideos) * 1000
	return clampScore(math.Round(math.Min(100, ratio)))
}

// GrowthScore maps a period-over-period change onto 0-100, centered at 50
// for "no change". Absence of history is neutral (50), never zero: zero
// would falsely read as declining.
func GrowthScore(current, previous float64) int {
	if previous <= 0 {
		return 50
	}
	growthPct := (current - previous) / previous * 100
	return clampScore(math.Round(50 + growthPct))
}

// GrowthPercent returns the period-over-period percent delta, or nil when
// there is no prior value to compare against.
func GrowthPercent(current, previous float64) *float64 {
	if previous <= 0 {
		return nil
	}
	pct := (current - previous) / previous * 100
	return &pct
}

// EngagementThresholds returns the viral and high-performing cutoffs for a
// batch: the engagement-rate values at sorted (descending) indexes
// floor(n*0.1) and floor(n*0.3). For small n both indexes land on 0, i.e.
// the maximum rate, which guarantees at least one video can qualify even
// with a single data point. Downstream score comparability depends on this
// exact fallback.
func EngagementThresholds(videos []video.Video) (viral, high float64) {
	n := len(videos)
	if n == 0 {
		return 0, 0
	}

	rates := make([]float64, n)
	for i, v := range videos {
		rates[i] = v.EngagementRate()
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(rates)))

	viral = rates[int(math.Floor(float64(n)*0.1))]
	high = rates[int(math.Floor(float64(n)*0.3))]
	return viral, high
}

// CountStandouts returns how many videos are viral (rate at or above the
// viral threshold) and how many are high-performing (at or above the high
// threshold but below viral).
func CountStandouts(videos []video.Video, viralThreshold, highThreshold float64) (viral, high int) {
	for _, v := range videos {
		rate := v.EngagementRate()
		switch {
		case rate >= viralThreshold:
			viral++
		case rate >= highThreshold:
			high++
		}
	}
	return viral, high
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
