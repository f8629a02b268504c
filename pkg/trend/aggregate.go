package trend

import (
	"math"
	"sort"
	"strings"

	"github.com/yihengz/trendscope/internal/store"
	"github.com/yihengz/trendscope/pkg/video"
)

// genericTags are low-signal hashtags excluded from ranking.
var genericTags = map[string]bool{
	"fyp": true, "fy": true, "foryou": true, "foryoupage": true,
	"viral": true, "viralvideo": true, "trending": true, "trend": true,
	"video": true, "videos": true, "follow": true, "like": true,
	"likes": true, "explore": true, "explorepage": true, "xyzbca": true,
	"duet": true, "stitch": true, "capcut": true, "reels": true,
	"shorts": true, "tiktok": true, "instagram": true, "youtube": true,
}

// Aggregate holds keyword-level reductions over one batch of videos.
type Aggregate struct {
	TotalViews    int64
	TotalVideos   int
	AvgViews      int64
	AvgEngagement float64
	TopHashtags   []store.HashtagStat
}

// NormalizeTag returns the canonical form of a hashtag: lowercased with any
// leading # stripped.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// IsGenericTag reports whether a normalized tag is on the low-signal
// blocklist and should be excluded from ranking and discovery.
func IsGenericTag(tag string) bool {
	return genericTags[tag]
}

// Summarize reduces a non-empty batch of videos into keyword-level metrics
// and a ranked hashtag summary. Callers must handle the empty batch as a
// distinct "no videos found" outcome before calling; an empty input here is
// a precondition violation and yields a zero Aggregate.
func Summarize(videos []video.Video) Aggregate {
	agg := Aggregate{TotalVideos: len(videos)}
	if len(videos) == 0 {
		return agg
	}

	var engagementSum float64
	for _, v := range videos {
		agg.TotalViews += v.Plays
		engagementSum += v.EngagementRate()
	}
	agg.AvgViews = int64(math.Round(float64(agg.TotalViews) / float64(len(videos))))
	agg.AvgEngagement = engagementSum / float64(len(videos))
	agg.TopHashtags = rankHashtags(videos, 10)
	return agg
}

type tagStat struct {
	count           int
	totalEngagement float64
}

// rankHashtags accumulates per-tag counts and engagement over all videos and
// returns the top n tags by count. The sort is stable with ties broken by
// first-seen order so results are reproducible.
func rankHashtags(videos []video.Video, n int) []store.HashtagStat {
	stats := make(map[string]*tagStat)
	var order []string

	for _, v := range videos {
		rate := v.EngagementRate()
		for _, raw := range v.Hashtags {
			tag := NormalizeTag(raw)
			if tag == "" || genericTags[tag] {
				continue
			}
			st, ok := stats[tag]
			if !ok {
				st = &tagStat{}
				stats[tag] = st
				order = append(order, tag)
			}
			st.count++
			st.totalEngagement += rate
		}
	}

	firstSeen := make(map[string]int, len(order))
	for i, tag := range order {
		firstSeen[tag] = i
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := stats[order[i]], stats[order[j]]
		if a.count != b.count {
			return a.count > b.count
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}

	out := make([]store.HashtagStat, 0, len(order))
	for _, tag := range order {
		st := stats[tag]
		out = append(out, store.HashtagStat{
			Tag:           tag,
			Count:         st.count,
			AvgEngagement: st.totalEngagement / float64(st.count),
		})
	}
	return out
}
