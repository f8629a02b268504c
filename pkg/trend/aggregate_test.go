package trend

import (
	"testing"

	"github.com/yihengz/trendscope/pkg/video"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct{ in, want string }{
		{"#BookTok", "booktok"},
		{"  #GymLife  ", "gymlife"},
		{"cleantok", "cleantok"},
		{"#", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTag(tt.in); got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsGenericTag(t *testing.T) {
	for _, tag := range []string{"fyp", "viral", "foryou", "trending"} {
		if !IsGenericTag(tag) {
			t.Errorf("%q should be generic", tag)
		}
	}
	if IsGenericTag("booktok") {
		t.Error("booktok should not be generic")
	}
}

func TestSummarize(t *testing.T) {
	videos := []video.Video{
		{ID: "a", Plays: 1000, Likes: 100},
		{ID: "b", Plays: 3000, Likes: 60},
	}
	agg := Summarize(videos)

	if agg.TotalVideos != 2 {
		t.Errorf("TotalVideos = %d, want 2", agg.TotalVideos)
	}
	if agg.TotalViews != 4000 {
		t.Errorf("TotalViews = %d, want 4000", agg.TotalViews)
	}
	if agg.AvgViews != 2000 {
		t.Errorf("AvgViews = %d, want 2000", agg.AvgViews)
	}
	// Rates are 10% and 2%, mean 6%.
	if agg.AvgEngagement != 6 {
		t.Errorf("AvgEngagement = %v, want 6", agg.AvgEngagement)
	}
}

func TestSummarizeRoundsAvgViews(t *testing.T) {
	videos := []video.Video{
		{ID: "a", Plays: 1},
		{ID: "b", Plays: 2},
	}
	// 3/2 = 1.5 rounds half away from zero.
	if agg := Summarize(videos); agg.AvgViews != 2 {
		t.Errorf("AvgViews = %d, want 2", agg.AvgViews)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	agg := Summarize(nil)
	if agg.TotalVideos != 0 || agg.TotalViews != 0 || agg.AvgViews != 0 {
		t.Errorf("empty batch should be all zeros, got %+v", agg)
	}
}

func TestRankHashtagsOrderingAndFilter(t *testing.T) {
	videos := []video.Video{
		{ID: "a", Plays: 100, Likes: 10, Hashtags: []string{"#BookTok", "#fyp", "#reading"}},
		{ID: "b", Plays: 100, Likes: 5, Hashtags: []string{"#booktok", "#viral"}},
		{ID: "c", Plays: 100, Likes: 2, Hashtags: []string{"#reading", "#fantasy"}},
	}
	tags := rankHashtags(videos, 10)

	if len(tags) != 3 {
		t.Fatalf("got %d tags, want 3 (generic tags filtered): %+v", len(tags), tags)
	}
	if tags[0].Tag != "booktok" || tags[0].Count != 2 {
		t.Errorf("tags[0] = %+v, want booktok x2", tags[0])
	}
	// reading also appears twice; booktok wins the tie by first appearance.
	if tags[1].Tag != "reading" || tags[1].Count != 2 {
		t.Errorf("tags[1] = %+v, want reading x2", tags[1])
	}
	if tags[2].Tag != "fantasy" || tags[2].Count != 1 {
		t.Errorf("tags[2] = %+v, want fantasy x1", tags[2])
	}
}

func TestRankHashtagsLimit(t *testing.T) {
	v := video.Video{ID: "a", Plays: 100, Hashtags: []string{
		"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11", "t12",
	}}
	if got := len(rankHashtags([]video.Video{v}, 10)); got != 10 {
		t.Errorf("got %d tags, want 10", got)
	}
}
