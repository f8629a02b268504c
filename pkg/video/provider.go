package video

import (
	"context"
	"time"
)

// Video is one short-video record returned by the search provider.
type Video struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Plays       int64     `json:"plays"`
	Likes       int64     `json:"likes"`
	Comments    int64     `json:"comments"`
	Shares      int64     `json:"shares"`
	Hashtags    []string  `json:"hashtags"`
	CreatedAt   time.Time `json:"created_at"`
}

// EngagementRate returns (likes+comments+shares)/plays as a percentage.
// Plays below 1 count as 1 so a zero-play video never divides by zero.
func (v Video) EngagementRate() float64 {
	plays := v.Plays
	if plays < 1 {
		plays = 1
	}
	return float64(v.Likes+v.Comments+v.Shares) / float64(plays) * 100
}

// Provider is the social-video search collaborator. A provider may return
// zero videos for a keyword; that is a valid result, not an error.
type Provider interface {
	Search(ctx context.Context, keyword string, limit int) ([]Video, error)
}
