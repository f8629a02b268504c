package video

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client searches a short-video platform API over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewClient creates a search client for the given API endpoint.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type searchResponse struct {
	Videos []struct {
		ID       string   `json:"id"`
		Desc     string   `json:"desc"`
		Author   string   `json:"author"`
		Hashtags []string `json:"hashtags"`
		Stats    struct {
			PlayCount    int64 `json:"play_count"`
			DiggCount    int64 `json:"digg_count"`
			CommentCount int64 `json:"comment_count"`
			ShareCount   int64 `json:"share_count"`
		} `json:"stats"`
		CreateTime int64 `json:"create_time"`
	} `json:"videos"`
}

// Search fetches up to limit videos matching the keyword.
func (c *Client) Search(ctx context.Context, keyword string, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 30
	}

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("count", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search %q: status %d", keyword, resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search response for %q: %w", keyword, err)
	}

	videos := make([]Video, 0, len(sr.Videos))
	for _, v := range sr.Videos {
		videos = append(videos, Video{
			ID:          v.ID,
			Description: v.Desc,
			Author:      v.Author,
			Plays:       v.Stats.PlayCount,
			Likes:       v.Stats.DiggCount,
			Comments:    v.Stats.CommentCount,
			Shares:      v.Stats.ShareCount,
			Hashtags:    v.Hashtags,
			CreatedAt:   time.Unix(v.CreateTime, 0).UTC(),
		})
	}
	return videos, nil
}
