package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// TrackedKeyword is a user-curated search term monitored over time.
type TrackedKeyword struct {
	ID             int64      `db:"id" json:"id"`
	UserID         string     `db:"user_id" json:"user_id"`
	Keyword        string     `db:"keyword" json:"keyword"`
	DisplayName    string     `db:"display_name" json:"display_name,omitempty"`
	Color          string     `db:"color" json:"color,omitempty"`
	Priority       int        `db:"priority" json:"priority"`
	LastAnalyzedAt *time.Time `db:"last_analyzed_at" json:"last_analyzed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// HashtagStat is one entry of a snapshot's ranked hashtag list.
type HashtagStat struct {
	Tag           string  `json:"tag"`
	Count         int     `json:"count"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// Snapshot is one day's aggregated metrics and scores for one keyword.
// Snapshots are immutable: at most one exists per (keyword, calendar day)
// and a second sync for the same day is a no-op.
type Snapshot struct {
	ID                  int64         `db:"id" json:"id"`
	KeywordID           int64         `db:"keyword_id" json:"keyword_id"`
	Date                time.Time     `db:"date" json:"date"`
	TotalViews          int64         `db:"total_views" json:"total_views"`
	AvgViews            int64         `db:"avg_views" json:"avg_views"`
	AvgEngagement       float64       `db:"avg_engagement" json:"avg_engagement"`
	TotalVideos         int           `db:"total_videos" json:"total_videos"`
	ViralCount          int           `db:"viral_count" json:"viral_count"`
	HighPerformingCount int           `db:"high_performing_count" json:"high_performing_count"`
	ViewsGrowth         *float64      `db:"views_growth" json:"views_growth"`
	EngagementGrowth    *float64      `db:"engagement_growth" json:"engagement_growth"`
	VideosGrowth        *float64      `db:"videos_growth" json:"videos_growth"`
	TrendScore          int           `db:"trend_score" json:"trend_score"`
	ViralityScore       int           `db:"virality_score" json:"virality_score"`
	GrowthScore         int           `db:"growth_score" json:"growth_score"`
	TopHashtags         []HashtagStat `db:"-" json:"top_hashtags"`
	TopHashtagsJSON     string        `db:"top_hashtags" json:"-"`
	CreatedAt           time.Time     `db:"created_at" json:"created_at"`
}

// ExplorationRecord is the persisted audit form of one exploration run.
type ExplorationRecord struct {
	ID           int64     `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	Seed         string    `db:"seed" json:"seed"`
	Depth        int       `db:"depth" json:"depth"`
	Strategy     string    `db:"strategy" json:"strategy"`
	ExcludeKnown bool      `db:"exclude_known" json:"exclude_known"`
	ResultJSON   string    `db:"result" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Recommendation statuses and types.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusDismissed = "dismissed"

	TypeKeyword = "keyword"
	TypeAccount = "account"
)

// Recommendation is a keyword or account suggestion with a constrained
// lifecycle: pending -> accepted or pending -> dismissed, both terminal.
type Recommendation struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Value     string    `db:"value" json:"value"`
	Status    string    `db:"status" json:"status"`
	Source    string    `db:"source" json:"source"`
	KeywordID *int64    `db:"keyword_id" json:"keyword_id,omitempty"`
	Score     float64   `db:"score" json:"score"`
	Note      string    `db:"note" json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RecommendationListOpts filters recommendation listings.
type RecommendationListOpts struct {
	Type      string
	Status    string
	KeywordID int64
	Limit     int
}

// Day normalizes a time to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Store is the persistence interface. Snapshot lookups that find nothing
// return (nil, nil); GetKeyword and GetRecommendation return ErrNotFound.
type Store interface {
	CreateKeyword(ctx context.Context, kw *TrackedKeyword) error
	GetKeyword(ctx context.Context, id int64) (*TrackedKeyword, error)
	ListKeywords(ctx context.Context, userID string) ([]TrackedKeyword, error)
	UpdateKeyword(ctx context.Context, id int64, displayName, color string, priority int) error
	TouchLastAnalyzed(ctx context.Context, id int64, at time.Time) error

	InsertSnapshot(ctx context.Context, snap *Snapshot) (bool, error)
	GetSnapshotByDate(ctx context.Context, keywordID int64, date time.Time) (*Snapshot, error)
	LatestSnapshotBefore(ctx context.Context, keywordID int64, date time.Time) (*Snapshot, error)
	ListSnapshots(ctx context.Context, keywordID int64, from, to time.Time) ([]Snapshot, error)

	SaveExploration(ctx context.Context, rec *ExplorationRecord) error

	SaveRecommendations(ctx context.Context, recs []Recommendation) error
	GetRecommendation(ctx context.Context, id string) (*Recommendation, error)
	ListRecommendations(ctx context.Context, opts RecommendationListOpts) ([]Recommendation, error)
	UpdateRecommendationStatus(ctx context.Context, id, status string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateKeyword(ctx context.Context, kw *TrackedKeyword) error {
	if kw.CreatedAt.IsZero() {
		kw.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO keywords (user_id, keyword, display_name, color, priority, last_analyzed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, kw.UserID, kw.Keyword, kw.DisplayName, kw.Color, kw.Priority, kw.LastAnalyzedAt, kw.CreatedAt)
	if err != nil {
		return fmt.Errorf("create keyword %q: %w", kw.Keyword, err)
	}
	kw.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) GetKeyword(ctx context.Context, id int64) (*TrackedKeyword, error) {
	var kw TrackedKeyword
	err := s.db.GetContext(ctx, &kw, "SELECT * FROM keywords WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("keyword %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get keyword %d: %w", id, err)
	}
	return &kw, nil
}

func (s *SQLiteStore) ListKeywords(ctx context.Context, userID string) ([]TrackedKeyword, error) {
	query := "SELECT * FROM keywords"
	var args []any
	if userID != "" {
		query += " WHERE user_id = ?"
		args = append(args, userID)
	}
	query += " ORDER BY priority DESC, created_at ASC, id ASC"

	var kws []TrackedKeyword
	if err := s.db.SelectContext(ctx, &kws, query, args...); err != nil {
		return nil, fmt.Errorf("list keywords: %w", err)
	}
	return kws, nil
}

func (s *SQLiteStore) UpdateKeyword(ctx context.Context, id int64, displayName, color string, priority int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE keywords SET display_name = ?, color = ?, priority = ? WHERE id = ?
	`, displayName, color, priority, id)
	if err != nil {
		return fmt.Errorf("update keyword %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("keyword %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) TouchLastAnalyzed(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE keywords SET last_analyzed_at = ? WHERE id = ?", at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch keyword %d: %w", id, err)
	}
	return nil
}

// InsertSnapshot inserts one daily snapshot. It returns false when a
// snapshot for that keyword and day already exists; the existing row is
// never overwritten.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap *Snapshot) (bool, error) {
	hashtagsJSON, _ := json.Marshal(snap.TopHashtags)
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	snap.Date = Day(snap.Date)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (keyword_id, date, total_views, avg_views, avg_engagement,
			total_videos, viral_count, high_performing_count,
			views_growth, engagement_growth, videos_growth,
			trend_score, virality_score, growth_score, top_hashtags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword_id, date) DO NOTHING
	`, snap.KeywordID, snap.Date, snap.TotalViews, snap.AvgViews, snap.AvgEngagement,
		snap.TotalVideos, snap.ViralCount, snap.HighPerformingCount,
		snap.ViewsGrowth, snap.EngagementGrowth, snap.VideosGrowth,
		snap.TrendScore, snap.ViralityScore, snap.GrowthScore, string(hashtagsJSON), snap.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert snapshot for keyword %d: %w", snap.KeywordID, err)
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	snap.ID, _ = res.LastInsertId()
	return true, nil
}

func (s *SQLiteStore) GetSnapshotByDate(ctx context.Context, keywordID int64, date time.Time) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap,
		"SELECT * FROM snapshots WHERE keyword_id = ? AND date = ?", keywordID, Day(date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot for keyword %d: %w", keywordID, err)
	}
	json.Unmarshal([]byte(snap.TopHashtagsJSON), &snap.TopHashtags)
	return &snap, nil
}

func (s *SQLiteStore) LatestSnapshotBefore(ctx context.Context, keywordID int64, date time.Time) (*Snapshot, error) {
	var snap Snapshot
	err := s.db.GetContext(ctx, &snap, `
		SELECT * FROM snapshots WHERE keyword_id = ? AND date < ?
		ORDER BY date DESC LIMIT 1
	`, keywordID, Day(date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot for keyword %d: %w", keywordID, err)
	}
	json.Unmarshal([]byte(snap.TopHashtagsJSON), &snap.TopHashtags)
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, keywordID int64, from, to time.Time) ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.db.SelectContext(ctx, &snaps, `
		SELECT * FROM snapshots WHERE keyword_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, keywordID, Day(from), Day(to))
	if err != nil {
		return nil, fmt.Errorf("list snapshots for keyword %d: %w", keywordID, err)
	}
	for i := range snaps {
		json.Unmarshal([]byte(snaps[i].TopHashtagsJSON), &snaps[i].TopHashtags)
	}
	return snaps, nil
}

func (s *SQLiteStore) SaveExploration(ctx context.Context, rec *ExplorationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO exploration_runs (user_id, seed, depth, strategy, exclude_known, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.UserID, rec.Seed, rec.Depth, rec.Strategy, rec.ExcludeKnown, rec.ResultJSON, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("save exploration run for %q: %w", rec.Seed, err)
	}
	rec.ID, _ = res.LastInsertId()
	return nil
}

func (s *SQLiteStore) SaveRecommendations(ctx context.Context, recs []Recommendation) error {
	for i := range recs {
		r := &recs[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO recommendations (id, user_id, type, value, status, source, keyword_id, score, note, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, r.ID, r.UserID, r.Type, r.Value, r.Status, r.Source, r.KeywordID, r.Score, r.Note, r.CreatedAt, r.UpdatedAt)
		if err != nil {
			return fmt.Errorf("save recommendation %s: %w", r.ID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) GetRecommendation(ctx context.Context, id string) (*Recommendation, error) {
	var rec Recommendation
	err := s.db.GetContext(ctx, &rec, "SELECT * FROM recommendations WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get recommendation %s: %w", id, err)
	}
	return &rec, nil
}

func (s *SQLiteStore) ListRecommendations(ctx context.Context, opts RecommendationListOpts) ([]Recommendation, error) {
	query := "SELECT * FROM recommendations WHERE 1=1"
	var args []any

	if opts.Type != "" {
		query += " AND type = ?"
		args = append(args, opts.Type)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}
	if opts.KeywordID > 0 {
		query += " AND keyword_id = ?"
		args = append(args, opts.KeywordID)
	}

	query += " ORDER BY score DESC, created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var recs []Recommendation
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	return recs, nil
}

// UpdateRecommendationStatus transitions a pending recommendation to
// accepted or dismissed. Transitions out of a terminal status are rejected
// with ErrTerminalStatus.
func (s *SQLiteStore) UpdateRecommendationStatus(ctx context.Context, id, status string) error {
	if status != StatusAccepted && status != StatusDismissed {
		return fmt.Errorf("invalid target status %q", status)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE recommendations SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, status, time.Now().UTC(), id, StatusPending)
	if err != nil {
		return fmt.Errorf("update recommendation %s: %w", id, err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetRecommendation(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("recommendation %s: %w", id, ErrTerminalStatus)
	}
	return nil
}
