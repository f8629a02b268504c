package store

const schema = `
CREATE TABLE IF NOT EXISTS keywords (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id          TEXT NOT NULL DEFAULT '',
    keyword          TEXT NOT NULL,
    display_name     TEXT NOT NULL DEFAULT '',
    color            TEXT NOT NULL DEFAULT '',
    priority         INTEGER NOT NULL DEFAULT 0,
    last_analyzed_at DATETIME,
    created_at       DATETIME NOT NULL,
    UNIQUE(user_id, keyword)
);

CREATE INDEX IF NOT EXISTS idx_keywords_user ON keywords(user_id);

CREATE TABLE IF NOT EXISTS snapshots (
    id                    INTEGER PRIMARY KEY AUTOINCREMENT,
    keyword_id            INTEGER NOT NULL REFERENCES keywords(id),
    date                  DATETIME NOT NULL,
    total_views           INTEGER NOT NULL DEFAULT 0,
    avg_views             INTEGER NOT NULL DEFAULT 0,
    avg_engagement        REAL NOT NULL DEFAULT 0,
    total_videos          INTEGER NOT NULL DEFAULT 0,
    viral_count           INTEGER NOT NULL DEFAULT 0,
    high_performing_count INTEGER NOT NULL DEFAULT 0,
    views_growth          REAL,
    engagement_growth     REAL,
    videos_growth         REAL,
    trend_score           INTEGER NOT NULL DEFAULT 0,
    virality_score        INTEGER NOT NULL DEFAULT 0,
    growth_score          INTEGER NOT NULL DEFAULT 0,
    top_hashtags          TEXT NOT NULL DEFAULT '[]',
    created_at            DATETIME NOT NULL,
    UNIQUE(keyword_id, date)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_keyword_date ON snapshots(keyword_id, date);

CREATE TABLE IF NOT EXISTS exploration_runs (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id       TEXT NOT NULL DEFAULT '',
    seed          TEXT NOT NULL,
    depth         INTEGER NOT NULL,
    strategy      TEXT NOT NULL,
    exclude_known BOOLEAN NOT NULL DEFAULT 0,
    result        TEXT NOT NULL DEFAULT '{}',
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendations (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL DEFAULT '',
    type       TEXT NOT NULL,
    value      TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'pending',
    source     TEXT NOT NULL DEFAULT '',
    keyword_id INTEGER REFERENCES keywords(id),
    score      REAL NOT NULL DEFAULT 0,
    note       TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);
CREATE INDEX IF NOT EXISTS idx_recommendations_type ON recommendations(type);
`
