package store

const schema = `
CREATE TABLE IF NOT EXISTS sources (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    feed_url   TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id    INTEGER NOT NULL REFERENCES sources(id),
    title        TEXT NOT NULL,
    excerpt      TEXT NOT NULL DEFAULT '',
    body         TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    published_at DATETIME,
    fetched_at   DATETIME NOT NULL,
    hash         TEXT NOT NULL,
    UNIQUE(source_id, hash)
);

CREATE INDEX IF NOT EXISTS idx_items_source ON items(source_id);
CREATE INDEX IF NOT EXISTS idx_items_published_at ON items(published_at);
CREATE INDEX IF NOT EXISTS idx_items_fetched_at ON items(fetched_at);

CREATE TABLE IF NOT EXISTS events (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    start_at       DATETIME,
    end_at         DATETIME,
    item_count     INTEGER NOT NULL DEFAULT 0,
    breaking_score INTEGER NOT NULL DEFAULT 0,
    is_breaking    BOOLEAN NOT NULL DEFAULT 0,
    has_duplicates BOOLEAN NOT NULL DEFAULT 0,
    alerted        BOOLEAN NOT NULL DEFAULT 0,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_events_end_at ON events(end_at);
CREATE INDEX IF NOT EXISTS idx_events_updated_at ON events(updated_at);
CREATE INDEX IF NOT EXISTS idx_events_breaking ON events(is_breaking);

CREATE TABLE IF NOT EXISTS event_items (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id   INTEGER NOT NULL REFERENCES events(id),
    item_id    INTEGER NOT NULL UNIQUE REFERENCES items(id),
    similarity REAL NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_event_items_event ON event_items(event_id);

CREATE TABLE IF NOT EXISTS event_ai_outputs (
    id             INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id       INTEGER NOT NULL REFERENCES events(id),
    model          TEXT NOT NULL,
    prompt_version TEXT NOT NULL,
    output_text    TEXT NOT NULL,
    created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ai_outputs_event ON event_ai_outputs(event_id);
`
