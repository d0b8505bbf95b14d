package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Runs: one row per ranking job written to this database
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    finished_at TIMESTAMP,
    status TEXT NOT NULL DEFAULT 'running', -- running, complete, failed
    runner TEXT NOT NULL,
    top_k INTEGER NOT NULL,

    -- Input paths as a JSON array
    inputs TEXT NOT NULL,

    -- Runner counters, filled in when the run finishes
    lines_read INTEGER DEFAULT 0,
    map_outputs INTEGER DEFAULT 0,
    year_count INTEGER DEFAULT 0,
    record_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

-- Year rankings: the top words of each year within a run
CREATE TABLE IF NOT EXISTS year_rankings (
    run_id INTEGER NOT NULL,
    year INTEGER NOT NULL,
    rank INTEGER NOT NULL,
    word TEXT NOT NULL,
    count INTEGER NOT NULL,
    year_total INTEGER NOT NULL,
    PRIMARY KEY (run_id, year, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rankings_word ON year_rankings(word);
`
