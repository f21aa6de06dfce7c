package journal

const schemaSQL = `
CREATE TABLE IF NOT EXISTS firings (
    id           TEXT PRIMARY KEY,
    session_id   TEXT NOT NULL,
    hook_event   TEXT NOT NULL,
    trigger_type TEXT NOT NULL,
    percent      INTEGER NOT NULL DEFAULT 0,
    consumed     INTEGER NOT NULL DEFAULT 0,
    capacity     INTEGER NOT NULL DEFAULT 0,
    reason       TEXT NOT NULL,
    created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_firings_created ON firings(created_at);
CREATE INDEX IF NOT EXISTS idx_firings_session ON firings(session_id);
`
