package database

const schema = `
CREATE TABLE IF NOT EXISTS processed_emails (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uid INTEGER NOT NULL,
    subject TEXT,
    sender TEXT,
    category TEXT NOT NULL,
    sentiment TEXT,
    score REAL DEFAULT 0,
    fallback BOOLEAN DEFAULT false,
    preview BOOLEAN DEFAULT false,
    processing_ms INTEGER DEFAULT 0,
    content_length INTEGER DEFAULT 0,
    processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_emails(processed_at);
CREATE INDEX IF NOT EXISTS idx_processed_category ON processed_emails(category);
`
