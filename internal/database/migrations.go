package database

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    total_photos INTEGER NOT NULL DEFAULT 0,
    downloaded_photos INTEGER NOT NULL DEFAULT 0,
    last_sync DATETIME,
    position INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    CHECK (downloaded_photos >= 0 AND downloaded_photos <= total_photos)
);

CREATE TABLE IF NOT EXISTS account_configs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE,
    folder_format TEXT NOT NULL,
    remove_deleted BOOLEAN NOT NULL DEFAULT false,
    concurrency INTEGER NOT NULL CHECK (concurrency >= 1),
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_position ON accounts(position);
`
