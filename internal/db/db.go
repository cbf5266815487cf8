package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

var DB *sql.DB

// Init initializes the database connection and schema
func Init(path string) error {
	var err error

	if err = ensureDirectory(path); err != nil {
		return err
	}

	DB, err = sql.Open("sqlite", DSN(path))
	if err != nil {
		return fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	enableWAL()
	if err = CreateSchema(DB); err != nil {
		return err
	}
	return nil
}

// DSN builds the sqlite connection string. foreign_keys is a
// per-connection pragma in sqlite, so it must ride in the DSN where the
// driver applies it to every pooled connection; a one-shot Exec would
// only configure whichever connection happened to run it.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
}

func ensureDirectory(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}
	return nil
}

func enableWAL() {
	if _, err := DB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("⚠️  Could not enable WAL mode: %v", err)
	}
}

// CreateSchema creates the inventory and auth tables. Room deletions
// cascade to the hosts, displays and PDUs registered in that room.
func CreateSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS rooms (
		code TEXT PRIMARY KEY,
		description TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS hosts (
		address TEXT PRIMARY KEY,
		mac TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		platform TEXT NOT NULL DEFAULT '',
		room_code TEXT NOT NULL,
		config1 TEXT NOT NULL DEFAULT '',
		config2 TEXT NOT NULL DEFAULT '',
		config3 TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_hosts_room ON hosts(room_code);

	CREATE TABLE IF NOT EXISTS displays (
		address TEXT PRIMARY KEY,
		mac TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		room_code TEXT NOT NULL,
		FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_displays_room ON displays(room_code);

	CREATE TABLE IF NOT EXISTS pdus (
		address TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		password TEXT NOT NULL,
		driver_path TEXT NOT NULL DEFAULT '',
		room_code TEXT NOT NULL,
		FOREIGN KEY (room_code) REFERENCES rooms(code) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_pdus_room ON pdus(room_code);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		expires_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
