package settings

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	hubdb "hubgate/internal/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", hubdb.DSN(":memory:"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSettingsTable(db); err != nil {
		t.Fatalf("Failed to initialize settings table: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestInitSettingsTableSeedsDefaults(t *testing.T) {
	db := setupTestDB(t)

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM settings").Scan(&count); err != nil {
		t.Fatalf("Failed to query settings table: %v", err)
	}
	if count != len(Defaults) {
		t.Errorf("Expected %d seeded settings, got %d", len(Defaults), count)
	}

	// Re-running is a no-op and preserves edits.
	if err := UpdateSetting(db, "projector", "max_retries", "7"); err != nil {
		t.Fatalf("UpdateSetting failed: %v", err)
	}
	if err := InitSettingsTable(db); err != nil {
		t.Fatalf("Second InitSettingsTable failed: %v", err)
	}
	if got := GetIntSetting(db, "projector", "max_retries", 0); got != 7 {
		t.Errorf("Expected edited value 7 to survive re-init, got %d", got)
	}
}

func TestUpdateSettingValidatesType(t *testing.T) {
	db := setupTestDB(t)

	if err := UpdateSetting(db, "projector", "max_retries", "abc"); err == nil {
		t.Error("Expected error for non-integer value")
	}
	if err := UpdateSetting(db, "notify", "enabled", "maybe"); err == nil {
		t.Error("Expected error for non-boolean value")
	}
	if err := UpdateSetting(db, "nope", "missing", "1"); err == nil {
		t.Error("Expected error for unknown setting")
	}
}

func TestTypedAccessorsFallBack(t *testing.T) {
	db := setupTestDB(t)

	if got := GetIntSetting(db, "ssh", "timeout_seconds", 99); got != 20 {
		t.Errorf("Expected stored 20, got %d", got)
	}
	if got := GetIntSetting(db, "ssh", "no_such_key", 99); got != 99 {
		t.Errorf("Expected fallback 99, got %d", got)
	}
	if got := GetBoolSetting(db, "notify", "enabled", true); got {
		t.Error("Expected stored false")
	}
	if got := GetStringSetting(db, "notify", "urls", "x"); got != "" {
		t.Errorf("Expected stored empty string, got %q", got)
	}
	if got := GetDurationSetting(db, "pdu", "dialog_wait_seconds", time.Minute); got != 10*time.Second {
		t.Errorf("Expected 10s, got %v", got)
	}
	if got := GetDurationSetting(db, "pdu", "no_such_key", time.Minute); got != time.Minute {
		t.Errorf("Expected fallback 1m, got %v", got)
	}
}
