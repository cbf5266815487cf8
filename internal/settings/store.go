package settings

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// InitSettingsTable creates the settings table and seeds defaults.
func InitSettingsTable(db *sql.DB) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		value_type TEXT DEFAULT 'string',
		description TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(category, key)
	);

	CREATE INDEX IF NOT EXISTS idx_settings_category ON settings(category);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}

	insertSQL := `
	INSERT OR IGNORE INTO settings (category, key, value, value_type, description)
	VALUES (?, ?, ?, ?, ?)
	`

	for _, s := range Defaults {
		if _, err := db.Exec(insertSQL, s.Category, s.Key, s.Value, s.ValueType, s.Description); err != nil {
			return fmt.Errorf("failed to insert default setting %s.%s: %w", s.Category, s.Key, err)
		}
	}

	return nil
}

// GetAllSettings returns every setting ordered by category and key.
func GetAllSettings(db *sql.DB) ([]Setting, error) {
	query := `
	SELECT id, category, key, value, value_type, COALESCE(description, ''), updated_at
	FROM settings
	ORDER BY category, key
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		var updatedAt string
		if err := rows.Scan(&s.ID, &s.Category, &s.Key, &s.Value, &s.ValueType, &s.Description, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan setting: %w", err)
		}
		s.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
		settings = append(settings, s)
	}

	return settings, rows.Err()
}

// GetSetting returns a setting by category and key, nil when absent.
func GetSetting(db *sql.DB, category, key string) (*Setting, error) {
	query := `
	SELECT id, category, key, value, value_type, COALESCE(description, ''), updated_at
	FROM settings
	WHERE category = ? AND key = ?
	`

	var s Setting
	var updatedAt string
	err := db.QueryRow(query, category, key).Scan(
		&s.ID, &s.Category, &s.Key, &s.Value, &s.ValueType, &s.Description, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s.%s: %w", category, key, err)
	}
	s.UpdatedAt, _ = time.Parse("2006-01-02 15:04:05", updatedAt)
	return &s, nil
}

// UpdateSetting validates and stores a new value for a known setting.
func UpdateSetting(db *sql.DB, category, key, value string) error {
	existing, err := GetSetting(db, category, key)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("setting %s.%s not found", category, key)
	}

	if err := validateValue(existing.ValueType, value); err != nil {
		return fmt.Errorf("invalid value for %s.%s: %w", category, key, err)
	}

	query := `
	UPDATE settings
	SET value = ?, updated_at = CURRENT_TIMESTAMP
	WHERE category = ? AND key = ?
	`

	if _, err := db.Exec(query, value, category, key); err != nil {
		return fmt.Errorf("failed to update setting %s.%s: %w", category, key, err)
	}
	return nil
}

// GetIntSetting retrieves a setting as an integer, falling back to the
// given default when the setting is missing or malformed.
func GetIntSetting(db *sql.DB, category, key string, defaultVal int) int {
	s, err := GetSetting(db, category, key)
	if err != nil || s == nil {
		return defaultVal
	}
	val, err := strconv.Atoi(s.Value)
	if err != nil {
		return defaultVal
	}
	return val
}

// GetBoolSetting retrieves a setting as a bool with a fallback.
func GetBoolSetting(db *sql.DB, category, key string, defaultVal bool) bool {
	s, err := GetSetting(db, category, key)
	if err != nil || s == nil {
		return defaultVal
	}
	return s.Value == "true"
}

// GetStringSetting retrieves a setting as a string with a fallback.
func GetStringSetting(db *sql.DB, category, key, defaultVal string) string {
	s, err := GetSetting(db, category, key)
	if err != nil || s == nil {
		return defaultVal
	}
	return s.Value
}

// GetDurationSetting reads an integer-seconds setting as a Duration.
func GetDurationSetting(db *sql.DB, category, key string, defaultVal time.Duration) time.Duration {
	s, err := GetSetting(db, category, key)
	if err != nil || s == nil {
		return defaultVal
	}
	secs, err := strconv.Atoi(s.Value)
	if err != nil || secs <= 0 {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
