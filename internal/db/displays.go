package db

import (
	"database/sql"
	"fmt"

	"hubgate/internal/models"
)

const displayColumns = "address, mac, name, type, username, password, room_code"

// ListDisplays returns every display, optionally filtered by room code.
func ListDisplays(db *sql.DB, roomCode string) ([]models.Display, error) {
	query := "SELECT " + displayColumns + " FROM displays ORDER BY address"
	args := []any{}
	if roomCode != "" {
		query = "SELECT " + displayColumns + " FROM displays WHERE room_code = ? ORDER BY address"
		args = append(args, roomCode)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list displays: %w", err)
	}
	defer rows.Close()

	var displays []models.Display
	for rows.Next() {
		var d models.Display
		if err := rows.Scan(&d.Address, &d.MAC, &d.Name, &d.Type, &d.Username, &d.Password, &d.RoomCode); err != nil {
			return nil, err
		}
		displays = append(displays, d)
	}
	return displays, rows.Err()
}

// GetDisplay returns the display with the given address, or sql.ErrNoRows.
func GetDisplay(db *sql.DB, address string) (models.Display, error) {
	var d models.Display
	err := db.QueryRow("SELECT "+displayColumns+" FROM displays WHERE address = ?", address).
		Scan(&d.Address, &d.MAC, &d.Name, &d.Type, &d.Username, &d.Password, &d.RoomCode)
	return d, err
}

// InsertDisplay creates a new display record.
func InsertDisplay(db *sql.DB, d models.Display) error {
	_, err := db.Exec(
		"INSERT INTO displays ("+displayColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		d.Address, d.MAC, d.Name, d.Type, d.Username, d.Password, d.RoomCode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert display %s: %w", d.Address, err)
	}
	return nil
}

// UpdateDisplay replaces every mutable field of a display record.
func UpdateDisplay(db *sql.DB, d models.Display) error {
	res, err := db.Exec(
		"UPDATE displays SET mac = ?, name = ?, type = ?, username = ?, password = ?, room_code = ? WHERE address = ?",
		d.MAC, d.Name, d.Type, d.Username, d.Password, d.RoomCode, d.Address,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteDisplay removes a display record.
func DeleteDisplay(db *sql.DB, address string) error {
	res, err := db.Exec("DELETE FROM displays WHERE address = ?", address)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
