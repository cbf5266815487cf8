package db

import (
	"database/sql"
	"fmt"

	"hubgate/internal/models"
)

// ListRooms returns every room, ordered by code.
func ListRooms(db *sql.DB) ([]models.Room, error) {
	rows, err := db.Query("SELECT code, description FROM rooms ORDER BY code")
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var r models.Room
		if err := rows.Scan(&r.Code, &r.Description); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// GetRoom returns the room with the given code, or sql.ErrNoRows.
func GetRoom(db *sql.DB, code string) (models.Room, error) {
	var r models.Room
	err := db.QueryRow("SELECT code, description FROM rooms WHERE code = ?", code).
		Scan(&r.Code, &r.Description)
	return r, err
}

// InsertRoom creates a new room.
func InsertRoom(db *sql.DB, r models.Room) error {
	_, err := db.Exec("INSERT INTO rooms (code, description) VALUES (?, ?)", r.Code, r.Description)
	if err != nil {
		return fmt.Errorf("failed to insert room %s: %w", r.Code, err)
	}
	return nil
}

// UpdateRoom updates a room's description.
func UpdateRoom(db *sql.DB, r models.Room) error {
	res, err := db.Exec("UPDATE rooms SET description = ? WHERE code = ?", r.Description, r.Code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRoom removes a room. Hosts, displays and PDUs in the room are
// removed by the schema's cascade rules; the caller is responsible for
// tearing down any live PDU sessions first.
func DeleteRoom(db *sql.DB, code string) error {
	res, err := db.Exec("DELETE FROM rooms WHERE code = ?", code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
