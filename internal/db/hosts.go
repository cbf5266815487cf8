package db

import (
	"database/sql"
	"fmt"

	"hubgate/internal/models"
)

const hostColumns = "address, mac, name, description, username, password, platform, room_code, config1, config2, config3"

func scanHost(row interface{ Scan(...any) error }) (models.Host, error) {
	var h models.Host
	err := row.Scan(&h.Address, &h.MAC, &h.Name, &h.Description, &h.Username,
		&h.Password, &h.Platform, &h.RoomCode, &h.Config1, &h.Config2, &h.Config3)
	return h, err
}

// ListHosts returns every host, optionally filtered by room code.
func ListHosts(db *sql.DB, roomCode string) ([]models.Host, error) {
	query := "SELECT " + hostColumns + " FROM hosts ORDER BY address"
	args := []any{}
	if roomCode != "" {
		query = "SELECT " + hostColumns + " FROM hosts WHERE room_code = ? ORDER BY address"
		args = append(args, roomCode)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []models.Host
	for rows.Next() {
		h, err := scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

// GetHost returns the host with the given address, or sql.ErrNoRows.
func GetHost(db *sql.DB, address string) (models.Host, error) {
	return scanHost(db.QueryRow("SELECT "+hostColumns+" FROM hosts WHERE address = ?", address))
}

// InsertHost creates a new host record.
func InsertHost(db *sql.DB, h models.Host) error {
	_, err := db.Exec(
		"INSERT INTO hosts ("+hostColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		h.Address, h.MAC, h.Name, h.Description, h.Username, h.Password,
		h.Platform, h.RoomCode, h.Config1, h.Config2, h.Config3,
	)
	if err != nil {
		return fmt.Errorf("failed to insert host %s: %w", h.Address, err)
	}
	return nil
}

// UpdateHost replaces every mutable field of a host record.
func UpdateHost(db *sql.DB, h models.Host) error {
	res, err := db.Exec(
		`UPDATE hosts SET mac = ?, name = ?, description = ?, username = ?, password = ?,
		 platform = ?, room_code = ?, config1 = ?, config2 = ?, config3 = ? WHERE address = ?`,
		h.MAC, h.Name, h.Description, h.Username, h.Password,
		h.Platform, h.RoomCode, h.Config1, h.Config2, h.Config3, h.Address,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteHost removes a host record.
func DeleteHost(db *sql.DB, address string) error {
	res, err := db.Exec("DELETE FROM hosts WHERE address = ?", address)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
