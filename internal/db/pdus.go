package db

import (
	"database/sql"
	"fmt"

	"hubgate/internal/models"
)

const pduColumns = "address, username, password, driver_path, room_code"

// ListPDUs returns every PDU record. The device registry rebuilds itself
// from this list.
func ListPDUs(db *sql.DB) ([]models.PDU, error) {
	rows, err := db.Query("SELECT " + pduColumns + " FROM pdus ORDER BY address")
	if err != nil {
		return nil, fmt.Errorf("failed to list pdus: %w", err)
	}
	defer rows.Close()

	var pdus []models.PDU
	for rows.Next() {
		var p models.PDU
		if err := rows.Scan(&p.Address, &p.Username, &p.Password, &p.DriverPath, &p.RoomCode); err != nil {
			return nil, err
		}
		pdus = append(pdus, p)
	}
	return pdus, rows.Err()
}

// GetPDU returns the PDU with the given address, or sql.ErrNoRows.
func GetPDU(db *sql.DB, address string) (models.PDU, error) {
	var p models.PDU
	err := db.QueryRow("SELECT "+pduColumns+" FROM pdus WHERE address = ?", address).
		Scan(&p.Address, &p.Username, &p.Password, &p.DriverPath, &p.RoomCode)
	return p, err
}

// InsertPDU creates a new PDU record.
func InsertPDU(db *sql.DB, p models.PDU) error {
	_, err := db.Exec(
		"INSERT INTO pdus ("+pduColumns+") VALUES (?, ?, ?, ?, ?)",
		p.Address, p.Username, p.Password, p.DriverPath, p.RoomCode,
	)
	if err != nil {
		return fmt.Errorf("failed to insert pdu %s: %w", p.Address, err)
	}
	return nil
}

// UpdatePDUCredentials stores new credentials after a successful
// user-settings change on the device.
func UpdatePDUCredentials(db *sql.DB, address, username, password string) error {
	res, err := db.Exec("UPDATE pdus SET username = ?, password = ? WHERE address = ?",
		username, password, address)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeletePDU removes a PDU record.
func DeletePDU(db *sql.DB, address string) error {
	res, err := db.Exec("DELETE FROM pdus WHERE address = ?", address)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
