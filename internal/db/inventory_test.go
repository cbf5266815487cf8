package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"hubgate/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", DSN(":memory:"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps the in-memory database alive and shared.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := CreateSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return db
}

func TestRoomCRUD(t *testing.T) {
	db := setupTestDB(t)

	if err := InsertRoom(db, models.Room{Code: "IH101", Description: "Ideation space"}); err != nil {
		t.Fatalf("InsertRoom failed: %v", err)
	}

	room, err := GetRoom(db, "IH101")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if room.Description != "Ideation space" {
		t.Errorf("Expected description 'Ideation space', got %q", room.Description)
	}

	if err := UpdateRoom(db, models.Room{Code: "IH101", Description: "Meeting room"}); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}
	room, _ = GetRoom(db, "IH101")
	if room.Description != "Meeting room" {
		t.Errorf("Expected updated description, got %q", room.Description)
	}

	if err := DeleteRoom(db, "IH101"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, err := GetRoom(db, "IH101"); err != sql.ErrNoRows {
		t.Errorf("Expected ErrNoRows after delete, got %v", err)
	}
}

func TestDeleteRoomCascades(t *testing.T) {
	db := setupTestDB(t)

	if err := InsertRoom(db, models.Room{Code: "IH102"}); err != nil {
		t.Fatalf("InsertRoom failed: %v", err)
	}
	if err := InsertHost(db, models.Host{
		Address: "10.0.0.10", Username: "admin", Password: "pw",
		Platform: "windows", RoomCode: "IH102",
	}); err != nil {
		t.Fatalf("InsertHost failed: %v", err)
	}
	if err := InsertDisplay(db, models.Display{
		Address: "10.0.0.20", Username: "admin", Password: "pw", RoomCode: "IH102",
	}); err != nil {
		t.Fatalf("InsertDisplay failed: %v", err)
	}
	if err := InsertPDU(db, models.PDU{
		Address: "10.0.0.30", Username: "admin", Password: "pw", RoomCode: "IH102",
	}); err != nil {
		t.Fatalf("InsertPDU failed: %v", err)
	}

	if err := DeleteRoom(db, "IH102"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}

	if hosts, _ := ListHosts(db, ""); len(hosts) != 0 {
		t.Errorf("Expected hosts to cascade-delete, got %d remaining", len(hosts))
	}
	if displays, _ := ListDisplays(db, ""); len(displays) != 0 {
		t.Errorf("Expected displays to cascade-delete, got %d remaining", len(displays))
	}
	if pdus, _ := ListPDUs(db); len(pdus) != 0 {
		t.Errorf("Expected pdus to cascade-delete, got %d remaining", len(pdus))
	}
}

func TestForeignKeysEnforcedOnEveryConnection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.db")
	db, err := sql.Open("sqlite", DSN(path))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := CreateSchema(db); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	if err := InsertRoom(db, models.Room{Code: "IH103"}); err != nil {
		t.Fatalf("InsertRoom failed: %v", err)
	}
	if err := InsertHost(db, models.Host{
		Address: "10.0.0.40", Username: "admin", Password: "pw",
		Platform: "windows", RoomCode: "IH103",
	}); err != nil {
		t.Fatalf("InsertHost failed: %v", err)
	}

	// Hold one connection so the next request opens a fresh one, then
	// delete the room on that fresh connection. The cascade only fires
	// if the DSN armed foreign keys on it too.
	ctx := context.Background()
	first, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire first connection: %v", err)
	}
	defer first.Close()
	second, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Failed to acquire second connection: %v", err)
	}
	defer second.Close()

	if _, err := second.ExecContext(ctx, "DELETE FROM rooms WHERE code = ?", "IH103"); err != nil {
		t.Fatalf("Delete on second connection failed: %v", err)
	}
	if hosts, _ := ListHosts(db, ""); len(hosts) != 0 {
		t.Errorf("Expected hosts to cascade-delete, got %d remaining", len(hosts))
	}

	if _, err := second.ExecContext(ctx,
		"INSERT INTO hosts (address, username, password, room_code) VALUES (?, ?, ?, ?)",
		"10.0.0.41", "admin", "pw", "NOPE"); err == nil {
		t.Error("Expected unknown room insert to fail on second connection")
	}
}

func TestHostRoomFilter(t *testing.T) {
	db := setupTestDB(t)

	InsertRoom(db, models.Room{Code: "A"})
	InsertRoom(db, models.Room{Code: "B"})
	InsertHost(db, models.Host{Address: "10.0.1.1", Username: "u", Password: "p", RoomCode: "A"})
	InsertHost(db, models.Host{Address: "10.0.1.2", Username: "u", Password: "p", RoomCode: "B"})

	hosts, err := ListHosts(db, "A")
	if err != nil {
		t.Fatalf("ListHosts failed: %v", err)
	}
	if len(hosts) != 1 || hosts[0].Address != "10.0.1.1" {
		t.Errorf("Expected only room A host, got %+v", hosts)
	}
}

func TestUpdatePDUCredentials(t *testing.T) {
	db := setupTestDB(t)

	InsertRoom(db, models.Room{Code: "A"})
	InsertPDU(db, models.PDU{Address: "10.0.2.1", Username: "admin", Password: "old", RoomCode: "A"})

	if err := UpdatePDUCredentials(db, "10.0.2.1", "admin", "new"); err != nil {
		t.Fatalf("UpdatePDUCredentials failed: %v", err)
	}
	p, _ := GetPDU(db, "10.0.2.1")
	if p.Password != "new" {
		t.Errorf("Expected new password, got %q", p.Password)
	}

	if err := UpdatePDUCredentials(db, "10.9.9.9", "x", "y"); err != sql.ErrNoRows {
		t.Errorf("Expected ErrNoRows for unknown address, got %v", err)
	}
}
