package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"hubgate/internal/db"
	"hubgate/internal/models"
	"hubgate/internal/pdu"
)

// Registry is set from main.go after the device registry is built.
var Registry *pdu.Registry

// ListRooms handles GET /api/rooms
func ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := db.ListRooms(db.DB)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, rooms)
}

// GetRoom handles GET /api/rooms/{code}
func GetRoom(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	room, err := db.GetRoom(db.DB, code)
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "Room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, room)
}

// CreateRoom handles POST /api/rooms
func CreateRoom(w http.ResponseWriter, r *http.Request) {
	var room models.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	room.Code = strings.TrimSpace(room.Code)
	if room.Code == "" {
		JSONError(w, "Room code is required", http.StatusBadRequest)
		return
	}

	if err := db.InsertRoom(db.DB, room); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			JSONError(w, "Room already exists", http.StatusConflict)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Room created: %s", room.Code)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, room)
}

// UpdateRoom handles PUT /api/rooms/{code}
func UpdateRoom(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var room models.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	room.Code = code

	if err := db.UpdateRoom(db.DB, room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Room not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, room)
}

// DeleteRoom handles DELETE /api/rooms/{code}. Deleting a room
// cascades to its devices, so any cached PDU sessions for the room are
// closed and evicted first.
func DeleteRoom(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	var cascaded []string
	if pdus, err := db.ListPDUs(db.DB); err == nil {
		for _, p := range pdus {
			if p.RoomCode == code {
				cascaded = append(cascaded, p.Address)
			}
		}
	}

	if err := db.DeleteRoom(db.DB, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Room not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	if Registry != nil && len(cascaded) > 0 {
		Registry.Invalidate(cascaded...)
	}

	log.Printf("🗑️  Room deleted: %s (%d cascaded PDU sessions)", code, len(cascaded))
	JSONResponse(w, map[string]string{"status": "deleted"})
}
