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
)

// ListDisplays handles GET /api/displays with an optional ?room= filter
func ListDisplays(w http.ResponseWriter, r *http.Request) {
	displays, err := db.ListDisplays(db.DB, r.URL.Query().Get("room"))
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, displays)
}

// GetDisplay handles GET /api/displays/{address}
func GetDisplay(w http.ResponseWriter, r *http.Request) {
	display, err := db.GetDisplay(db.DB, r.PathValue("address"))
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "Display not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, display)
}

// CreateDisplay handles POST /api/displays
func CreateDisplay(w http.ResponseWriter, r *http.Request) {
	var display models.Display
	if err := json.NewDecoder(r.Body).Decode(&display); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(display.Address) == "" || strings.TrimSpace(display.RoomCode) == "" {
		JSONError(w, "Missing required fields: address, room_code", http.StatusBadRequest)
		return
	}

	if err := db.InsertDisplay(db.DB, display); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			JSONError(w, "Display already exists", http.StatusConflict)
			return
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			JSONError(w, "Unknown room code", http.StatusBadRequest)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Display created: %s (%s)", display.Address, display.RoomCode)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, display)
}

// UpdateDisplay handles PUT /api/displays/{address}
func UpdateDisplay(w http.ResponseWriter, r *http.Request) {
	var display models.Display
	if err := json.NewDecoder(r.Body).Decode(&display); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	display.Address = r.PathValue("address")

	if err := db.UpdateDisplay(db.DB, display); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Display not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, display)
}

// DeleteDisplay handles DELETE /api/displays/{address}
func DeleteDisplay(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	if err := db.DeleteDisplay(db.DB, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Display not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("🗑️  Display deleted: %s", address)
	JSONResponse(w, map[string]string{"status": "deleted"})
}
