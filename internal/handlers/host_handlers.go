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

// ListHosts handles GET /api/hosts with an optional ?room= filter
func ListHosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := db.ListHosts(db.DB, r.URL.Query().Get("room"))
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, hosts)
}

// GetHost handles GET /api/hosts/{address}
func GetHost(w http.ResponseWriter, r *http.Request) {
	host, err := db.GetHost(db.DB, r.PathValue("address"))
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "Host not found", http.StatusNotFound)
		return
	}
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, host)
}

// CreateHost handles POST /api/hosts
func CreateHost(w http.ResponseWriter, r *http.Request) {
	var host models.Host
	if err := json.NewDecoder(r.Body).Decode(&host); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(host.Address) == "" || strings.TrimSpace(host.RoomCode) == "" {
		JSONError(w, "Missing required fields: address, room_code", http.StatusBadRequest)
		return
	}

	if err := db.InsertHost(db.DB, host); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			JSONError(w, "Host already exists", http.StatusConflict)
			return
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint") {
			JSONError(w, "Unknown room code", http.StatusBadRequest)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Host created: %s (%s)", host.Address, host.RoomCode)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, host)
}

// UpdateHost handles PUT /api/hosts/{address}
func UpdateHost(w http.ResponseWriter, r *http.Request) {
	var host models.Host
	if err := json.NewDecoder(r.Body).Decode(&host); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	host.Address = r.PathValue("address")

	if err := db.UpdateHost(db.DB, host); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Host not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}
	JSONResponse(w, host)
}

// DeleteHost handles DELETE /api/hosts/{address}
func DeleteHost(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	if err := db.DeleteHost(db.DB, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "Host not found", http.StatusNotFound)
			return
		}
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	log.Printf("🗑️  Host deleted: %s", address)
	JSONResponse(w, map[string]string{"status": "deleted"})
}
