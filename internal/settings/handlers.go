package settings

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
)

// Handler serves the settings API.
type Handler struct {
	DB *sql.DB
}

func NewHandler(database *sql.DB) *Handler {
	return &Handler{DB: database}
}

// GetAllSettings handles GET /api/settings
func (h *Handler) GetAllSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := GetAllSettings(h.DB)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, settings)
}

// GetSetting handles GET /api/settings/{category}/{key}
func (h *Handler) GetSetting(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	key := r.PathValue("key")
	if category == "" || key == "" {
		http.Error(w, "category and key are required", http.StatusBadRequest)
		return
	}

	setting, err := GetSetting(h.DB, category, key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if setting == nil {
		http.Error(w, "setting not found", http.StatusNotFound)
		return
	}
	respondJSON(w, setting)
}

// UpdateSetting handles PUT /api/settings/{category}/{key}
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	key := r.PathValue("key")
	if category == "" || key == "" {
		http.Error(w, "category and key are required", http.StatusBadRequest)
		return
	}

	var update SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := UpdateSetting(h.DB, category, key, update.Value); err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	setting, err := GetSetting(h.DB, category, key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, setting)
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}
