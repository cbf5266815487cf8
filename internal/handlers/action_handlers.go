package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"hubgate/internal/db"
	"hubgate/internal/events"
	"hubgate/internal/models"
	"hubgate/internal/remote"
	"hubgate/internal/wol"
)

// Actions and Bus are set from main.go.
var (
	Actions *remote.Actions
	Bus     *events.Bus
)

// lookupHost resolves a host and its stored credentials by address.
// Callers of the API never supply credentials themselves.
func lookupHost(w http.ResponseWriter, r *http.Request) (models.Host, bool) {
	host, err := db.GetHost(db.DB, r.PathValue("address"))
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "Host not found", http.StatusNotFound)
		return models.Host{}, false
	}
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return models.Host{}, false
	}
	return host, true
}

func hostActionFailed(host models.Host, action string, err error) {
	log.Printf("❌ Host action %s failed on %s: %v", action, host.Address, err)
	if Bus != nil {
		Bus.Publish(events.Event{
			Type:     events.HostActionFailed,
			Severity: events.SeverityWarning,
			Address:  host.Address,
			RoomCode: host.RoomCode,
			Message:  fmt.Sprintf("%s failed on host %s: %v", action, host.Address, err),
		})
	}
}

// RebootHost handles POST /api/hosts/{address}/reboot
func RebootHost(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	if err := Actions.Reboot(r.Context(), host); err != nil {
		hostActionFailed(host, "reboot", err)
		DeviceError(w, err)
		return
	}

	log.Printf("🔄 Rebooted host %s", host.Address)
	JSONResponse(w, map[string]string{"status": "rebooting"})
}

// MuteHost handles POST /api/hosts/{address}/mute
func MuteHost(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		Mute bool `json:"mute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := Actions.Mute(r.Context(), host, req.Mute); err != nil {
		hostActionFailed(host, "mute", err)
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]bool{"muted": req.Mute})
}

// OpenApplication handles POST /api/hosts/{address}/app
func OpenApplication(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		Application string `json:"application"`
		Arguments   string `json:"arguments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Application == "" {
		JSONError(w, "Missing required field: application", http.StatusBadRequest)
		return
	}

	pid, err := Actions.OpenApplication(r.Context(), host, req.Application, req.Arguments)
	if err != nil {
		hostActionFailed(host, "open application", err)
		DeviceError(w, err)
		return
	}

	log.Printf("🚀 Opened %s on %s (pid %s)", req.Application, host.Address, pid)
	JSONResponse(w, map[string]string{"pid": pid})
}

// OpenKiosk handles POST /api/hosts/{address}/kiosk. Opens a URL full
// screen in Chrome on the host, typically for slide decks.
func OpenKiosk(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		JSONError(w, "Missing required field: url", http.StatusBadRequest)
		return
	}

	pid, err := Actions.OpenKiosk(r.Context(), host, req.URL)
	if err != nil {
		hostActionFailed(host, "open kiosk", err)
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"pid": pid})
}

// CloseProcess handles POST /api/hosts/{address}/kill
func CloseProcess(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		PID string `json:"pid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PID == "" {
		JSONError(w, "Missing required field: pid", http.StatusBadRequest)
		return
	}

	if err := Actions.CloseProcess(r.Context(), host, req.PID); err != nil {
		hostActionFailed(host, "close process", err)
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "closed"})
}

// RunNircmd handles POST /api/hosts/{address}/nircmd
func RunNircmd(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Command == "" {
		JSONError(w, "Missing required field: command", http.StatusBadRequest)
		return
	}

	if err := Actions.Nircmd(r.Context(), host, req.Command); err != nil {
		hostActionFailed(host, "nircmd", err)
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "ok"})
}

// ChangeVolume handles POST /api/hosts/{address}/volume
func ChangeVolume(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action"`
		Step   int    `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
		JSONError(w, "Missing required field: action", http.StatusBadRequest)
		return
	}

	if err := Actions.ChangeVolume(r.Context(), host, req.Action, req.Step); err != nil {
		hostActionFailed(host, "volume "+req.Action, err)
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "ok"})
}

// WakeHost handles POST /api/hosts/{address}/wake
func WakeHost(w http.ResponseWriter, r *http.Request) {
	host, ok := lookupHost(w, r)
	if !ok {
		return
	}

	if host.MAC == "" {
		JSONError(w, "Host has no MAC address on record", http.StatusBadRequest)
		return
	}

	if err := wol.Wake(host.MAC, ""); err != nil {
		hostActionFailed(host, "wake", err)
		JSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("⏰ Sent wake packet to %s (%s)", host.Address, host.MAC)
	JSONResponse(w, map[string]string{"status": "wake_sent"})
}
