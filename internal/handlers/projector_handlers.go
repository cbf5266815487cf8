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
	"hubgate/internal/projector"
	"hubgate/internal/settings"
)

// ProjectorDevice is the control surface the handlers need; the
// factory is swapped for a fake in tests.
type ProjectorDevice interface {
	Power() (string, error)
	SetPower(state string) error
	Mute() (string, error)
	SetMute(state string) error
	Volume() (int, error)
	SetVolume(level int) error
	Input() (string, error)
	SetInput(source string) error
}

// NewProjector builds a client for a display using its stored credentials.
var NewProjector = func(d models.Display) ProjectorDevice {
	return projector.NewClient(d.Address, d.Username, d.Password)
}

func lookupProjector(w http.ResponseWriter, r *http.Request) (models.Display, ProjectorDevice, bool) {
	display, err := db.GetDisplay(db.DB, r.PathValue("address"))
	if errors.Is(err, sql.ErrNoRows) {
		JSONError(w, "Display not found", http.StatusNotFound)
		return models.Display{}, nil, false
	}
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return models.Display{}, nil, false
	}
	return display, NewProjector(display), true
}

// GetProjectorState handles GET /api/displays/{address}/state
func GetProjectorState(w http.ResponseWriter, r *http.Request) {
	_, dev, ok := lookupProjector(w, r)
	if !ok {
		return
	}
	state, err := dev.Power()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"power": state})
}

// SetProjectorPower handles POST /api/displays/{address}/power.
// The request returns once the projector has actually reached the
// requested state or the poll budget runs out.
func SetProjectorPower(w http.ResponseWriter, r *http.Request) {
	display, dev, ok := lookupProjector(w, r)
	if !ok {
		return
	}

	var req struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.State != projector.PowerOn && req.State != projector.PowerOff {
		JSONError(w, "State must be ON or OFF", http.StatusBadRequest)
		return
	}

	maxRetries := settings.GetIntSetting(db.DB, "projector", "max_retries", projector.DefaultMaxRetries)
	interval := settings.GetDurationSetting(db.DB, "projector", "interval_seconds", projector.DefaultInterval)
	poller := projector.NewPoller(dev, maxRetries, interval)

	var err error
	if req.State == projector.PowerOn {
		err = poller.TurnOn()
	} else {
		err = poller.TurnOff()
	}
	if err != nil {
		publishProjectorFailure(display, err)
		DeviceError(w, err)
		return
	}

	if Bus != nil {
		Bus.Publish(events.Event{
			Type:     events.ProjectorPowerChanged,
			Severity: events.SeverityInfo,
			Address:  display.Address,
			RoomCode: display.RoomCode,
			Message:  fmt.Sprintf("projector %s powered %s", display.Address, req.State),
		})
	}
	JSONResponse(w, map[string]string{"power": req.State})
}

func publishProjectorFailure(display models.Display, err error) {
	log.Printf("❌ Projector %s power action failed: %v", display.Address, err)
	if Bus == nil {
		return
	}

	eventType := events.ProjectorTimeout
	if errors.Is(err, projector.ErrInitializationFailed) {
		eventType = events.ProjectorInitFailed
	}
	Bus.Publish(events.Event{
		Type:     eventType,
		Severity: events.SeverityWarning,
		Address:  display.Address,
		RoomCode: display.RoomCode,
		Message:  fmt.Sprintf("projector %s: %v", display.Address, err),
	})
}

// SetProjectorMute handles PUT /api/displays/{address}/mute
func SetProjectorMute(w http.ResponseWriter, r *http.Request) {
	_, dev, ok := lookupProjector(w, r)
	if !ok {
		return
	}

	var req struct {
		Mute string `json:"mute"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Mute != "ON" && req.Mute != "OFF" {
		JSONError(w, "Mute must be ON or OFF", http.StatusBadRequest)
		return
	}

	if err := dev.SetMute(req.Mute); err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"mute": req.Mute})
}

// SetProjectorVolume handles PUT /api/displays/{address}/volume
func SetProjectorVolume(w http.ResponseWriter, r *http.Request) {
	_, dev, ok := lookupProjector(w, r)
	if !ok {
		return
	}

	var req struct {
		Volume int `json:"volume"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Volume < 0 || req.Volume > 20 {
		JSONError(w, "Volume must be between 0 and 20", http.StatusBadRequest)
		return
	}

	if err := dev.SetVolume(req.Volume); err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]int{"volume": req.Volume})
}

// SetProjectorInput handles PUT /api/displays/{address}/input
func SetProjectorInput(w http.ResponseWriter, r *http.Request) {
	_, dev, ok := lookupProjector(w, r)
	if !ok {
		return
	}

	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Input == "" {
		JSONError(w, "Missing required field: input", http.StatusBadRequest)
		return
	}

	if err := dev.SetInput(req.Input); err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"input": req.Input})
}
