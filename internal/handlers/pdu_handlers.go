package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"hubgate/internal/db"
	"hubgate/internal/events"
	"hubgate/internal/models"
	"hubgate/internal/pdu"
)

// ListPDUs handles GET /api/pdus. Connection state reflects the live
// registry, not the inventory.
func ListPDUs(w http.ResponseWriter, r *http.Request) {
	pdus, err := db.ListPDUs(db.DB)
	if err != nil {
		JSONError(w, "Database error", http.StatusInternalServerError)
		return
	}

	connected := map[string]bool{}
	if Registry != nil {
		for _, addr := range Registry.Addresses() {
			connected[addr] = true
		}
	}

	type pduStatus struct {
		models.PDU
		Connected bool `json:"connected"`
	}
	out := make([]pduStatus, 0, len(pdus))
	for _, p := range pdus {
		out = append(out, pduStatus{PDU: p, Connected: connected[p.Address]})
	}
	JSONResponse(w, out)
}

// CreatePDU handles POST /api/pdus. The device must be reachable: the
// registry connects a browser session before anything is persisted.
func CreatePDU(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address  string `json:"address"`
		Username string `json:"username"`
		Password string `json:"password"`
		RoomCode string `json:"room_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Address) == "" || strings.TrimSpace(req.RoomCode) == "" {
		JSONError(w, "Missing required fields: address, room_code", http.StatusBadRequest)
		return
	}

	p := models.PDU{
		Address:  req.Address,
		Username: req.Username,
		Password: req.Password,
		RoomCode: req.RoomCode,
	}
	if _, err := Registry.Add(p); err != nil {
		DeviceError(w, err)
		return
	}

	log.Printf("✅ PDU registered: %s (%s)", p.Address, p.RoomCode)
	w.WriteHeader(http.StatusCreated)
	JSONResponse(w, p)
}

// DeletePDU handles DELETE /api/pdus/{address}
func DeletePDU(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	if err := Registry.Remove(address); err != nil {
		DeviceError(w, err)
		return
	}

	log.Printf("🗑️  PDU removed: %s", address)
	JSONResponse(w, map[string]string{"status": "deleted"})
}

// ConnectPDU handles POST /api/pdus/{address}/connect
func ConnectPDU(w http.ResponseWriter, r *http.Request) {
	c, err := Registry.Get(r.PathValue("address"))
	if err != nil {
		DeviceError(w, err)
		return
	}
	if err := c.Connect(); err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "connected"})
}

// DisconnectPDU handles POST /api/pdus/{address}/disconnect
func DisconnectPDU(w http.ResponseWriter, r *http.Request) {
	c, err := Registry.Get(r.PathValue("address"))
	if err != nil {
		DeviceError(w, err)
		return
	}
	if err := c.Disconnect(); err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "disconnected"})
}

func pduController(w http.ResponseWriter, r *http.Request) (*pdu.Controller, bool) {
	c, err := Registry.Get(r.PathValue("address"))
	if err != nil {
		DeviceError(w, err)
		return nil, false
	}
	return c, true
}

// GetPDUSystem handles GET /api/pdus/{address}/system
func GetPDUSystem(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	info, err := c.GetSystemInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, info)
}

// GetPDUOutlets handles GET /api/pdus/{address}/outlets
func GetPDUOutlets(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	states, err := c.GetOutletInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, states)
}

// GetPDUNetwork handles GET /api/pdus/{address}/network
func GetPDUNetwork(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	info, err := c.GetNetworkInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, info)
}

// GetPDUPingActions handles GET /api/pdus/{address}/ping
func GetPDUPingActions(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	info, err := c.GetPingActionInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, info)
}

// GetPDUConfig handles GET /api/pdus/{address}/config
func GetPDUConfig(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	info, err := c.GetPDUInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, info)
}

// GetPDUAll handles GET /api/pdus/{address}/all
func GetPDUAll(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	info, err := c.GetAllInfo()
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, info)
}

// UpdatePDUSystem handles PUT /api/pdus/{address}/system
func UpdatePDUSystem(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	var u pdu.SystemSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := c.ChangeSystemSettings(u)
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, res)
}

// UpdatePDUUser handles PUT /api/pdus/{address}/user. A successful
// change updates the stored credentials so later reconnects still work.
func UpdatePDUUser(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	var u pdu.UserSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := c.ChangeUserSettings(u)
	if err != nil {
		DeviceError(w, err)
		return
	}

	if res.Applied {
		username, password := c.Credentials()
		if err := db.UpdatePDUCredentials(db.DB, c.Address(), username, password); err != nil {
			log.Printf("⚠️  Device credentials changed on %s but inventory update failed: %v", c.Address(), err)
		}
	}
	JSONResponse(w, res)
}

// UpdatePDUNetwork handles PUT /api/pdus/{address}/network
func UpdatePDUNetwork(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	var u pdu.NetworkSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := c.ChangeNetworkSettings(u)
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, res)
}

// UpdatePDUConfig handles PUT /api/pdus/{address}/config
func UpdatePDUConfig(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	var u pdu.PDUSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := c.ChangePDUSettings(u)
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, res)
}

// UpdatePDUPingActions handles PUT /api/pdus/{address}/ping
func UpdatePDUPingActions(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	var u pdu.PingActionUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	res, err := c.ChangePingActionSettings(u)
	if err != nil {
		DeviceError(w, err)
		return
	}
	JSONResponse(w, res)
}

// PDUPowerAction handles POST /api/pdus/{address}/outlets/{outlet}/power
func PDUPowerAction(w http.ResponseWriter, r *http.Request) {
	c, ok := pduController(w, r)
	if !ok {
		return
	}
	outlet := r.PathValue("outlet")

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	res, err := c.ChangePowerAction(outlet, req.Action)
	if err != nil {
		if Bus != nil {
			Bus.Publish(events.Event{
				Type:     events.PDUActionFailed,
				Severity: events.SeverityWarning,
				Address:  c.Address(),
				RoomCode: c.RoomCode(),
				Message:  fmt.Sprintf("power %s on outlet %s of %s failed: %v", req.Action, outlet, c.Address(), err),
			})
		}
		DeviceError(w, err)
		return
	}

	if res.Applied && Bus != nil {
		Bus.Publish(events.Event{
			Type:     events.OutletChanged,
			Severity: events.SeverityInfo,
			Address:  c.Address(),
			RoomCode: c.RoomCode(),
			Message:  fmt.Sprintf("outlet %s of %s: %s", outlet, c.Address(), req.Action),
		})
	}
	JSONResponse(w, res)
}
