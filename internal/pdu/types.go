package pdu

// Outlet states and power actions as the device reports them.
const (
	StateOn  = "ON"
	StateOff = "OFF"

	ActionOn    = "ON"
	ActionOff   = "OFF"
	ActionCycle = "OFF/ON"

	ActiveEnable  = "enable"
	ActiveDisable = "disable"
)

// SystemInfo is the system page: read-only vendor metadata alongside the
// three mutable identity fields.
type SystemInfo struct {
	Model    string `json:"model_number"`
	Firmware string `json:"firmware_version"`
	MAC      string `json:"mac_address"`
	Name     string `json:"system_name"`
	Contact  string `json:"system_contact"`
	Location string `json:"system_location"`
}

// NetworkInfo mirrors the network configuration page.
type NetworkInfo struct {
	DHCPEnabled bool   `json:"dhcp_enabled"`
	Hostname    string `json:"hostname"`
	IP          string `json:"ip_address"`
	Subnet      string `json:"subnet"`
	Gateway     string `json:"gateway"`
	DNS1        string `json:"dns1"`
	DNS2        string `json:"dns2"`
}

// PingAction is one outlet's ping-watchdog configuration.
type PingAction struct {
	IP     string `json:"address"`
	Action string `json:"action"`
	Active bool   `json:"active"`
}

// OutletConfig is one outlet's name and power-on/off delays.
type OutletConfig struct {
	Name     string `json:"name"`
	OnDelay  string `json:"on_delay"`
	OffDelay string `json:"off_delay"`
}

// AllInfo aggregates every setting group in one fetch.
type AllInfo struct {
	System      SystemInfo              `json:"system_info"`
	Outlets     map[string]string       `json:"outlet_info"`
	PingActions map[string]PingAction   `json:"ping_action_info"`
	Config      map[string]OutletConfig `json:"pdu_info"`
	Network     NetworkInfo             `json:"network_info"`
}

// Update structs model each operation's input as named optional fields.
// A blank field means "leave unchanged"; only non-blank fields are ever
// written to the device form.

type SystemSettingsUpdate struct {
	SystemName    string `json:"system_name"`
	SystemContact string `json:"system_contact"`
	Location      string `json:"location"`
}

// UserSettingsUpdate requires both fields together; supplying only one is
// a no-op by protocol.
type UserSettingsUpdate struct {
	NewUsername string `json:"new_username"`
	NewPassword string `json:"new_password"`
}

type NetworkSettingsUpdate struct {
	DHCP     string `json:"dhcp"` // "enable", "disable" or blank
	Hostname string `json:"hostname"`
	IP       string `json:"ip"`
	Subnet   string `json:"subnet"`
	Gateway  string `json:"gateway"`
	DNS1     string `json:"dns1"`
	DNS2     string `json:"dns2"`
}

type PDUSettingsUpdate struct {
	OutletAName     string `json:"outletA_name"`
	OutletAOnDelay  string `json:"outletA_onDelay"`
	OutletAOffDelay string `json:"outletA_offDelay"`
	OutletBName     string `json:"outletB_name"`
	OutletBOnDelay  string `json:"outletB_onDelay"`
	OutletBOffDelay string `json:"outletB_offDelay"`
}

type PingActionUpdate struct {
	OutletAIP     string `json:"outletA_IP"`
	OutletAAction string `json:"outletA_action"`
	OutletAActive string `json:"outletA_active"` // "enable", "disable" or blank
	OutletBIP     string `json:"outletB_IP"`
	OutletBAction string `json:"outletB_action"`
	OutletBActive string `json:"outletB_active"`
}

// Result reports the outcome of a write operation.
type Result struct {
	Applied  bool     `json:"applied"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}
