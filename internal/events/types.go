package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// Registry / PDU events
	DeviceAdded       EventType = "device_added"
	DeviceRemoved     EventType = "device_removed"
	DeviceUnreachable EventType = "device_unreachable"
	RegistryRebuilt   EventType = "registry_rebuilt"
	OutletChanged     EventType = "outlet_changed"
	PDUActionFailed   EventType = "pdu_action_failed"

	// Projector events
	ProjectorPowerChanged EventType = "projector_power_changed"
	ProjectorInitFailed   EventType = "projector_init_failed"
	ProjectorTimeout      EventType = "projector_timeout"

	// Host events
	HostActionFailed EventType = "host_action_failed"
)

// Severity indicates the urgency of an event.
type Severity int

const (
	SeverityInfo     Severity = 0
	SeverityWarning  Severity = 1
	SeverityCritical Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Event is the payload published through the bus.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Severity  Severity  `json:"severity"`
	Address   string    `json:"address,omitempty"`
	RoomCode  string    `json:"room_code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
