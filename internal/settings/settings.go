// Package settings stores runtime-tunable gateway parameters in the
// database so they survive restarts and can be changed over the API.
package settings

import (
	"fmt"
	"strconv"
	"time"
)

// Setting is a single tunable value.
type Setting struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	ValueType   string    `json:"value_type"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SettingUpdate is the request body for changing a setting.
type SettingUpdate struct {
	Value string `json:"value"`
}

// Defaults seeds the settings table on first start.
var Defaults = []Setting{
	// Projector poller
	{Category: "projector", Key: "max_retries", Value: "10", ValueType: "int", Description: "Power-state poll attempts before giving up"},
	{Category: "projector", Key: "interval_seconds", Value: "3", ValueType: "int", Description: "Seconds between power-state polls"},

	// Remote host actions
	{Category: "ssh", Key: "timeout_seconds", Value: "20", ValueType: "int", Description: "Per-command SSH timeout in seconds"},

	// PDU browser sessions
	{Category: "pdu", Key: "dialog_wait_seconds", Value: "10", ValueType: "int", Description: "Seconds to wait for an apply confirmation dialog"},
	{Category: "pdu", Key: "navigation_timeout_seconds", Value: "30", ValueType: "int", Description: "Seconds to wait for a device page load"},

	// Notifications
	{Category: "notify", Key: "enabled", Value: "false", ValueType: "bool", Description: "Enable event notifications"},
	{Category: "notify", Key: "urls", Value: "", ValueType: "string", Description: "Comma-separated Shoutrrr service URLs"},
	{Category: "notify", Key: "cooldown_minutes", Value: "15", ValueType: "int", Description: "Minutes between duplicate alerts for the same device"},
}

func validateValue(valueType, value string) error {
	switch valueType {
	case "int":
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("value must be an integer")
		}
	case "bool":
		if value != "true" && value != "false" {
			return fmt.Errorf("value must be 'true' or 'false'")
		}
	}
	return nil
}
