package models

import "time"

// Room groups devices by physical location
type Room struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Host is an SSH-controllable computer (Windows/Mac/Linux)
type Host struct {
	Address     string `json:"address"`
	MAC         string `json:"mac"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Username    string `json:"username"`
	Password    string `json:"-"`
	Platform    string `json:"platform"`
	RoomCode    string `json:"room_code"`
	Config1     string `json:"config1,omitempty"`
	Config2     string `json:"config2,omitempty"`
	Config3     string `json:"config3,omitempty"`
}

// Display is a projector or similar device controlled over HTTP
type Display struct {
	Address  string `json:"address"`
	MAC      string `json:"mac"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Username string `json:"username"`
	Password string `json:"-"`
	RoomCode string `json:"room_code"`
}

// PDU is a network power distribution unit managed through its web UI
type PDU struct {
	Address    string `json:"address"`
	Username   string `json:"username"`
	Password   string `json:"-"`
	DriverPath string `json:"driver_path,omitempty"`
	RoomCode   string `json:"room_code"`
}

// User represents an authenticated gateway user
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents an active user session
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Config holds server configuration
type Config struct {
	Port        string
	DBPath      string
	AdminUser   string
	AdminPass   string
	AuthEnabled bool
	ChromePath  string
}
