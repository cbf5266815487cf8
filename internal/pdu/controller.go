package pdu

import (
	"log"
	"sync"
	"time"
)

// Controller coordinates reads and writes of one PDU's setting groups
// through its Session. The session's "current page" is shared mutable
// state, so every exported operation holds the controller mutex for its
// full navigate-edit-apply sequence.
type Controller struct {
	mu      sync.Mutex
	session Session

	address  string
	username string
	password string
	roomCode string

	dialogWait time.Duration

	// Cached setting groups; stale until the matching fetch runs again.
	system       SystemInfo
	outletStates map[string]string
	pingActions  map[string]PingAction
	outletConfig map[string]OutletConfig
	network      NetworkInfo
}

// NewController wraps a session for the device at address. The session is
// not opened; call Connect.
func NewController(address, username, password, roomCode string, session Session) *Controller {
	return &Controller{
		session:      session,
		address:      address,
		username:     username,
		password:     password,
		roomCode:     roomCode,
		dialogWait:   10 * time.Second,
		outletStates: make(map[string]string),
		pingActions:  make(map[string]PingAction),
		outletConfig: make(map[string]OutletConfig),
	}
}

// Address returns the device address this controller is bound to.
func (c *Controller) Address() string { return c.address }

// RoomCode returns the room the device is associated with.
func (c *Controller) RoomCode() string { return c.roomCode }

// Credentials returns the credentials currently in effect, which change
// after a successful user-settings write.
func (c *Controller) Credentials() (username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username, c.password
}

// SetDialogWait overrides the confirmation-dialog budget.
func (c *Controller) SetDialogWait(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogWait = d
}

// Connect opens the browser session against the device.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Open()
}

// Disconnect tears the browser session down. Safe to call repeatedly.
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Close()
}

// IsConnected reports whether the underlying session is open.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsOpen()
}

// ───────────────────────── fetches ─────────────────────────
// The fetch helpers assume the caller holds c.mu. On any protocol error
// the cached group is left untouched.

func (c *Controller) fetchOutletStates() error {
	if err := c.session.Navigate(pageStatus); err != nil {
		return err
	}
	src, err := c.session.PageSource()
	if err != nil {
		return err
	}
	states, ok := parseOutletStates(src)
	if ok {
		c.outletStates = states
	} else {
		// Known-weak contract: a missing status line keeps the previous
		// cached states instead of failing the whole operation.
		log.Printf("⚠️  pdu %s: status document missing outlet line, keeping cached states", c.address)
	}
	return c.session.Back()
}

func (c *Controller) fetchSystemSettings() error {
	if err := c.session.Navigate(pageSystem); err != nil {
		return err
	}
	src, err := c.session.PageSource()
	if err != nil {
		return err
	}
	model, firmware, mac := parseSystemMetadata(src)

	name, err := c.session.ReadValue(systemFields.Name)
	if err != nil {
		return err
	}
	contact, err := c.session.ReadValue(systemFields.Contact)
	if err != nil {
		return err
	}
	location, err := c.session.ReadValue(systemFields.Location)
	if err != nil {
		return err
	}

	c.system = SystemInfo{
		Model: model, Firmware: firmware, MAC: mac,
		Name: name, Contact: contact, Location: location,
	}
	return nil
}

func (c *Controller) fetchNetworkSettings() error {
	if err := c.session.Navigate(pageNetwork); err != nil {
		return err
	}
	dhcp, err := c.session.IsChecked(networkFields.DHCP)
	if err != nil {
		return err
	}

	var values [6]string
	for i, sel := range []string{
		networkFields.Hostname, networkFields.IP, networkFields.Subnet,
		networkFields.Gateway, networkFields.DNS1, networkFields.DNS2,
	} {
		if values[i], err = c.session.ReadValue(sel); err != nil {
			return err
		}
	}

	c.network = NetworkInfo{
		DHCPEnabled: dhcp,
		Hostname:    values[0], IP: values[1], Subnet: values[2],
		Gateway: values[3], DNS1: values[4], DNS2: values[5],
	}
	return nil
}

func (c *Controller) fetchPingActionSettings() error {
	if err := c.session.Navigate(pagePingAction); err != nil {
		return err
	}
	actions := make(map[string]PingAction, 2)
	for outlet := range outletIndex {
		ip, err := c.session.ReadValue(pingIPFields[outlet])
		if err != nil {
			return err
		}
		action, err := c.session.ReadValue(pingActionFields[outlet])
		if err != nil {
			return err
		}
		active, err := c.session.IsChecked(pingActiveBoxes[outlet])
		if err != nil {
			return err
		}
		actions[outlet] = PingAction{IP: ip, Action: action, Active: active}
	}
	c.pingActions = actions
	return nil
}

func (c *Controller) fetchPDUSettings() error {
	if err := c.session.Navigate(pagePDU); err != nil {
		return err
	}
	config := make(map[string]OutletConfig, 2)
	for outlet := range outletIndex {
		name, err := c.session.ReadValue(pduNameFields[outlet])
		if err != nil {
			return err
		}
		onDelay, err := c.session.ReadValue(pduOnDelayFields[outlet])
		if err != nil {
			return err
		}
		offDelay, err := c.session.ReadValue(pduOffDelayFields[outlet])
		if err != nil {
			return err
		}
		config[outlet] = OutletConfig{Name: name, OnDelay: onDelay, OffDelay: offDelay}
	}
	c.outletConfig = config
	return nil
}

// ───────────────────────── getters ─────────────────────────

// GetSystemInfo fetches and returns the system page contents.
func (c *Controller) GetSystemInfo() (SystemInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchSystemSettings(); err != nil {
		return SystemInfo{}, err
	}
	return c.system, nil
}

// GetOutletInfo fetches and returns the current outlet power states.
func (c *Controller) GetOutletInfo() (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchOutletStates(); err != nil {
		return nil, err
	}
	return copyMap(c.outletStates), nil
}

// GetNetworkInfo fetches and returns the network configuration.
func (c *Controller) GetNetworkInfo() (NetworkInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchNetworkSettings(); err != nil {
		return NetworkInfo{}, err
	}
	return c.network, nil
}

// GetPingActionInfo fetches and returns the ping-watchdog configuration.
func (c *Controller) GetPingActionInfo() (map[string]PingAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchPingActionSettings(); err != nil {
		return nil, err
	}
	return copyMap(c.pingActions), nil
}

// GetPDUInfo fetches and returns outlet names and delays.
func (c *Controller) GetPDUInfo() (map[string]OutletConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fetchPDUSettings(); err != nil {
		return nil, err
	}
	return copyMap(c.outletConfig), nil
}

// GetAllInfo fetches every setting group in one serialized pass.
func (c *Controller) GetAllInfo() (AllInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, fetch := range []func() error{
		c.fetchSystemSettings,
		c.fetchOutletStates,
		c.fetchNetworkSettings,
		c.fetchPingActionSettings,
		c.fetchPDUSettings,
	} {
		if err := fetch(); err != nil {
			return AllInfo{}, err
		}
	}
	return AllInfo{
		System:      c.system,
		Outlets:     copyMap(c.outletStates),
		PingActions: copyMap(c.pingActions),
		Config:      copyMap(c.outletConfig),
		Network:     c.network,
	}, nil
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
