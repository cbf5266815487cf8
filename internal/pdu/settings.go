package pdu

import (
	"fmt"
	"strconv"
	"strings"
)

// hasValue implements the "only touch non-blank fields" rule shared by
// every write operation.
func hasValue(s string) bool { return strings.TrimSpace(s) != "" }

// ChangeSystemSettings writes the supplied identity fields on the system
// page and commits them to the cache once the device confirms.
func (c *Controller) ChangeSystemSettings(u SystemSettingsUpdate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !hasValue(u.SystemName) && !hasValue(u.SystemContact) && !hasValue(u.Location) {
		return Result{Message: "no fields supplied, nothing applied"}, nil
	}

	if err := c.session.Navigate(pageSystem); err != nil {
		return Result{}, err
	}

	staged := map[string]string{}
	if hasValue(u.SystemName) {
		if err := c.session.SetValue(systemFields.Name, u.SystemName); err != nil {
			return Result{}, err
		}
		staged["name"] = u.SystemName
	}
	if hasValue(u.SystemContact) {
		if err := c.session.SetValue(systemFields.Contact, u.SystemContact); err != nil {
			return Result{}, err
		}
		staged["contact"] = u.SystemContact
	}
	if hasValue(u.Location) {
		if err := c.session.SetValue(systemFields.Location, u.Location); err != nil {
			return Result{}, err
		}
		staged["location"] = u.Location
	}

	msg, err := c.apply(systemApplyTrigger)
	if err != nil {
		return Result{}, err
	}

	if v, ok := staged["name"]; ok {
		c.system.Name = v
	}
	if v, ok := staged["contact"]; ok {
		c.system.Contact = v
	}
	if v, ok := staged["location"]; ok {
		c.system.Location = v
	}
	return Result{Applied: true, Message: msg}, nil
}

// ChangeUserSettings updates the device credentials. The vendor form
// requires the current pair re-entered alongside the new pair, and both
// new fields must be supplied together or the operation is a no-op. On
// success the session is re-homed onto a base URL carrying the new
// credentials.
func (c *Controller) ChangeUserSettings(u UserSettingsUpdate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !hasValue(u.NewUsername) || !hasValue(u.NewPassword) {
		return Result{Message: "both new_username and new_password are required, nothing applied"}, nil
	}

	if err := c.session.Navigate(pageUser); err != nil {
		return Result{}, err
	}

	pairs := []struct{ sel, value string }{
		{userFields.CurrentUser, c.username},
		{userFields.NewUser, u.NewUsername},
		{userFields.CurrentPass, c.password},
		{userFields.NewPass, u.NewPassword},
	}
	for _, p := range pairs {
		if err := c.session.SetValue(p.sel, p.value); err != nil {
			return Result{}, err
		}
	}

	msg, err := c.apply(userApplyTrigger)
	if err != nil {
		return Result{}, err
	}

	c.username = u.NewUsername
	c.password = u.NewPassword
	c.session.Rehome(c.username, c.password)
	return Result{Applied: true, Message: msg}, nil
}

// ChangeNetworkSettings writes the supplied network fields. IP-shaped
// values are validated before anything is written to the device.
func (c *Controller) ChangeNetworkSettings(u NetworkSettingsUpdate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range []struct{ name, value string }{
		{"ip", u.IP}, {"subnet", u.Subnet}, {"gateway", u.Gateway},
		{"dns1", u.DNS1}, {"dns2", u.DNS2},
	} {
		if hasValue(f.value) {
			if err := validateDottedQuad(f.name, f.value); err != nil {
				return Result{}, err
			}
		}
	}

	if err := c.session.Navigate(pageNetwork); err != nil {
		return Result{}, err
	}

	applied := false
	var dhcpStaged *bool

	if hasValue(u.DHCP) {
		want, err := parseActiveFlag("dhcp", u.DHCP)
		if err != nil {
			return Result{}, err
		}
		current, err := c.session.IsChecked(networkFields.DHCP)
		if err != nil {
			return Result{}, err
		}
		if current != want {
			if err := c.session.Click(networkFields.DHCP); err != nil {
				return Result{}, err
			}
			dhcpStaged = &want
			applied = true
		}
	}

	staged := map[string]string{}
	for _, f := range []struct{ key, sel, value string }{
		{"hostname", networkFields.Hostname, u.Hostname},
		{"ip", networkFields.IP, u.IP},
		{"subnet", networkFields.Subnet, u.Subnet},
		{"gateway", networkFields.Gateway, u.Gateway},
		{"dns1", networkFields.DNS1, u.DNS1},
		{"dns2", networkFields.DNS2, u.DNS2},
	} {
		if !hasValue(f.value) {
			continue
		}
		if err := c.session.SetValue(f.sel, f.value); err != nil {
			return Result{}, err
		}
		staged[f.key] = f.value
		applied = true
	}

	if !applied {
		return Result{Message: "no fields supplied, nothing applied"}, nil
	}

	msg, err := c.apply(networkApplyTrigger)
	if err != nil {
		return Result{}, err
	}

	if dhcpStaged != nil {
		c.network.DHCPEnabled = *dhcpStaged
	}
	if v, ok := staged["hostname"]; ok {
		c.network.Hostname = v
	}
	if v, ok := staged["ip"]; ok {
		c.network.IP = v
	}
	if v, ok := staged["subnet"]; ok {
		c.network.Subnet = v
	}
	if v, ok := staged["gateway"]; ok {
		c.network.Gateway = v
	}
	if v, ok := staged["dns1"]; ok {
		c.network.DNS1 = v
	}
	if v, ok := staged["dns2"]; ok {
		c.network.DNS2 = v
	}
	return Result{Applied: true, Message: msg}, nil
}

// apply clicks an apply trigger and waits for the confirmation dialog.
// Callers hold c.mu.
func (c *Controller) apply(trigger string) (string, error) {
	if err := c.session.ClickTrigger(trigger); err != nil {
		return "", err
	}
	msg, err := c.session.WaitForConfirmation(c.dialogWait)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("device confirmed: %s", msg), nil
}

func validateDottedQuad(field, value string) error {
	octets := strings.Split(strings.TrimSpace(value), ".")
	if len(octets) != 4 {
		return &ValidationError{Field: field, Value: value}
	}
	for _, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 || (len(o) > 1 && o[0] == '0') {
			return &ValidationError{Field: field, Value: value}
		}
	}
	return nil
}

func parseActiveFlag(field, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ActiveEnable:
		return true, nil
	case ActiveDisable:
		return false, nil
	default:
		return false, &ValidationError{Field: field, Value: value}
	}
}
