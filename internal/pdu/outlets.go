package pdu

import "fmt"

// ChangePowerAction switches one outlet ON, OFF or power-cycles it. The
// current state is checked first: an action that matches it is reported
// as a no-op without touching the device.
func (c *Controller) ChangePowerAction(outlet, action string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := outletIndex[outlet]; !ok {
		return Result{}, &ValidationError{Field: "outlet_name", Value: outlet}
	}
	button, ok := outletActions[action]
	if !ok {
		return Result{}, &ValidationError{Field: "action", Value: action}
	}

	if err := c.fetchOutletStates(); err != nil {
		return Result{}, err
	}
	current := c.outletStates[outlet]

	if action != ActionCycle && current == action {
		return Result{
			Message: fmt.Sprintf("outlet %s power is already %s", outlet, current),
		}, nil
	}

	if err := c.session.Navigate(pageOutlet); err != nil {
		return Result{}, err
	}
	if err := c.session.Click(outletCheckboxes[outlet]); err != nil {
		return Result{}, err
	}
	if err := c.session.Click(button); err != nil {
		return Result{}, err
	}
	if _, err := c.session.WaitForConfirmation(c.dialogWait); err != nil {
		return Result{}, err
	}

	if err := c.fetchOutletStates(); err != nil {
		return Result{}, err
	}
	return Result{
		Applied: true,
		Message: fmt.Sprintf("outlet %s action %s completed, state now %s",
			outlet, action, c.outletStates[outlet]),
	}, nil
}

// ChangePDUSettings writes outlet names and on/off delays. The page has
// three independent apply groups; a group is applied once no matter how
// many of its fields were supplied, and not at all when none were.
func (c *Controller) ChangePDUSettings(u PDUSettingsUpdate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	type group struct {
		trigger string
		fields  map[string]string // selector -> new value
		commit  func()
	}

	groups := []group{
		{
			trigger: pduNameApplyTrigger,
			fields:  stagedFields(pduNameFields, u.OutletAName, u.OutletBName),
			commit: func() {
				c.commitOutletConfig(u.OutletAName, u.OutletBName, func(cfg *OutletConfig, v string) { cfg.Name = v })
			},
		},
		{
			trigger: pduOnDelayApplyTrigger,
			fields:  stagedFields(pduOnDelayFields, u.OutletAOnDelay, u.OutletBOnDelay),
			commit: func() {
				c.commitOutletConfig(u.OutletAOnDelay, u.OutletBOnDelay, func(cfg *OutletConfig, v string) { cfg.OnDelay = v })
			},
		},
		{
			trigger: pduOffDelayApplyTrigger,
			fields:  stagedFields(pduOffDelayFields, u.OutletAOffDelay, u.OutletBOffDelay),
			commit: func() {
				c.commitOutletConfig(u.OutletAOffDelay, u.OutletBOffDelay, func(cfg *OutletConfig, v string) { cfg.OffDelay = v })
			},
		},
	}

	anyStaged := false
	for _, g := range groups {
		if len(g.fields) > 0 {
			anyStaged = true
		}
	}
	if !anyStaged {
		return Result{Message: "no fields supplied, nothing applied"}, nil
	}

	if err := c.session.Navigate(pagePDU); err != nil {
		return Result{}, err
	}

	appliedGroups := 0
	for _, g := range groups {
		if len(g.fields) == 0 {
			continue
		}
		for sel, value := range g.fields {
			if err := c.session.SetValue(sel, value); err != nil {
				return Result{}, err
			}
		}
		if _, err := c.apply(g.trigger); err != nil {
			return Result{}, err
		}
		g.commit()
		appliedGroups++
	}

	return Result{
		Applied: true,
		Message: fmt.Sprintf("applied %d setting group(s)", appliedGroups),
	}, nil
}

// stagedFields maps outlet field selectors to the non-blank values
// supplied for outlets A and B.
func stagedFields(selectors map[string]string, valueA, valueB string) map[string]string {
	fields := map[string]string{}
	if hasValue(valueA) {
		fields[selectors["A"]] = valueA
	}
	if hasValue(valueB) {
		fields[selectors["B"]] = valueB
	}
	return fields
}

// commitOutletConfig folds applied per-outlet values into the cache.
// Callers hold c.mu.
func (c *Controller) commitOutletConfig(valueA, valueB string, set func(*OutletConfig, string)) {
	for outlet, value := range map[string]string{"A": valueA, "B": valueB} {
		if !hasValue(value) {
			continue
		}
		cfg := c.outletConfig[outlet]
		set(&cfg, value)
		c.outletConfig[outlet] = cfg
	}
}

// ChangePingActionSettings updates the per-outlet ping watchdog. The
// vendor UI only allows IP/action edits while the outlet's active box is
// unchecked, so an active outlet is temporarily disabled, edited, then
// restored to the requested state. Edits left on a disabled outlet are
// discarded by the device; that quirk is surfaced as a warning.
func (c *Controller) ChangePingActionSettings(u PingActionUpdate) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outlets := []struct {
		name               string
		ip, action, active string
	}{
		{"A", u.OutletAIP, u.OutletAAction, u.OutletAActive},
		{"B", u.OutletBIP, u.OutletBAction, u.OutletBActive},
	}

	anyStaged := false
	for _, o := range outlets {
		if hasValue(o.ip) || hasValue(o.action) || hasValue(o.active) {
			anyStaged = true
		}
		if hasValue(o.active) {
			if _, err := parseActiveFlag("outlet"+o.name+"_active", o.active); err != nil {
				return Result{}, err
			}
		}
	}
	if !anyStaged {
		return Result{Message: "no fields supplied, nothing applied"}, nil
	}

	if err := c.session.Navigate(pagePingAction); err != nil {
		return Result{}, err
	}

	result := Result{Applied: true}
	for _, o := range outlets {
		if err := c.changeOutletPingAction(o.name, o.ip, o.action, o.active, &result); err != nil {
			return Result{}, err
		}
	}

	if err := c.fetchPingActionSettings(); err != nil {
		return Result{}, err
	}
	result.Message = "ping action settings updated"
	return result, nil
}

// changeOutletPingAction runs the uncheck-edit-recheck protocol for one
// outlet. Callers hold c.mu.
func (c *Controller) changeOutletPingAction(outlet, ip, action, active string, result *Result) error {
	box := pingActiveBoxes[outlet]

	checked, err := c.session.IsChecked(box)
	if err != nil {
		return err
	}

	// Editing fields requires the watchdog disabled first; unchecking
	// raises its own confirmation dialog.
	if (hasValue(ip) || hasValue(action)) && checked {
		if err := c.toggleActiveBox(box); err != nil {
			return err
		}
		checked = false
	}

	if hasValue(ip) {
		if err := c.session.SetValue(pingIPFields[outlet], ip); err != nil {
			return err
		}
	}
	if hasValue(action) {
		if err := c.session.SelectOption(pingActionFields[outlet], action); err != nil {
			return err
		}
	}

	if hasValue(active) {
		want, err := parseActiveFlag("outlet"+outlet+"_active", active)
		if err != nil {
			return err
		}
		if want != checked {
			if err := c.toggleActiveBox(box); err != nil {
				return err
			}
		}
		if !want && (hasValue(ip) || hasValue(action)) {
			// Vendor quirk: the device discards field edits on an outlet
			// left disabled. Surfaced rather than swallowed.
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"outlet %s IP/action changes will not be saved while its ping action is disabled", outlet))
		}
	}
	return nil
}

func (c *Controller) toggleActiveBox(box string) error {
	if err := c.session.Click(box); err != nil {
		return err
	}
	_, err := c.session.WaitForConfirmation(c.dialogWait)
	return err
}
