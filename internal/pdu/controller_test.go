package pdu

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func newTestController(f *fakeSession) *Controller {
	c := NewController("10.0.0.50", "admin", "secret", "IH101", f)
	if err := c.Connect(); err != nil {
		panic(err)
	}
	return c
}

const statusDoc = "<response>\npot0,1,2,3,4,5,6,7,8,9,1,0,12\n</response>"

func TestChangeSystemSettingsBlankIsNoOp(t *testing.T) {
	f := newFakeSession()
	c := newTestController(f)

	res, err := c.ChangeSystemSettings(SystemSettingsUpdate{SystemContact: "   "})
	if err != nil {
		t.Fatalf("ChangeSystemSettings failed: %v", err)
	}
	if res.Applied {
		t.Error("Expected blank update to not apply")
	}
	if n := f.countCalls("trigger:"); n != 0 {
		t.Errorf("Expected no apply trigger, got %d", n)
	}
	if n := f.countCalls("set:"); n != 0 {
		t.Errorf("Expected no field writes, got %d", n)
	}
}

func TestChangeSystemSettingsWritesAndCaches(t *testing.T) {
	f := newFakeSession()
	f.pages[pageSystem] = "<td>Model No.</td><td>NP-02B</td>"
	c := newTestController(f)

	res, err := c.ChangeSystemSettings(SystemSettingsUpdate{
		SystemName: "rack-pdu", Location: "IH101",
	})
	if err != nil {
		t.Fatalf("ChangeSystemSettings failed: %v", err)
	}
	if !res.Applied {
		t.Fatal("Expected update to apply")
	}

	if f.values[systemFields.Name] != "rack-pdu" {
		t.Errorf("Expected name field written, got %q", f.values[systemFields.Name])
	}
	if n := f.countCalls("trigger:"); n != 1 {
		t.Errorf("Expected one apply, got %d", n)
	}

	// Contact was not supplied and must not be touched.
	if _, ok := f.values[systemFields.Contact]; ok {
		t.Error("Contact field written without a supplied value")
	}
}

func TestChangeSystemSettingsTimeoutLeavesCache(t *testing.T) {
	f := newFakeSession()
	f.noDialogs = true
	c := newTestController(f)
	c.system.Name = "before"

	_, err := c.ChangeSystemSettings(SystemSettingsUpdate{SystemName: "after"})
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("Expected TimeoutError, got %v", err)
	}
	if c.system.Name != "before" {
		t.Errorf("Cache updated despite failed apply: %q", c.system.Name)
	}
}

func TestChangeUserSettingsRequiresBothFields(t *testing.T) {
	f := newFakeSession()
	c := newTestController(f)

	res, err := c.ChangeUserSettings(UserSettingsUpdate{NewUsername: "root"})
	if err != nil {
		t.Fatalf("ChangeUserSettings failed: %v", err)
	}
	if res.Applied {
		t.Error("Expected partial credentials to be a no-op")
	}
	if n := f.countCalls("set:"); n != 0 {
		t.Errorf("Expected no field writes, got %d", n)
	}
}

func TestChangeUserSettingsRehomesSession(t *testing.T) {
	f := newFakeSession()
	c := newTestController(f)

	res, err := c.ChangeUserSettings(UserSettingsUpdate{
		NewUsername: "root", NewPassword: "hunter2",
	})
	if err != nil {
		t.Fatalf("ChangeUserSettings failed: %v", err)
	}
	if !res.Applied {
		t.Fatal("Expected update to apply")
	}

	// Current credentials are echoed alongside the new pair.
	if f.values[userFields.CurrentUser] != "admin" || f.values[userFields.NewUser] != "root" {
		t.Errorf("Unexpected username fields: %q / %q",
			f.values[userFields.CurrentUser], f.values[userFields.NewUser])
	}
	if f.username != "root" || f.password != "hunter2" {
		t.Errorf("Session not re-homed: %s/%s", f.username, f.password)
	}

	user, pass := c.Credentials()
	if user != "root" || pass != "hunter2" {
		t.Errorf("Controller credentials not updated: %s/%s", user, pass)
	}
}

func TestChangeNetworkSettingsValidatesBeforeWriting(t *testing.T) {
	for _, bad := range []string{"10.0.0", "999.1.1.1", "10.0.0.", "a.b.c.d"} {
		f := newFakeSession()
		c := newTestController(f)

		_, err := c.ChangeNetworkSettings(NetworkSettingsUpdate{IP: bad})
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("IP %q: expected ValidationError, got %v", bad, err)
		}
		if n := f.countCalls("set:"); n != 0 {
			t.Errorf("IP %q: field written before validation failed", bad)
		}
		if n := f.countCalls("navigate:"); n != 0 {
			t.Errorf("IP %q: navigated to device despite invalid input", bad)
		}
	}
}

func TestChangeNetworkSettingsRoundTrip(t *testing.T) {
	f := newFakeSession()
	f.checked[networkFields.DHCP] = true
	c := newTestController(f)

	res, err := c.ChangeNetworkSettings(NetworkSettingsUpdate{
		DHCP: "disable", IP: "10.0.0.5", Subnet: "255.255.255.0",
	})
	if err != nil {
		t.Fatalf("ChangeNetworkSettings failed: %v", err)
	}
	if !res.Applied {
		t.Fatal("Expected update to apply")
	}

	info, err := c.GetNetworkInfo()
	if err != nil {
		t.Fatalf("GetNetworkInfo failed: %v", err)
	}
	if info.IP != "10.0.0.5" {
		t.Errorf("Expected IP 10.0.0.5 after write, got %q", info.IP)
	}
	if info.DHCPEnabled {
		t.Error("Expected DHCP disabled after write")
	}
}

func TestChangeNetworkSettingsDHCPAlreadyMatching(t *testing.T) {
	f := newFakeSession()
	f.checked[networkFields.DHCP] = false
	c := newTestController(f)

	res, err := c.ChangeNetworkSettings(NetworkSettingsUpdate{DHCP: "disable"})
	if err != nil {
		t.Fatalf("ChangeNetworkSettings failed: %v", err)
	}
	if res.Applied {
		t.Error("Expected matching DHCP state to be a no-op")
	}
	if n := f.countCalls("click:"); n != 0 {
		t.Errorf("Expected no checkbox click, got %d", n)
	}
}

func TestChangePowerActionIdempotent(t *testing.T) {
	f := newFakeSession()
	f.pages[pageStatus] = statusDoc // A=ON, B=OFF
	f.checked[outletCheckboxes["A"]] = false
	c := newTestController(f)

	res, err := c.ChangePowerAction("A", ActionOn)
	if err != nil {
		t.Fatalf("ChangePowerAction failed: %v", err)
	}
	if res.Applied {
		t.Error("Expected ON->ON to be a no-op")
	}
	if n := f.countCalls("click:"); n != 0 {
		t.Errorf("Expected zero physical toggles, got %d clicks", n)
	}
	// Exactly one state check.
	if n := f.countCalls("navigate:" + pageStatus); n != 1 {
		t.Errorf("Expected one status fetch, got %d", n)
	}
}

func TestChangePowerActionTogglesAndRefreshes(t *testing.T) {
	f := newFakeSession()
	f.pages[pageStatus] = statusDoc // A=ON, B=OFF
	f.checked[outletCheckboxes["B"]] = false
	c := newTestController(f)

	res, err := c.ChangePowerAction("B", ActionOn)
	if err != nil {
		t.Fatalf("ChangePowerAction failed: %v", err)
	}
	if !res.Applied {
		t.Fatal("Expected OFF->ON to apply")
	}

	log := f.callLog()
	joined := strings.Join(log, "|")
	if !strings.Contains(joined, "click:"+outletCheckboxes["B"]+"|click:"+outletActions[ActionOn]) {
		t.Errorf("Expected checkbox then action button, got %v", log)
	}
	// State refetched after the action.
	if n := f.countCalls("navigate:" + pageStatus); n != 2 {
		t.Errorf("Expected status fetch before and after, got %d", n)
	}
}

func TestOutletStateMissingLineKeepsCache(t *testing.T) {
	f := newFakeSession()
	f.pages[pageStatus] = statusDoc
	c := newTestController(f)

	if _, err := c.GetOutletInfo(); err != nil {
		t.Fatalf("GetOutletInfo failed: %v", err)
	}

	f.mu.Lock()
	f.pages[pageStatus] = "<response>no status here</response>"
	f.mu.Unlock()

	states, err := c.GetOutletInfo()
	if err != nil {
		t.Fatalf("GetOutletInfo failed: %v", err)
	}
	if states["A"] != StateOn || states["B"] != StateOff {
		t.Errorf("Expected cached states to survive missing status line, got %v", states)
	}
}

func TestChangePDUSettingsGroupedApplies(t *testing.T) {
	f := newFakeSession()
	c := newTestController(f)

	res, err := c.ChangePDUSettings(PDUSettingsUpdate{
		OutletAName: "projector", OutletBName: "screen", OutletAOnDelay: "3",
	})
	if err != nil {
		t.Fatalf("ChangePDUSettings failed: %v", err)
	}
	if !res.Applied {
		t.Fatal("Expected update to apply")
	}

	// Both names share one apply; the on-delay gets its own; no off-delay apply.
	if n := f.countCalls("trigger:" + pduNameApplyTrigger); n != 1 {
		t.Errorf("Expected one names apply, got %d", n)
	}
	if n := f.countCalls("trigger:" + pduOnDelayApplyTrigger); n != 1 {
		t.Errorf("Expected one on-delay apply, got %d", n)
	}
	if n := f.countCalls("trigger:" + pduOffDelayApplyTrigger); n != 0 {
		t.Errorf("Expected no off-delay apply, got %d", n)
	}
}

func TestChangePingActionDisabledOutletWarns(t *testing.T) {
	f := newFakeSession()
	f.checked[pingActiveBoxes["A"]] = true
	f.checked[pingActiveBoxes["B"]] = false
	c := newTestController(f)

	res, err := c.ChangePingActionSettings(PingActionUpdate{
		OutletAIP: "10.0.0.99", OutletAActive: "disable",
	})
	if err != nil {
		t.Fatalf("ChangePingActionSettings failed: %v", err)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "outlet A") {
		t.Errorf("Expected disabled-outlet warning, got %v", res.Warnings)
	}

	// Active box unchecked before the IP edit.
	log := strings.Join(f.callLog(), "|")
	uncheck := strings.Index(log, "click:"+pingActiveBoxes["A"])
	edit := strings.Index(log, "set:"+pingIPFields["A"])
	if uncheck == -1 || edit == -1 || uncheck > edit {
		t.Errorf("Expected uncheck before edit, log: %v", f.callLog())
	}
}

func TestChangePingActionReEnablesOutlet(t *testing.T) {
	f := newFakeSession()
	f.checked[pingActiveBoxes["A"]] = true
	f.checked[pingActiveBoxes["B"]] = false
	c := newTestController(f)

	res, err := c.ChangePingActionSettings(PingActionUpdate{
		OutletAIP: "10.0.0.99", OutletAAction: "Reboot", OutletAActive: "enable",
	})
	if err != nil {
		t.Fatalf("ChangePingActionSettings failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("Expected no warnings, got %v", res.Warnings)
	}
	if !f.checked[pingActiveBoxes["A"]] {
		t.Error("Expected outlet A re-enabled after edits")
	}
	// Two toggles: disable to edit, re-enable after.
	if n := f.countCalls("click:" + pingActiveBoxes["A"]); n != 2 {
		t.Errorf("Expected two active toggles, got %d", n)
	}
}

func TestProtocolErrorLeavesSessionUsable(t *testing.T) {
	f := newFakeSession()
	f.pages[pageStatus] = statusDoc
	f.failOn["set:"+systemFields.Name] = &ProtocolError{Step: "write T0"}
	c := newTestController(f)

	_, err := c.ChangeSystemSettings(SystemSettingsUpdate{SystemName: "x"})
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProtocolError, got %v", err)
	}

	// The controller must still serve subsequent operations.
	if _, err := c.GetOutletInfo(); err != nil {
		t.Errorf("Controller unusable after protocol error: %v", err)
	}
}

func TestConcurrentWritesDoNotInterleave(t *testing.T) {
	f := newFakeSession()
	c := newTestController(f)

	var wg sync.WaitGroup
	for _, name := range []string{"alpha", "beta"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, err := c.ChangeSystemSettings(SystemSettingsUpdate{SystemName: name}); err != nil {
				t.Errorf("ChangeSystemSettings(%s) failed: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	// Each operation's navigate..confirm sequence must be contiguous in
	// the session call log.
	log := f.callLog()
	var blocks [][]string
	var current []string
	for _, call := range log[1:] { // skip the Connect open/navigate
		if call == "open" {
			continue
		}
		if strings.HasPrefix(call, "navigate:") {
			if current != nil {
				blocks = append(blocks, current)
			}
			current = []string{call}
			continue
		}
		current = append(current, call)
	}
	if current != nil {
		blocks = append(blocks, current)
	}

	if len(blocks) != 2 {
		t.Fatalf("Expected two operation blocks, got %d: %v", len(blocks), log)
	}
	for _, block := range blocks {
		var sets, confirms int
		for _, call := range block {
			if strings.HasPrefix(call, "set:") {
				sets++
			}
			if call == "confirm" {
				confirms++
			}
		}
		if sets != 1 || confirms != 1 {
			t.Errorf("Interleaved operation block: %v", block)
		}
	}
}
