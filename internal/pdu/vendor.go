package pdu

import (
	"regexp"
	"strconv"
	"strings"
)

// Vendor page map for the 2-outlet PDU web UI. Field names, apply
// triggers and sub-page paths are fixed per firmware; nothing here is
// derived at runtime. Swapping vendors means swapping this file and the
// Session implementation, not the controller.

// Sub-pages, relative to the authenticated base URL.
const (
	pageSystem     = "/index.htm"
	pageUser       = "/configID.htm"
	pageNetwork    = "/confignet.htm"
	pagePDU        = "/configpdu.htm"
	pagePingAction = "/POMeventaction.htm"
	pageOutlet     = "/outlet.htm"
	pageStatus     = "/status.xml"
)

// byName builds the CSS selector for a form field located by name.
func byName(name string) string { return "[name='" + name + "']" }

// System settings form fields (index.htm).
var systemFields = struct {
	Name, Contact, Location string
}{byName("T0"), byName("T1"), byName("T2")}

const systemApplyTrigger = `//input[@value='Apply'][@type='button']`

// User settings form fields (configID.htm). The form requires the
// current credentials re-entered alongside the new pair.
var userFields = struct {
	CurrentUser, NewUser, CurrentPass, NewPass string
}{byName("T0"), byName("T2"), byName("T1"), byName("T3")}

const userApplyTrigger = `//input[@value='Apply'][@type='submit']`

// Network settings form fields (confignet.htm).
var networkFields = struct {
	DHCP, Hostname, IP, Subnet, Gateway, DNS1, DNS2 string
}{byName("dhcpenabled"), byName("host"), byName("ip"), byName("subnet"),
	byName("gw"), byName("dns1"), byName("dns2")}

const networkApplyTrigger = `//input[@name='submit']`

// Outlet identifiers. The vendor UI indexes outlets 0 and 1; the API
// exposes them as A and B.
var outletIndex = map[string]int{"A": 0, "B": 1}

// PDU naming/delay form fields (configpdu.htm), indexed by outlet.
var (
	pduNameFields     = map[string]string{"A": byName("B00"), "B": byName("B01")}
	pduOnDelayFields  = map[string]string{"A": byName("O00"), "B": byName("O01")}
	pduOffDelayFields = map[string]string{"A": byName("F00"), "B": byName("F01")}
)

// Three independent apply groups on the PDU page.
const (
	pduNameApplyTrigger     = `//input[@onclick='GetGroupName(0)']`
	pduOnDelayApplyTrigger  = `//input[@onclick='GetTime(0)']`
	pduOffDelayApplyTrigger = `//input[@onclick='GetTimef(0)']`
)

// Ping-action form fields (POMeventaction.htm), indexed by outlet.
// Checkbox clicks raise their own confirmation dialog; the page has no
// shared apply button.
var (
	pingIPFields     = map[string]string{"A": byName("A00"), "B": byName("A01")}
	pingActionFields = map[string]string{"A": byName("C00"), "B": byName("C01")}
	pingActiveBoxes  = map[string]string{"A": byName("D00"), "B": byName("D01")}
)

// Outlet power page (outlet.htm): per-outlet select checkbox and
// per-action buttons.
var (
	outletCheckboxes = map[string]string{"A": byName("C11"), "B": byName("C12")}
	outletActions    = map[string]string{
		ActionOn:    "#T18",
		ActionOff:   "#T19",
		ActionCycle: "#T21",
	}
)

// parseOutletStates extracts outlet A/B states from the status.xml
// document: the line tagged pot0 carries comma-separated fields with the
// outlet bits at positions 10 and 11.
func parseOutletStates(source string) (map[string]string, bool) {
	for _, line := range strings.Split(source, "\n") {
		if !strings.Contains(line, "pot0") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 12 {
			return nil, false
		}
		states := make(map[string]string, 2)
		for outlet, idx := range map[string]int{"A": 10, "B": 11} {
			bit, err := strconv.Atoi(strings.TrimSpace(fields[idx]))
			if err != nil {
				return nil, false
			}
			if bit == 1 {
				states[outlet] = StateOn
			} else {
				states[outlet] = StateOff
			}
		}
		return states, true
	}
	return nil, false
}

// Read-only vendor metadata on the system page lives in label/value table
// cells rather than form fields.
var (
	modelRe    = regexp.MustCompile(`(?s)Model\s+No\.\s*</td>\s*(?:<[^>]+>\s*)*([^<]+?)\s*<`)
	firmwareRe = regexp.MustCompile(`(?s)Firmware\s+Version\s*</td>\s*(?:<[^>]+>\s*)*([^<]+?)\s*<`)
	macRe      = regexp.MustCompile(`(?s)MAC\s+Address\s*</td>\s*(?:<[^>]+>\s*)*([^<]+?)\s*<`)
)

const notAvailable = "Not Available"

func parseSystemMetadata(source string) (model, firmware, mac string) {
	extract := func(re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(source); m != nil {
			return strings.TrimSpace(m[1])
		}
		return notAvailable
	}
	return extract(modelRe), extract(firmwareRe), extract(macRe)
}
