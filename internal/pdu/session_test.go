package pdu

import (
	"testing"
	"time"
)

func newTestChromeSession(t *testing.T) *chromeSession {
	t.Helper()
	s, ok := NewChromeSession("10.0.0.60", "admin", "pw", "", DefaultSessionTimeouts()).(*chromeSession)
	if !ok {
		t.Fatal("NewChromeSession did not return a chromeSession")
	}
	return s
}

func TestWaitForConfirmationIgnoresDrainedDialogs(t *testing.T) {
	s := newTestChromeSession(t)

	s.dialogs <- "values confirmed earlier"
	s.dialogs <- "values confirmed even earlier"
	s.drainDialogs()

	if msg, err := s.WaitForConfirmation(10 * time.Millisecond); err == nil {
		t.Errorf("Expected timeout after drain, got stale dialog %q", msg)
	}
}

func TestClickTriggerDiscardsBufferedDialogs(t *testing.T) {
	s := newTestChromeSession(t)

	s.dialogs <- "leftover from a previous apply"

	// The click itself fails on a closed session; the stale buffer must
	// be gone regardless so the next confirmation wait starts clean.
	s.ClickTrigger("//button[1]")

	select {
	case msg := <-s.dialogs:
		t.Errorf("Expected dialog buffer drained, found %q", msg)
	default:
	}
}
