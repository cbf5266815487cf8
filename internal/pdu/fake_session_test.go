package pdu

import (
	"fmt"
	"sync"
	"time"
)

// fakeSession is an in-memory Session that records every call in order
// and serves form values from a map, so controller protocols can be
// verified without a browser.
type fakeSession struct {
	mu sync.Mutex

	open    bool
	current string            // current page path
	pages   map[string]string // page source by path
	values  map[string]string // form values by selector
	checked map[string]bool   // checkbox state by selector
	dialogs int               // pending confirmation dialogs

	calls     []string
	failOn    map[string]error // method:selector -> forced error
	noDialogs bool             // suppress confirmations to force timeouts

	username, password string
	clickHook          func(sel string)
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:   map[string]string{},
		values:  map[string]string{},
		checked: map[string]bool{},
		failOn:  map[string]error{},
	}
}

func (f *fakeSession) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSession) fail(key string) error {
	if err, ok := f.failOn[key]; ok {
		return err
	}
	return nil
}

func (f *fakeSession) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("open")
	if err := f.fail("open"); err != nil {
		return err
	}
	f.open = true
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("close")
	f.open = false
	return nil
}

func (f *fakeSession) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeSession) Navigate(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("navigate:%s", path)
	if err := f.fail("navigate:" + path); err != nil {
		return err
	}
	f.current = path
	return nil
}

func (f *fakeSession) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("back")
	return nil
}

func (f *fakeSession) PageSource() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("source:%s", f.current)
	return f.pages[f.current], nil
}

func (f *fakeSession) ReadValue(sel string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("read:%s", sel)
	if err := f.fail("read:" + sel); err != nil {
		return "", err
	}
	return f.values[sel], nil
}

func (f *fakeSession) SetValue(sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("set:%s=%s", sel, value)
	if err := f.fail("set:" + sel); err != nil {
		return err
	}
	f.values[sel] = value
	return nil
}

func (f *fakeSession) IsChecked(sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("checked:%s", sel)
	return f.checked[sel], nil
}

func (f *fakeSession) Click(sel string) error {
	f.mu.Lock()
	f.record("click:%s", sel)
	if err := f.fail("click:" + sel); err != nil {
		f.mu.Unlock()
		return err
	}
	if _, ok := f.checked[sel]; ok {
		f.checked[sel] = !f.checked[sel]
		// Checkbox toggles on this vendor UI raise confirmation dialogs.
		if !f.noDialogs {
			f.dialogs++
		}
	}
	hook := f.clickHook
	f.mu.Unlock()
	if hook != nil {
		hook(sel)
	}
	return nil
}

func (f *fakeSession) SelectOption(sel, visibleText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select:%s=%s", sel, visibleText)
	if err := f.fail("select:" + sel); err != nil {
		return err
	}
	f.values[sel] = visibleText
	return nil
}

func (f *fakeSession) ClickTrigger(xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("trigger:%s", xpath)
	if err := f.fail("trigger:" + xpath); err != nil {
		return err
	}
	if !f.noDialogs {
		f.dialogs++
	}
	return nil
}

func (f *fakeSession) WaitForConfirmation(timeout time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("confirm")
	if f.dialogs == 0 {
		return "", &TimeoutError{Step: "confirmation dialog"}
	}
	f.dialogs--
	return "Settings saved", nil
}

func (f *fakeSession) Rehome(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("rehome:%s", username)
	f.username = username
	f.password = password
}

func (f *fakeSession) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeSession) countCalls(prefix string) int {
	n := 0
	for _, c := range f.callLog() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}
