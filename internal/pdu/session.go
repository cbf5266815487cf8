package pdu

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Session is one live browser session against a device's embedded web UI.
// Vendor page structure stays behind this interface so a different
// integration (direct HTTP, SNMP) can replace the browser without
// touching the controller logic. Methods must not be called after Close;
// implementations report that as a ProtocolError rather than a no-op.
type Session interface {
	Open() error
	Close() error
	IsOpen() bool

	// Navigate loads a configuration sub-page relative to the base URL.
	// Subsequent field reads and writes operate on that page.
	Navigate(path string) error
	Back() error
	PageSource() (string, error)

	ReadValue(sel string) (string, error)
	SetValue(sel, value string) error
	IsChecked(sel string) (bool, error)
	Click(sel string) error
	SelectOption(sel, visibleText string) error

	// ClickTrigger invokes an apply trigger located by XPath.
	ClickTrigger(xpath string) error
	// WaitForConfirmation blocks until the device raises a confirmation
	// dialog (already accepted by the session) and returns its text, or a
	// TimeoutError once the budget is spent.
	WaitForConfirmation(timeout time.Duration) (string, error)

	// Rehome rebuilds the authenticated base URL after a credential
	// change on the device.
	Rehome(username, password string)
}

// SessionTimeouts bounds every remote wait a session performs.
type SessionTimeouts struct {
	Navigation time.Duration
	Action     time.Duration
}

// DefaultSessionTimeouts matches the waits the device UI needs in practice.
func DefaultSessionTimeouts() SessionTimeouts {
	return SessionTimeouts{Navigation: 30 * time.Second, Action: 10 * time.Second}
}

// chromeSession drives a headless Chrome instance. The device embeds
// credentials in the URL, so the base URL is an internal detail and never
// leaves this type.
type chromeSession struct {
	address  string
	execPath string
	baseURL  string
	timeouts SessionTimeouts

	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	dialogs     chan string
	open        bool
}

// NewChromeSession prepares (but does not open) a browser session for the
// device at address. execPath optionally pins the Chrome binary.
func NewChromeSession(address, username, password, execPath string, timeouts SessionTimeouts) Session {
	s := &chromeSession{
		address:  address,
		execPath: execPath,
		timeouts: timeouts,
		dialogs:  make(chan string, 4),
	}
	s.Rehome(username, password)
	return s
}

func (s *chromeSession) Rehome(username, password string) {
	s.baseURL = fmt.Sprintf("http://%s:%s@%s", username, password, s.address)
}

func (s *chromeSession) Open() error {
	if s.open {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.WindowSize(1840, 1080),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	// Dialog text buffered by a previous incarnation of this session
	// must not satisfy a confirmation wait in the new one.
	s.drainDialogs()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	s.ctx = ctx
	s.cancel = cancel
	s.allocCancel = allocCancel

	// Device pages confirm every apply with a JS dialog. Accept them all
	// and buffer the text for WaitForConfirmation.
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if d, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			select {
			case s.dialogs <- d.Message:
			default:
			}
			go func() {
				if err := chromedp.Run(ctx, page.HandleJavaScriptDialog(true)); err != nil {
					log.Printf("⚠️  pdu %s: could not accept dialog: %v", s.address, err)
				}
			}()
		}
	})

	if err := s.run(s.timeouts.Navigation, chromedp.Navigate(s.baseURL)); err != nil {
		s.teardown()
		return &ConnectionError{Address: s.address, Err: err}
	}

	s.open = true
	return nil
}

func (s *chromeSession) Close() error {
	if !s.open {
		return nil
	}
	s.teardown()
	s.open = false
	return nil
}

func (s *chromeSession) teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

func (s *chromeSession) IsOpen() bool { return s.open }

func (s *chromeSession) run(timeout time.Duration, actions ...chromedp.Action) error {
	if !s.open && s.ctx == nil {
		return &ProtocolError{Step: "session", Err: fmt.Errorf("session is closed")}
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

func (s *chromeSession) Navigate(path string) error {
	if err := s.run(s.timeouts.Navigation, chromedp.Navigate(s.baseURL+path)); err != nil {
		return &ConnectionError{Address: s.address, Err: err}
	}
	return nil
}

func (s *chromeSession) Back() error {
	return s.run(s.timeouts.Navigation, chromedp.NavigateBack())
}

func (s *chromeSession) PageSource() (string, error) {
	var src string
	if err := s.run(s.timeouts.Action, chromedp.OuterHTML("html", &src, chromedp.ByQuery)); err != nil {
		return "", &ProtocolError{Step: "page source", Err: err}
	}
	return src, nil
}

func (s *chromeSession) ReadValue(sel string) (string, error) {
	var value string
	if err := s.run(s.timeouts.Action, chromedp.Value(sel, &value, chromedp.ByQuery)); err != nil {
		return "", &ProtocolError{Step: fmt.Sprintf("read %s", sel), Err: err}
	}
	return value, nil
}

func (s *chromeSession) SetValue(sel, value string) error {
	if err := s.run(s.timeouts.Action, chromedp.SetValue(sel, value, chromedp.ByQuery)); err != nil {
		return &ProtocolError{Step: fmt.Sprintf("write %s", sel), Err: err}
	}
	return nil
}

func (s *chromeSession) IsChecked(sel string) (bool, error) {
	var checked bool
	js := fmt.Sprintf(`document.querySelector(%q).checked`, sel)
	if err := s.run(s.timeouts.Action, chromedp.Evaluate(js, &checked)); err != nil {
		return false, &ProtocolError{Step: fmt.Sprintf("read checkbox %s", sel), Err: err}
	}
	return checked, nil
}

func (s *chromeSession) Click(sel string) error {
	if err := s.run(s.timeouts.Action, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return &ProtocolError{Step: fmt.Sprintf("click %s", sel), Err: err}
	}
	return nil
}

func (s *chromeSession) SelectOption(sel, visibleText string) error {
	var found bool
	js := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		for (const opt of el.options) {
			if (opt.text.trim() === %q) {
				el.value = opt.value;
				el.dispatchEvent(new Event('change', {bubbles: true}));
				return true;
			}
		}
		return false;
	})()`, sel, visibleText)
	if err := s.run(s.timeouts.Action, chromedp.Evaluate(js, &found)); err != nil {
		return &ProtocolError{Step: fmt.Sprintf("select %s", sel), Err: err}
	}
	if !found {
		return &ProtocolError{Step: fmt.Sprintf("select %s", sel),
			Err: fmt.Errorf("option %q not present", visibleText)}
	}
	return nil
}

func (s *chromeSession) ClickTrigger(xpath string) error {
	// Discard stale dialog text so the confirmation that follows is the
	// one this trigger raised.
	s.drainDialogs()
	if err := s.run(s.timeouts.Action, chromedp.Click(xpath, chromedp.BySearch)); err != nil {
		return &TimeoutError{Step: fmt.Sprintf("apply trigger %s", xpath)}
	}
	return nil
}

func (s *chromeSession) drainDialogs() {
	for {
		select {
		case <-s.dialogs:
		default:
			return
		}
	}
}

func (s *chromeSession) WaitForConfirmation(timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-s.dialogs:
		return msg, nil
	case <-timer.C:
		return "", &TimeoutError{Step: "confirmation dialog"}
	}
}
