// Package notify pushes warning and critical gateway events to
// external services through Shoutrrr.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/nicholas-fedor/shoutrrr"

	"hubgate/internal/events"
	"hubgate/internal/settings"
)

// Sender abstracts message dispatch so the dispatcher can be tested
// without hitting real services.
type Sender interface {
	Send(shoutrrrURL, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(url, message string) error {
	return shoutrrr.Send(url, message)
}

// Dispatcher subscribes to the event bus and forwards warning and
// critical events, enforcing a per-(address,type) cooldown. Service
// URLs and the cooldown come from the settings table so they can
// change without a restart.
type Dispatcher struct {
	db     *sql.DB
	bus    *events.Bus
	sender Sender

	// lastSent tracks the last dispatch time per (address, event type).
	mu       sync.Mutex
	lastSent map[string]time.Time

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewDispatcher(db *sql.DB, bus *events.Bus, sender Sender) *Dispatcher {
	if sender == nil {
		sender = ShoutrrrSender{}
	}
	return &Dispatcher{
		db:       db,
		bus:      bus,
		sender:   sender,
		lastSent: make(map[string]time.Time),
		stopCh:   make(chan struct{}),
	}
}

// Start subscribes to the bus and begins dispatching in the background.
func (d *Dispatcher) Start() {
	ch := make(chan events.Event, 256)

	d.bus.Subscribe(func(e events.Event) {
		select {
		case ch <- e:
		default:
			log.Printf("notify: event queue full, dropping %s event", e.Type)
		}
	})

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case e := <-ch:
				d.handle(e)
			case <-d.stopCh:
				// Drain remaining events
				for {
					select {
					case e := <-ch:
						d.handle(e)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop signals the dispatcher goroutine to finish and waits for it.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	d.wg.Wait()
}

func (d *Dispatcher) handle(e events.Event) {
	if e.Severity < events.SeverityWarning {
		return
	}
	if !settings.GetBoolSetting(d.db, "notify", "enabled", false) {
		return
	}

	urls := serviceURLs(settings.GetStringSetting(d.db, "notify", "urls", ""))
	if len(urls) == 0 {
		return
	}

	if d.onCooldown(e) {
		return
	}

	msg := formatMessage(e)
	for _, url := range urls {
		if err := d.sender.Send(url, msg); err != nil {
			log.Printf("notify: send failed for %s event: %v", e.Type, err)
		}
	}
}

// onCooldown reports whether an equivalent alert went out too recently,
// and records the dispatch time when it did not.
func (d *Dispatcher) onCooldown(e events.Event) bool {
	cooldown := time.Duration(settings.GetIntSetting(d.db, "notify", "cooldown_minutes", 15)) * time.Minute
	if cooldown <= 0 {
		return false
	}

	key := fmt.Sprintf("%s:%s", e.Address, e.Type)
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if last, ok := d.lastSent[key]; ok && now.Sub(last) < cooldown {
		return true
	}
	d.lastSent[key] = now
	return false
}

func serviceURLs(raw string) []string {
	var urls []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	return urls
}

func formatMessage(e events.Event) string {
	severity := strings.ToUpper(e.Severity.String())
	if e.RoomCode != "" {
		return fmt.Sprintf("[%s] [room %s] %s", severity, e.RoomCode, e.Message)
	}
	return fmt.Sprintf("[%s] %s", severity, e.Message)
}
