package pdu

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"hubgate/internal/db"
	"hubgate/internal/events"
	"hubgate/internal/models"
)

// Store is the slice of the inventory the registry needs.
type Store interface {
	ListPDUs() ([]models.PDU, error)
	InsertPDU(models.PDU) error
	DeletePDU(address string) error
}

// SQLStore adapts the sqlite inventory to the Store interface.
type SQLStore struct {
	DB *sql.DB
}

func (s SQLStore) ListPDUs() ([]models.PDU, error) { return db.ListPDUs(s.DB) }
func (s SQLStore) InsertPDU(p models.PDU) error    { return db.InsertPDU(s.DB, p) }
func (s SQLStore) DeletePDU(address string) error  { return db.DeletePDU(s.DB, address) }

// SessionFactory builds a session for one PDU descriptor.
type SessionFactory func(p models.PDU) Session

// Registry is the process-wide cache of live controllers, keyed by device
// address. The inventory store is the source of truth; on a cache miss
// the whole registry is rebuilt from it. That full-rebuild policy is
// deliberately simple and self-heals after a wipe.
type Registry struct {
	mu          sync.Mutex
	store       Store
	newSession  SessionFactory
	bus         *events.Bus
	controllers map[string]*Controller
}

// NewRegistry creates an empty registry. bus may be nil.
func NewRegistry(store Store, factory SessionFactory, bus *events.Bus) *Registry {
	return &Registry{
		store:       store,
		newSession:  factory,
		bus:         bus,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the live controller for address, rebuilding the registry
// from the inventory store on a miss. Returns NotFoundError when the
// address is absent even after a rebuild.
func (r *Registry) Get(address string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[address]; ok {
		return c, nil
	}

	if err := r.rebuildLocked(); err != nil {
		return nil, err
	}

	if c, ok := r.controllers[address]; ok {
		return c, nil
	}
	return nil, &NotFoundError{Address: address}
}

// rebuildLocked reconnects every PDU the inventory knows about. Existing
// sessions are torn down first so no browser process is orphaned; devices
// whose connect fails are discarded with an event.
func (r *Registry) rebuildLocked() error {
	for address, c := range r.controllers {
		if err := c.Disconnect(); err != nil {
			log.Printf("⚠️  registry: disconnect %s during rebuild: %v", address, err)
		}
	}
	r.controllers = make(map[string]*Controller)

	pdus, err := r.store.ListPDUs()
	if err != nil {
		return fmt.Errorf("failed to load pdu inventory: %w", err)
	}

	for _, p := range pdus {
		c := r.connect(p)
		if c == nil {
			continue
		}
		r.controllers[p.Address] = c
	}

	r.publish(events.Event{
		Type:     events.RegistryRebuilt,
		Severity: events.SeverityInfo,
		Message:  fmt.Sprintf("registry rebuilt with %d of %d known devices", len(r.controllers), len(pdus)),
	})
	return nil
}

// connect builds and opens a controller, or reports the device
// unreachable and returns nil.
func (r *Registry) connect(p models.PDU) *Controller {
	c := NewController(p.Address, p.Username, p.Password, p.RoomCode, r.newSession(p))
	if err := c.Connect(); err != nil {
		log.Printf("🔌 registry: device %s not reachable: %v", p.Address, err)
		r.publish(events.Event{
			Type:     events.DeviceUnreachable,
			Severity: events.SeverityWarning,
			Address:  p.Address,
			RoomCode: p.RoomCode,
			Message:  fmt.Sprintf("PDU %s not reachable: %v", p.Address, err),
		})
		return nil
	}
	return c
}

// Add connects a new device and, only on connect success, persists it to
// the inventory and inserts it into the registry. A failed connect leaves
// both stores untouched.
func (r *Registry) Add(p models.PDU) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.controllers[p.Address]; ok {
		return nil, fmt.Errorf("device %s is already registered", p.Address)
	}

	c := NewController(p.Address, p.Username, p.Password, p.RoomCode, r.newSession(p))
	if err := c.Connect(); err != nil {
		return nil, err
	}

	if err := r.store.InsertPDU(p); err != nil {
		if cerr := c.Disconnect(); cerr != nil {
			log.Printf("⚠️  registry: disconnect %s after failed insert: %v", p.Address, cerr)
		}
		return nil, err
	}

	r.controllers[p.Address] = c
	r.publish(events.Event{
		Type:     events.DeviceAdded,
		Severity: events.SeverityInfo,
		Address:  p.Address,
		RoomCode: p.RoomCode,
		Message:  fmt.Sprintf("PDU %s added", p.Address),
	})
	return c, nil
}

// Remove tears down the live session, then deletes the inventory record
// and the registry entry. The order is load-bearing: deleting inventory
// first would orphan the browser process if the disconnect failed.
func (r *Registry) Remove(address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.controllers[address]; ok {
		if err := c.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect %s: %w", address, err)
		}
	}

	if err := r.store.DeletePDU(address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			delete(r.controllers, address)
			return &NotFoundError{Address: address}
		}
		return err
	}

	roomCode := ""
	if c, ok := r.controllers[address]; ok {
		roomCode = c.RoomCode()
	}
	delete(r.controllers, address)
	r.publish(events.Event{
		Type:     events.DeviceRemoved,
		Severity: events.SeverityInfo,
		Address:  address,
		RoomCode: roomCode,
		Message:  fmt.Sprintf("PDU %s removed", address),
	})
	return nil
}

// Invalidate evicts and disconnects any live controllers for the given
// addresses without touching the inventory. Used when inventory rows are
// removed by cascade (room deletion).
func (r *Registry) Invalidate(addresses ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, address := range addresses {
		if c, ok := r.controllers[address]; ok {
			if err := c.Disconnect(); err != nil {
				log.Printf("⚠️  registry: disconnect %s: %v", address, err)
			}
			delete(r.controllers, address)
		}
	}
}

// CloseAll disconnects every live session. Called at shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for address, c := range r.controllers {
		if err := c.Disconnect(); err != nil {
			log.Printf("⚠️  registry: disconnect %s: %v", address, err)
		}
	}
	r.controllers = make(map[string]*Controller)
}

// Addresses returns the addresses with live controllers.
func (r *Registry) Addresses() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.controllers))
	for address := range r.controllers {
		out = append(out, address)
	}
	return out
}

func (r *Registry) publish(e events.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
