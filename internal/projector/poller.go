package projector

import (
	"errors"
	"fmt"
	"log"
	"time"
)

var (
	// ErrInitializationFailed means the projector never left the ERR state
	// within the retry budget.
	ErrInitializationFailed = errors.New("projector stuck in error state")

	// ErrPowerActionTimeout means a power command was sent but the target
	// state was not observed within the retry budget.
	ErrPowerActionTimeout = errors.New("projector did not reach requested power state")
)

// PowerControl is the slice of the client the poller needs.
type PowerControl interface {
	Power() (string, error)
	SetPower(state string) error
}

// Poller drives a projector to a target power state with a bounded
// poll loop. Retries here are the only automatic retries in the system.
type Poller struct {
	dev        PowerControl
	maxRetries int
	interval   time.Duration

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

const (
	DefaultMaxRetries = 10
	DefaultInterval   = 3 * time.Second
)

func NewPoller(dev PowerControl, maxRetries int, interval time.Duration) *Poller {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{dev: dev, maxRetries: maxRetries, interval: interval, sleep: time.Sleep}
}

// WaitUntilReady polls until the power property reads something other
// than ERR and returns that state. A projector reporting ERR needs its
// lamp controller to re-initialize, which it does on its own given time.
func (p *Poller) WaitUntilReady() (string, error) {
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		state, err := p.dev.Power()
		if err != nil {
			return "", err
		}
		if state != PowerError {
			return state, nil
		}
		log.Printf("⚠️ Projector in ERR state, waiting for re-initialization (attempt %d/%d)", attempt+1, p.maxRetries)
		p.sleep(p.interval)
	}
	return "", ErrInitializationFailed
}

// TurnOn powers the projector on. Already-on is a no-op; INIT means the
// projector is booting and only needs to be polled to completion.
func (p *Poller) TurnOn() error {
	state, err := p.WaitUntilReady()
	if err != nil {
		return err
	}
	switch state {
	case PowerOn:
		return nil
	case PowerOff:
		if err := p.dev.SetPower(PowerOn); err != nil {
			return err
		}
	case PowerInit:
		// Boot already in progress, just wait for it.
	default:
		return fmt.Errorf("unrecognized projector power state %q", state)
	}
	return p.pollFor(PowerOn)
}

// TurnOff powers the projector off. Already-off is a no-op.
func (p *Poller) TurnOff() error {
	state, err := p.WaitUntilReady()
	if err != nil {
		return err
	}
	if state == PowerOff {
		return nil
	}
	if err := p.dev.SetPower(PowerOff); err != nil {
		return err
	}
	return p.pollFor(PowerOff)
}

func (p *Poller) pollFor(target string) error {
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		p.sleep(p.interval)
		state, err := p.dev.Power()
		if err != nil {
			return err
		}
		if state == target {
			return nil
		}
	}
	return ErrPowerActionTimeout
}
