package multiplayer

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/multisnake/internal/protocol"
)

// Ticker is the simulation a Driver advances. *room.Room satisfies it.
type Ticker interface {
	Tick() protocol.TickUpdate
}

// Driver runs one room's tick loop on a fixed period. Ticks are executed
// synchronously on the driver goroutine, so they never overlap; a tick
// that runs long makes time.Ticker drop the missed ones.
type Driver struct {
	sim    Ticker
	period time.Duration
	log    *log.Logger

	ticks    uint64
	mu       sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
	finished chan struct{}
}

// NewDriver creates a driver for sim.
func NewDriver(sim Ticker, period time.Duration, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Driver{
		sim:      sim,
		period:   period,
		log:      logger,
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Run starts the tick loop and returns after Stop.
func (d *Driver) Run() {
	defer close(d.finished)

	ticker := time.NewTicker(d.period)
	defer ticker.Stop()

	d.log.Debug("driver started", "period", d.period)
	for {
		select {
		case <-ticker.C:
			update := d.sim.Tick()
			d.mu.Lock()
			d.ticks++
			d.mu.Unlock()
			if len(update.Deaths) > 0 {
				d.log.Debug("tick", "deaths", len(update.Deaths), "players", len(update.Moves))
			}

		case <-d.done:
			d.log.Debug("driver stopped")
			return
		}
	}
}

// Ticks returns how many ticks the driver has run.
func (d *Driver) Ticks() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Stop ends the loop. Safe to call multiple times.
func (d *Driver) Stop() {
	d.doneOnce.Do(func() {
		close(d.done)
	})
}

// Wait blocks until Run has returned.
func (d *Driver) Wait() {
	<-d.finished
}
