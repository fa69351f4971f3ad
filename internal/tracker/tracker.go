// Package tracker simulates live ambulance movement for the tracking screen:
// a random walk around the current position with a steadily shrinking ETA and
// distance, fanned out to subscribers. Real GPS ingestion is out of scope.
package tracker

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// Location is a named map coordinate.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

// Update is one tracking snapshot.
type Update struct {
	Ambulance  Location  `json:"ambulance"`
	Hospital   Location  `json:"hospital"`
	ETAMinutes float64   `json:"eta_minutes"`
	DistanceKM float64   `json:"distance_km"`
	Arrived    bool      `json:"arrived"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Config tunes the simulation. Zero values fall back to the Hyderabad
// defaults the tracking screen ships with.
type Config struct {
	// Origin is the ambulance's starting location.
	Origin Location

	// Destination is the target hospital.
	Destination Location

	// Tick is the update interval.
	Tick time.Duration

	// InitialETA is the starting estimate in minutes.
	InitialETA float64

	// InitialDistance is the starting distance in kilometres.
	InitialDistance float64

	// Jitter is the per-tick coordinate wander amplitude in degrees.
	Jitter float64

	// Seed fixes the random walk for reproducible tests. Zero seeds from
	// the clock.
	Seed int64
}

// Per-tick decay rates.
const (
	etaDecay      = 0.1
	distanceDecay = 0.05
)

func (c Config) withDefaults() Config {
	if c.Origin == (Location{}) {
		c.Origin = Location{Lat: 17.3850, Lng: 78.4867, Address: "Jubilee Hills, Hyderabad"}
	}
	if c.Destination == (Location{}) {
		c.Destination = Location{Lat: 17.4065, Lng: 78.4772, Address: "Apollo Hospital, Hyderabad"}
	}
	if c.Tick <= 0 {
		c.Tick = 2 * time.Second
	}
	if c.InitialETA <= 0 {
		c.InitialETA = 8
	}
	if c.InitialDistance <= 0 {
		c.InitialDistance = 4.2
	}
	if c.Jitter <= 0 {
		c.Jitter = 0.0005
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return c
}

// Tracker runs one simulated ambulance. Create with New, drive with Run.
type Tracker struct {
	cfg  Config
	tick time.Duration
	log  *slog.Logger

	mu     sync.Mutex
	cur    Update
	rng    *rand.Rand
	subs   map[int]chan Update
	nextID int
}

// New creates a Tracker positioned at the origin.
func New(cfg Config, log *slog.Logger) *Tracker {
	cfg = cfg.withDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{
		cfg:  cfg,
		tick: cfg.Tick,
		log:  log,
		rng:  rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(cfg.Seed))),
		subs: map[int]chan Update{},
		cur: Update{
			Ambulance:  cfg.Origin,
			Hospital:   cfg.Destination,
			ETAMinutes: cfg.InitialETA,
			DistanceKM: cfg.InitialDistance,
			UpdatedAt:  time.Now(),
		},
	}
}

// Run advances the simulation until ctx is cancelled. Always returns nil so
// it can sit in an errgroup without tearing the group down on shutdown.
func (t *Tracker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	t.log.Info("ambulance tracker started",
		slog.String("from", t.cfg.Origin.Address),
		slog.String("to", t.cfg.Destination.Address),
	)
	for {
		select {
		case <-ctx.Done():
			t.log.Info("ambulance tracker stopped")
			return nil
		case <-ticker.C:
			t.step()
		}
	}
}

// step advances one tick: wander the position, decay ETA and distance with a
// floor at zero, and fan the update out.
func (t *Tracker) step() {
	t.mu.Lock()
	t.cur.Ambulance.Lat += (t.rng.Float64() - 0.5) * 2 * t.cfg.Jitter
	t.cur.Ambulance.Lng += (t.rng.Float64() - 0.5) * 2 * t.cfg.Jitter
	t.cur.ETAMinutes = max(0, t.cur.ETAMinutes-etaDecay)
	t.cur.DistanceKM = max(0, t.cur.DistanceKM-distanceDecay)
	t.cur.Arrived = t.cur.ETAMinutes == 0 && t.cur.DistanceKM == 0
	t.cur.UpdatedAt = time.Now()
	update := t.cur

	for _, ch := range t.subs {
		select {
		case ch <- update:
		default:
			// Slow subscriber: the next tick supersedes this one.
		}
	}
	t.mu.Unlock()
}

// Snapshot returns the latest update.
func (t *Tracker) Snapshot() Update {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cur
}

// Subscribe registers for tick updates. The returned cancel func must be
// called to release the subscription; the channel is closed afterwards.
func (t *Tracker) Subscribe() (<-chan Update, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	ch := make(chan Update, 1)
	t.subs[id] = ch

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
