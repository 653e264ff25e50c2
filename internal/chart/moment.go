package chart

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// State is the lifecycle stage of a Moment.
type State int

// Moment lifecycle. Any setter moves a Computed moment back to Configured.
const (
	Unconfigured State = iota
	Configured
	Computed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Computed:
		return "computed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Observer receives a summary of every computation a Moment performs.
type Observer interface {
	ObserveComputation(system string, elapsed time.Duration, resolved, unresolved int, houseErr error)
}

// Option configures a Moment.
type Option func(*Moment)

// WithLogger sets the diagnostics logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Moment) { m.logger = l }
}

// WithAspectDetector replaces the default aspect detector.
func WithAspectDetector(d *AspectDetector) Option {
	return func(m *Moment) { m.aspects = d }
}

// WithAntiscionDetector replaces the default antiscion detector.
func WithAntiscionDetector(d *AntiscionDetector) Option {
	return func(m *Moment) { m.antiscia = d }
}

// WithObserver registers o to be told about each computation.
func WithObserver(o Observer) Option {
	return func(m *Moment) { m.observer = o }
}

// Moment gathers a timestamp, a location, a house system and a set of
// bodies, and lazily derives the chart from them. The first query computes
// everything and caches it; setters drop the cache.
//
// A Moment is not safe for concurrent use. It is cheap to build, so give
// each goroutine its own.
type Moment struct {
	resolver *Resolver
	calc     *houses.Calculator
	aspects  *AspectDetector
	antiscia *AntiscionDetector
	logger   zerolog.Logger
	observer Observer

	timestamp    calendar.Timestamp
	hasTimestamp bool
	coords       GeoCoordinate
	hasCoords    bool
	system       zodiac.HouseSystem
	bodies       []zodiac.Body

	snap *Snapshot
}

// New returns an unconfigured Moment that reads positions from oracle.
func New(oracle Oracle, opts ...Option) *Moment {
	m := &Moment{
		resolver: NewResolver(oracle),
		calc:     houses.NewCalculator(oracle),
		aspects: &AspectDetector{
			kinds: zodiac.Aspects(),
			orbs:  zodiac.DefaultOrbs(),
		},
		antiscia: &AntiscionDetector{orb: DefaultAntiscionOrb, axes: zodiac.ClassicalAxes()},
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State reports the lifecycle stage.
func (m *Moment) State() State {
	switch {
	case m.snap != nil:
		return Computed
	case m.configured():
		return Configured
	}
	return Unconfigured
}

func (m *Moment) configured() bool { return m.hasTimestamp && m.hasCoords }

func (m *Moment) invalidate() { m.snap = nil }

// SetTimestamp sets the moment's time.
func (m *Moment) SetTimestamp(ts calendar.Timestamp) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	m.timestamp, m.hasTimestamp = ts, true
	m.invalidate()
	return nil
}

// Timestamp returns the configured time and whether one is set.
func (m *Moment) Timestamp() (calendar.Timestamp, bool) { return m.timestamp, m.hasTimestamp }

// SetCoordinates sets the moment's place.
func (m *Moment) SetCoordinates(g GeoCoordinate) error {
	if err := g.Validate(); err != nil {
		return err
	}
	m.coords, m.hasCoords = g, true
	m.invalidate()
	return nil
}

// Coordinates returns the configured place and whether one is set.
func (m *Moment) Coordinates() (GeoCoordinate, bool) { return m.coords, m.hasCoords }

// SetHouseSystem selects the house system. HouseSystemNone clears it, after
// which HouseCusps reports zodiac.ErrUnsupportedHouseSystem.
func (m *Moment) SetHouseSystem(h zodiac.HouseSystem) error {
	if !h.Known() {
		return fmt.Errorf("%w: %d", zodiac.ErrUnsupportedHouseSystem, int(h))
	}
	m.system = h
	m.invalidate()
	return nil
}

// HouseSystem returns the selected house system.
func (m *Moment) HouseSystem() zodiac.HouseSystem { return m.system }

// AddBody starts tracking b. Adding a tracked body again changes nothing
// but still drops the cache.
func (m *Moment) AddBody(b zodiac.Body) error {
	if !b.Valid() {
		return fmt.Errorf("%w: %d", zodiac.ErrUnknownBody, int(b))
	}
	m.insert(b)
	m.invalidate()
	return nil
}

// AddAllPlanets tracks the Sun, the Moon and the eight planets.
func (m *Moment) AddAllPlanets() {
	for _, b := range zodiac.Planets() {
		m.insert(b)
	}
	m.invalidate()
}

// AddAllBodies tracks every body and chart point in the catalog.
func (m *Moment) AddAllBodies() {
	for _, b := range zodiac.Bodies() {
		m.insert(b)
	}
	m.invalidate()
}

// RemoveBody stops tracking b.
func (m *Moment) RemoveBody(b zodiac.Body) error {
	i, found := slices.BinarySearch(m.bodies, b)
	if !found {
		return fmt.Errorf("%w: %s", ErrBodyNotAdded, b)
	}
	m.bodies = slices.Delete(m.bodies, i, i+1)
	m.invalidate()
	return nil
}

// Bodies returns the tracked bodies in catalog order.
func (m *Moment) Bodies() []zodiac.Body { return slices.Clone(m.bodies) }

// insert keeps bodies sorted in catalog order without duplicates.
func (m *Moment) insert(b zodiac.Body) {
	if i, found := slices.BinarySearch(m.bodies, b); !found {
		m.bodies = slices.Insert(m.bodies, i, b)
	}
}

func (m *Moment) tracks(b zodiac.Body) bool {
	_, found := slices.BinarySearch(m.bodies, b)
	return found
}
