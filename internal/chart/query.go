package chart

import (
	"fmt"
	"maps"
	"slices"

	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Snapshot computes the chart on first use and returns the cached result
// afterwards. The returned value is shared; do not modify it.
func (m *Moment) Snapshot() (*Snapshot, error) {
	if !m.configured() {
		return nil, ErrNotConfigured
	}
	if m.snap != nil {
		return m.snap, nil
	}
	s, err := m.compute()
	if err != nil {
		return nil, err
	}
	m.snap = s
	return s, nil
}

// JulianDay returns the Julian Day of the configured timestamp.
func (m *Moment) JulianDay() (float64, error) {
	s, err := m.Snapshot()
	if err != nil {
		return 0, err
	}
	return s.JulianDay, nil
}

// Planets returns every resolved position in catalog order.
func (m *Moment) Planets() ([]PlanetPosition, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Positions), nil
}

// Planet returns the position of one tracked body. A tracked body the
// oracle could not place yields its Unresolved error.
func (m *Moment) Planet(body zodiac.Body) (PlanetPosition, error) {
	s, err := m.Snapshot()
	if err != nil {
		return PlanetPosition{}, err
	}
	if !m.tracks(body) {
		return PlanetPosition{}, fmt.Errorf("%w: %s", ErrBodyNotAdded, body)
	}
	if p, ok := s.Planet(body); ok {
		return p, nil
	}
	for _, u := range s.Unresolved {
		if u.Body == body {
			return PlanetPosition{}, u
		}
	}
	return PlanetPosition{}, fmt.Errorf("%w: %s", ErrOracleUnavailable, body)
}

// Unresolved returns the bodies the oracle could not place.
func (m *Moment) Unresolved() ([]Unresolved, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Unresolved), nil
}

// HouseCusps returns the twelve cusps of the selected system, or the error
// the house calculation failed with.
func (m *Moment) HouseCusps() ([]houses.Cusp, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	if s.houseErr != nil {
		return nil, s.houseErr
	}
	return slices.Clone(s.Cusps), nil
}

// Angles returns the Ascendant, Midheaven and Vertex. They are available
// even when the house system fails.
func (m *Moment) Angles() (houses.Angles, error) {
	s, err := m.Snapshot()
	if err != nil {
		return houses.Angles{}, err
	}
	return s.Angles, nil
}

// Aspects returns every detected aspect, tightest first.
func (m *Moment) Aspects() ([]AspectInstance, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Aspects), nil
}

// PlanetAspects returns the aspects body takes part in.
func (m *Moment) PlanetAspects(body zodiac.Body) ([]AspectInstance, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	if !m.tracks(body) {
		return nil, fmt.Errorf("%w: %s", ErrBodyNotAdded, body)
	}
	return filter(s.Aspects, func(a AspectInstance) bool { return a.Involves(body) }), nil
}

// AspectsOfKind returns the aspects of one kind. AspectNone is never
// stored, so asking for it yields an empty result.
func (m *Moment) AspectsOfKind(kind zodiac.Aspect) ([]AspectInstance, error) {
	if kind != zodiac.AspectNone && !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", zodiac.ErrUnknownAspect, int(kind))
	}
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return filter(s.Aspects, func(a AspectInstance) bool { return a.Kind == kind }), nil
}

// Antiscia returns every detected antiscion, tightest first.
func (m *Moment) Antiscia() ([]AntiscionInstance, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return slices.Clone(s.Antiscia), nil
}

// PlanetAntiscia returns the antiscia body takes part in.
func (m *Moment) PlanetAntiscia(body zodiac.Body) ([]AntiscionInstance, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	if !m.tracks(body) {
		return nil, fmt.Errorf("%w: %s", ErrBodyNotAdded, body)
	}
	return filter(s.Antiscia, func(a AntiscionInstance) bool { return a.Involves(body) }), nil
}

// AntisciaOnAxis returns the antiscia mirrored across axis.
func (m *Moment) AntisciaOnAxis(axis zodiac.Axis) ([]AntiscionInstance, error) {
	if axis != zodiac.AxisNone && !axis.Valid() {
		return nil, fmt.Errorf("%w: %d", zodiac.ErrUnknownAxis, int(axis))
	}
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return filter(s.Antiscia, func(a AntiscionInstance) bool { return a.Axis == axis }), nil
}

// MoonPhase returns the lunar phase at the configured time.
func (m *Moment) MoonPhase() (MoonPhase, error) {
	s, err := m.Snapshot()
	if err != nil {
		return MoonPhase{}, err
	}
	return s.MoonPhase, nil
}

// ElementPoints returns the weighted body count per element.
func (m *Moment) ElementPoints() (map[zodiac.Element]int, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return maps.Clone(s.Elements), nil
}

// QualityPoints returns the weighted body count per quality.
func (m *Moment) QualityPoints() (map[zodiac.Quality]int, error) {
	s, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return maps.Clone(s.Qualities), nil
}

func filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
