package chart

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Snapshot is the complete computed result of a Moment. It is what the
// archive stores and the cache shares, so every field serializes.
type Snapshot struct {
	Timestamp   calendar.Timestamp     `json:"timestamp"`
	JulianDay   float64                `json:"julian_day"`
	Coordinates GeoCoordinate          `json:"coordinates"`
	HouseSystem zodiac.HouseSystem     `json:"house_system"`
	Bodies      []zodiac.Body          `json:"bodies"`
	Positions   []PlanetPosition       `json:"positions"`
	Unresolved  []Unresolved           `json:"unresolved,omitempty"`
	Angles      houses.Angles          `json:"angles"`
	Cusps       []houses.Cusp          `json:"cusps,omitempty"`
	HouseError  string                 `json:"house_error,omitempty"`
	Aspects     []AspectInstance       `json:"aspects"`
	Antiscia    []AntiscionInstance    `json:"antiscia"`
	MoonPhase   MoonPhase              `json:"moon_phase"`
	Elements    map[zodiac.Element]int `json:"elements"`
	Qualities   map[zodiac.Quality]int `json:"qualities"`

	houseErr error
}

// Planet returns the position of body, if it was resolved.
func (s *Snapshot) Planet(body zodiac.Body) (PlanetPosition, bool) {
	for _, p := range s.Positions {
		if p.Body == body {
			return p, true
		}
	}
	return PlanetPosition{}, false
}

// HouseErr returns why the cusps are missing, or nil. A decoded snapshot
// only carries the message of the original error.
func (s *Snapshot) HouseErr() error {
	if s.houseErr != nil {
		return s.houseErr
	}
	if s.HouseError != "" {
		return errors.New(s.HouseError)
	}
	return nil
}

// compute derives the whole chart. The caller guarantees the moment is
// configured.
func (m *Moment) compute() (*Snapshot, error) {
	start := time.Now()
	jd, err := m.timestamp.JulianDay()
	if err != nil {
		return nil, err
	}
	loc := m.coords.location()

	var oracleBodies []zodiac.Body
	for _, b := range m.bodies {
		if b.Info().RealBody {
			oracleBodies = append(oracleBodies, b)
		}
	}
	res := m.resolver.Resolve(oracleBodies, jd)
	angles := m.calc.Angles(loc, jd)

	resolved := make(map[zodiac.Body]PlanetPosition, len(res.Positions))
	for _, p := range res.Positions {
		resolved[p.Body] = p
	}
	positions := make([]PlanetPosition, 0, len(m.bodies))
	for _, b := range m.bodies {
		if b.Info().RealBody {
			if p, ok := resolved[b]; ok {
				positions = append(positions, p)
			}
			continue
		}
		positions = append(positions, PlanetPosition{Body: b, Longitude: chartPoint(b, angles)})
	}

	snap := &Snapshot{
		Timestamp:   m.timestamp,
		JulianDay:   jd,
		Coordinates: m.coords,
		HouseSystem: m.system,
		Bodies:      m.Bodies(),
		Unresolved:  res.Unresolved,
		Angles:      angles,
		MoonPhase:   MoonPhaseAt(jd),
		Elements:    make(map[zodiac.Element]int),
		Qualities:   make(map[zodiac.Quality]int),
	}

	snap.Cusps, snap.houseErr = m.calc.Cusps(m.system, loc, jd)
	if snap.houseErr != nil {
		snap.HouseError = snap.houseErr.Error()
	}
	for i := range positions {
		positions[i].House = houses.HouseOf(snap.Cusps, positions[i].Longitude)
		sign := positions[i].Sign()
		pts := positions[i].Body.Info().Points
		snap.Elements[sign.Element()] += pts
		snap.Qualities[sign.Quality()] += pts
	}
	snap.Positions = positions
	snap.Aspects = m.aspects.DetectAll(positions)
	snap.Antiscia = m.antiscia.DetectAll(positions)

	m.log(snap)
	if m.observer != nil {
		houseErr := snap.houseErr
		if m.system == zodiac.HouseSystemNone {
			houseErr = nil
		}
		m.observer.ObserveComputation(m.system.String(), time.Since(start),
			len(res.Positions), len(res.Unresolved), houseErr)
	}
	return snap, nil
}

func (m *Moment) log(s *Snapshot) {
	for _, u := range s.Unresolved {
		m.logger.Warn().Str("body", u.Body.String()).Err(u.Err).Msg("body unresolved")
	}
	if s.houseErr != nil {
		ev := m.logger.Warn()
		if m.system == zodiac.HouseSystemNone {
			ev = m.logger.Debug()
		}
		ev.Str("system", m.system.String()).Err(s.houseErr).Msg("house cusps unavailable")
	}
	m.logger.Debug().
		Float64("jd", s.JulianDay).
		Int("positions", len(s.Positions)).
		Int("aspects", len(s.Aspects)).
		Int("antiscia", len(s.Antiscia)).
		Msg("moment computed")
}

func chartPoint(b zodiac.Body, a houses.Angles) float64 {
	switch b {
	case zodiac.Ascendant:
		return a.Ascendant
	case zodiac.Descendant:
		return a.Descendant()
	case zodiac.Midheaven:
		return a.Midheaven
	case zodiac.ImumCoeli:
		return a.ImumCoeli()
	case zodiac.Vertex:
		return a.Vertex
	case zodiac.Antivertex:
		return a.Antivertex()
	}
	panic(fmt.Sprintf("chart: %s is not a chart point", b))
}

// fingerprintInput lists everything a snapshot depends on.
type fingerprintInput struct {
	Timestamp   calendar.Timestamp        `json:"timestamp"`
	Coordinates GeoCoordinate             `json:"coordinates"`
	HouseSystem zodiac.HouseSystem        `json:"house_system"`
	Bodies      []zodiac.Body             `json:"bodies"`
	Kinds       []zodiac.Aspect           `json:"kinds"`
	Orbs        map[zodiac.Aspect]float64 `json:"orbs"`
	Policy      string                    `json:"policy"`
	AxisOrb     float64                   `json:"axis_orb"`
	Axes        []zodiac.Axis             `json:"axes"`
}

// Fingerprint returns a stable hash of the moment's configuration. Two
// moments with the same fingerprint compute the same snapshot, which makes
// it a cache key.
func (m *Moment) Fingerprint() (string, error) {
	if !m.configured() {
		return "", ErrNotConfigured
	}
	data, err := json.Marshal(fingerprintInput{
		Timestamp:   m.timestamp,
		Coordinates: m.coords,
		HouseSystem: m.system,
		Bodies:      m.bodies,
		Kinds:       m.aspects.kinds,
		Orbs:        m.aspects.orbs,
		Policy:      m.aspects.policy.String(),
		AxisOrb:     m.antiscia.orb,
		Axes:        m.antiscia.axes,
	})
	if err != nil {
		return "", fmt.Errorf("chart: fingerprint: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
