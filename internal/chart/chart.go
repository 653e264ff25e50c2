// Package chart turns a time, a place and a set of bodies into a computed
// astrological chart: positions, house cusps, aspects and antiscia.
//
// Positions come from an Oracle supplied by the caller. The package never
// constructs one itself, so the same code runs against the bundled analytical
// ephemeris, a native library or a test double.
package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Sentinel errors. Per-body failures are reported through Unresolved and
// never abort a computation.
var (
	ErrOracleUnavailable  = errors.New("ephemeris oracle could not produce a position")
	ErrNotOracleBody      = errors.New("chart point is derived from house geometry, not the ephemeris")
	ErrNotConfigured      = errors.New("moment needs a timestamp and coordinates before it can be queried")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrBodyNotAdded       = errors.New("body is not tracked by this moment")
)

// Oracle is the ephemeris boundary: ecliptic longitudes of celestial bodies
// and the obliquity of the ecliptic, both in degrees.
type Oracle interface {
	EclipticLongitude(body zodiac.Body, jd float64) (float64, error)
	Obliquity(jd float64) float64
}

// GeoCoordinate is a point on the Earth. Longitude is positive east.
type GeoCoordinate struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Altitude  float64 `json:"altitude"`
}

// NewGeoCoordinate returns a validated coordinate.
func NewGeoCoordinate(longitude, latitude, altitude float64) (GeoCoordinate, error) {
	g := GeoCoordinate{Longitude: longitude, Latitude: latitude, Altitude: altitude}
	if err := g.Validate(); err != nil {
		return GeoCoordinate{}, err
	}
	return g, nil
}

// Validate checks that longitude is within [-180, 180] and latitude within
// [-90, 90].
func (g GeoCoordinate) Validate() error {
	switch {
	case math.IsNaN(g.Longitude) || g.Longitude < -180 || g.Longitude > 180:
		return fmt.Errorf("%w: longitude %g outside [-180, 180]", ErrInvalidCoordinates, g.Longitude)
	case math.IsNaN(g.Latitude) || g.Latitude < -90 || g.Latitude > 90:
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrInvalidCoordinates, g.Latitude)
	case math.IsNaN(g.Altitude) || math.IsInf(g.Altitude, 0):
		return fmt.Errorf("%w: altitude %g", ErrInvalidCoordinates, g.Altitude)
	}
	return nil
}

func (g GeoCoordinate) location() houses.Location {
	return houses.Location{Latitude: g.Latitude, Longitude: g.Longitude}
}

// PlanetPosition is the resolved place of one body. House is zero when no
// house system is selected or the selected one failed.
type PlanetPosition struct {
	Body       zodiac.Body `json:"body"`
	Longitude  float64     `json:"longitude"`
	Speed      float64     `json:"speed"`
	Retrograde bool        `json:"retrograde"`
	House      int         `json:"house,omitempty"`
}

// Sign returns the zodiac sign containing the position.
func (p PlanetPosition) Sign() zodiac.Sign { return zodiac.SignAt(p.Longitude) }

// SignOffset returns the degrees travelled into the sign.
func (p PlanetPosition) SignOffset() float64 { return zodiac.SignOffset(p.Longitude) }

// DMS returns the offset within the sign as degrees, minutes and seconds.
func (p PlanetPosition) DMS() zodiac.DMS { return zodiac.ToDMS(p.SignOffset()) }

// Dignity returns the classical dignity of the body in its sign.
func (p PlanetPosition) Dignity() zodiac.Dignity { return zodiac.DignityOf(p.Body, p.Sign()) }
