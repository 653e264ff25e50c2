// Package houses computes the chart angles and the twelve house cusps for a
// location and Julian Day.
//
// Quadrant systems (Placidus, Koch) divide time-based semi-arcs and are
// undefined where parts of the ecliptic never rise or set. Above their
// critical latitude they fail with ErrPolarLatitude; the caller decides
// whether to retry with a space-based system such as Whole Sign. Nothing here
// falls back automatically.
package houses

import (
	"errors"
	"fmt"
	"math"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// ErrPolarLatitude is returned when a house system is mathematically
// undefined at the requested latitude.
var ErrPolarLatitude = errors.New("latitude beyond the house system's critical latitude")

// ObliquitySource supplies the obliquity of the ecliptic, in degrees.
type ObliquitySource interface {
	Obliquity(jd float64) float64
}

// Location is a point on the Earth in degrees, longitude positive east.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Cusp is the starting longitude of a house, numbered 1 to 12.
type Cusp struct {
	House     int     `json:"house"`
	Longitude float64 `json:"longitude"`
}

// Angles are the chart points that depend only on time and place.
type Angles struct {
	Ascendant float64 `json:"ascendant"`
	Midheaven float64 `json:"midheaven"`
	Vertex    float64 `json:"vertex"`
	RAMC      float64 `json:"ramc"`
	Obliquity float64 `json:"obliquity"`
}

// Descendant returns the point opposite the Ascendant.
func (a Angles) Descendant() float64 { return zodiac.Normalize(a.Ascendant + 180) }

// ImumCoeli returns the point opposite the Midheaven.
func (a Angles) ImumCoeli() float64 { return zodiac.Normalize(a.Midheaven + 180) }

// Antivertex returns the point opposite the Vertex.
func (a Angles) Antivertex() float64 { return zodiac.Normalize(a.Vertex + 180) }

// Calculator computes angles and cusps using an obliquity source.
type Calculator struct {
	obliquity ObliquitySource
}

// NewCalculator returns a Calculator backed by src.
func NewCalculator(src ObliquitySource) *Calculator {
	return &Calculator{obliquity: src}
}

// Angles returns the Ascendant, Midheaven and Vertex for loc at jd. Unlike
// Cusps it never fails: these points are defined at every latitude short of
// the poles themselves.
func (c *Calculator) Angles(loc Location, jd float64) Angles {
	eps := c.obliquity.Obliquity(jd)
	ramc := LocalSiderealTime(jd, loc.Longitude)
	return Angles{
		Ascendant: ascendant(ramc, loc.Latitude, eps),
		Midheaven: midheaven(ramc, eps),
		Vertex:    vertex(ramc, loc.Latitude, eps),
		RAMC:      ramc,
		Obliquity: eps,
	}
}

// Cusps returns the twelve cusps of system for loc at jd, house 1 first.
func (c *Calculator) Cusps(system zodiac.HouseSystem, loc Location, jd float64) ([]Cusp, error) {
	if !system.Valid() {
		return nil, fmt.Errorf("%w: %s", zodiac.ErrUnsupportedHouseSystem, system)
	}
	a := c.Angles(loc, jd)
	if crit, ok := CriticalLatitude(system, a.Obliquity); ok && math.Abs(loc.Latitude) > crit {
		return nil, fmt.Errorf("%w: %s at latitude %.4f (limit %.4f)",
			ErrPolarLatitude, system, loc.Latitude, crit)
	}

	var (
		lons [12]float64
		err  error
	)
	switch system {
	case zodiac.Equal:
		lons = evenFrom(a.Ascendant)
	case zodiac.WholeSign:
		lons = evenFrom(zodiac.SignAt(a.Ascendant).Start())
	case zodiac.Porphyry:
		lons = porphyry(a)
	case zodiac.Placidus:
		lons, err = placidus(a, loc.Latitude)
	case zodiac.Koch:
		lons, err = koch(a, loc.Latitude)
	}
	if err != nil {
		return nil, fmt.Errorf("%s at latitude %.4f: %w", system, loc.Latitude, err)
	}

	cusps := make([]Cusp, 12)
	for i, l := range lons {
		cusps[i] = Cusp{House: i + 1, Longitude: zodiac.Normalize(l)}
	}
	return cusps, nil
}

// CriticalLatitude returns the latitude beyond which system is undefined,
// and false when the system works everywhere.
func CriticalLatitude(system zodiac.HouseSystem, obliquity float64) (float64, bool) {
	switch system {
	case zodiac.Placidus, zodiac.Koch:
		return 90 - obliquity, true
	}
	return 0, false
}

// HouseOf returns the house (1–12) containing longitude, or 0 when cusps is
// not a full set. A house whose cusps straddle 0° Aries wraps around.
func HouseOf(cusps []Cusp, longitude float64) int {
	if len(cusps) != 12 {
		return 0
	}
	lon := zodiac.Normalize(longitude)
	for i := range cusps {
		start := cusps[i].Longitude
		end := cusps[(i+1)%12].Longitude
		if start <= end {
			if lon >= start && lon < end {
				return cusps[i].House
			}
			continue
		}
		if lon >= start || lon < end {
			return cusps[i].House
		}
	}
	return 0
}

func evenFrom(start float64) [12]float64 {
	var out [12]float64
	for i := range out {
		out[i] = start + 30*float64(i)
	}
	return out
}

// porphyry trisects each quadrant between the angles.
func porphyry(a Angles) [12]float64 {
	var c [12]float64
	c[0], c[9] = a.Ascendant, a.Midheaven
	upper := zodiac.Normalize(a.Ascendant - a.Midheaven) // MC to Asc
	lower := zodiac.Normalize(a.ImumCoeli() - a.Ascendant)
	c[10] = a.Midheaven + upper/3
	c[11] = a.Midheaven + 2*upper/3
	c[1] = a.Ascendant + lower/3
	c[2] = a.Ascendant + 2*lower/3
	mirrorOpposites(&c)
	return c
}

// mirrorOpposites fills houses 4–9 from 10, 11, 12, 1, 2 and 3.
func mirrorOpposites(c *[12]float64) {
	for _, i := range []int{9, 10, 11, 0, 1, 2} {
		c[(i+6)%12] = zodiac.Normalize(c[i] + 180)
	}
}
