// Package zodiac holds the closed vocabularies shared by every chart
// computation: celestial bodies, zodiac signs, aspect kinds, antiscion axes
// and house systems, together with the ecliptic arithmetic they rely on.
//
// Every enumeration rejects unknown values at parse time, so downstream code
// never sees an out-of-range identifier.
package zodiac

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for vocabulary lookups and oracle failures.
var (
	// ErrUnknownBody is returned when a body identifier is not in the catalog.
	ErrUnknownBody = errors.New("unknown celestial body")
	// ErrUnsupportedHouseSystem is returned for an unset or unrecognised
	// house-system selector.
	ErrUnsupportedHouseSystem = errors.New("unsupported house system")
	// ErrUnknownAspect is returned when an aspect name is not in the table.
	ErrUnknownAspect = errors.New("unknown aspect")
	// ErrUnknownAxis is returned when an antiscion axis name is not recognised.
	ErrUnknownAxis = errors.New("unknown antiscion axis")
	// ErrBodyUndefinedAtEpoch is returned by an ephemeris when it cannot place
	// a body at the requested Julian Day.
	ErrBodyUndefinedAtEpoch = errors.New("body undefined at epoch")
)

// Normalize maps any longitude into [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		// -tiny + 360 rounds up to 360 in float64.
		deg = 0
	}
	return deg
}

// Separation returns the shorter arc between two longitudes, in [0, 180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// DMS is an angle split into whole degrees, minutes and seconds.
type DMS struct {
	Degrees int `json:"degrees"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// ToDMS splits a non-negative angle into degrees, minutes and rounded
// seconds, carrying a rounded 60" into the next minute.
func ToDMS(deg float64) DMS {
	total := int(math.Round(math.Abs(deg) * 3600))
	return DMS{
		Degrees: total / 3600,
		Minutes: total / 60 % 60,
		Seconds: total % 60,
	}
}

// String formats d as 12°34'56".
func (d DMS) String() string {
	return fmt.Sprintf("%d°%02d'%02d\"", d.Degrees, d.Minutes, d.Seconds)
}
