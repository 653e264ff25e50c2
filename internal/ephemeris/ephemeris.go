// Package ephemeris provides a low-precision analytical ephemeris: mean
// orbital elements with the principal perturbation terms for the Moon,
// Jupiter, Saturn and Uranus, and a periodic-term fit for Pluto.
//
// Accuracy is on the order of an arc-minute for the Sun, Moon and major
// planets over a few centuries around J2000, which is enough to place bodies
// in signs and houses and to detect aspects. Longitudes are geocentric,
// tropical and referred to the mean equinox of date.
package ephemeris

import (
	"fmt"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Validity window of the Pluto fit: 1885-01-01 to 2100-01-01 UT.
const (
	PlutoValidFrom  = 2409542.5
	PlutoValidUntil = 2488069.5
)

// epoch is the day-zero of the element polynomials, 1999-12-31 0h UT.
const epoch = 2451543.5

// Analytical computes positions from closed-form element series. It holds no
// state and is safe for concurrent use; the zero value is ready.
type Analytical struct{}

// New returns an Analytical ephemeris.
func New() *Analytical {
	return &Analytical{}
}

// Obliquity returns the mean obliquity of the ecliptic at jd, in degrees.
func (Analytical) Obliquity(jd float64) float64 {
	return 23.4393 - 3.563e-7*(jd-epoch)
}

// EclipticLongitude returns the geocentric ecliptic longitude of body at jd,
// in degrees within [0, 360).
//
// Bodies with no element set shipped here (Chiron and the four asteroids),
// and Pluto outside its fit window, fail with zodiac.ErrBodyUndefinedAtEpoch.
// Chart points such as the Ascendant are not celestial bodies and fail with
// zodiac.ErrUnknownBody.
func (Analytical) EclipticLongitude(body zodiac.Body, jd float64) (float64, error) {
	d := jd - epoch
	switch body {
	case zodiac.Sun:
		lon, _ := sunPosition(d)
		return lon, nil
	case zodiac.Moon:
		return moonLongitude(d), nil
	case zodiac.Mercury, zodiac.Venus, zodiac.Mars, zodiac.Jupiter,
		zodiac.Saturn, zodiac.Uranus, zodiac.Neptune:
		return planetLongitude(body, d), nil
	case zodiac.Pluto:
		if jd < PlutoValidFrom || jd >= PlutoValidUntil {
			return 0, fmt.Errorf("ephemeris: %s at JD %.4f outside fit window: %w",
				body, jd, zodiac.ErrBodyUndefinedAtEpoch)
		}
		return plutoLongitude(d), nil
	case zodiac.MoonNode:
		return elementsFor(zodiac.Moon, d).node, nil
	case zodiac.MoonSouthNode:
		return zodiac.Normalize(elementsFor(zodiac.Moon, d).node + 180), nil
	case zodiac.MoonApogee:
		el := elementsFor(zodiac.Moon, d)
		return zodiac.Normalize(el.node + el.peri + 180), nil
	case zodiac.Chiron, zodiac.Ceres, zodiac.Pallas, zodiac.Juno, zodiac.Vesta:
		return 0, fmt.Errorf("ephemeris: no orbital elements for %s: %w",
			body, zodiac.ErrBodyUndefinedAtEpoch)
	}
	return 0, fmt.Errorf("ephemeris: %s is not a celestial body: %w", body, zodiac.ErrUnknownBody)
}
