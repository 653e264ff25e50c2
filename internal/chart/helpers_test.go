package chart

import (
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// stubOracle returns fixed longitudes and counts every lookup.
type stubOracle struct {
	lons  map[zodiac.Body]float64
	fails map[zodiac.Body]error
	calls int
}

func (o *stubOracle) EclipticLongitude(b zodiac.Body, _ float64) (float64, error) {
	o.calls++
	if err, ok := o.fails[b]; ok {
		return 0, err
	}
	lon, ok := o.lons[b]
	if !ok {
		return 0, zodiac.ErrBodyUndefinedAtEpoch
	}
	return lon, nil
}

func (*stubOracle) Obliquity(float64) float64 { return 23.44 }

// linearOracle moves every body at a constant daily rate from base at jd0.
type linearOracle struct {
	base  float64
	rate  float64
	jd0   float64
	until float64 // fail at or after this JD when non-zero
}

func (o linearOracle) EclipticLongitude(_ zodiac.Body, jd float64) (float64, error) {
	if o.until != 0 && jd >= o.until {
		return 0, zodiac.ErrBodyUndefinedAtEpoch
	}
	return o.base + o.rate*(jd-o.jd0), nil
}

func (linearOracle) Obliquity(float64) float64 { return 23.44 }

func pos(b zodiac.Body, lon float64) PlanetPosition {
	return PlanetPosition{Body: b, Longitude: lon}
}
