package houses

import (
	"fmt"
	"math"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

const (
	placidusMaxIter = 100
	placidusEpsilon = 1e-9
)

// placidus trisects the diurnal and nocturnal semi-arcs in time. Each
// intermediate cusp is the fixed point of an iteration on right ascension.
func placidus(a Angles, lat float64) ([12]float64, error) {
	var c [12]float64
	c[0], c[9] = a.Ascendant, a.Midheaven

	steps := []struct {
		house    int
		fraction float64
		above    bool
	}{
		{11, 1.0 / 3, true},
		{12, 2.0 / 3, true},
		{2, 2.0 / 3, false},
		{3, 1.0 / 3, false},
	}
	for _, s := range steps {
		lon, err := placidusCusp(a.RAMC, lat, a.Obliquity, s.fraction, s.above)
		if err != nil {
			return c, fmt.Errorf("cusp %d: %w", s.house, err)
		}
		c[s.house-1] = lon
	}
	mirrorOpposites(&c)
	return c, nil
}

func placidusCusp(ramc, lat, eps, fraction float64, above bool) (float64, error) {
	next := func(ad float64) float64 {
		if above {
			return zodiac.Normalize(ramc + fraction*(90+ad))
		}
		return zodiac.Normalize(ramc + 180 - fraction*(90-ad))
	}

	ra := next(0)
	for range placidusMaxIter {
		decl := declination(eclipticFromRA(ra, eps), eps)
		ad, ok := ascensionalDifference(lat, decl)
		if !ok {
			return 0, ErrPolarLatitude
		}
		nra := next(ad)
		diff := math.Abs(zodiac.Normalize(nra-ra+180) - 180)
		ra = nra
		if diff < placidusEpsilon {
			return eclipticFromRA(ra, eps), nil
		}
	}
	return 0, fmt.Errorf("%w: no convergence after %d iterations", ErrPolarLatitude, placidusMaxIter)
}

// koch divides the Midheaven's diurnal semi-arc in time and projects each
// division through the horizon of the birth place.
func koch(a Angles, lat float64) ([12]float64, error) {
	var c [12]float64
	c[0], c[9] = a.Ascendant, a.Midheaven

	ad, ok := ascensionalDifference(lat, declination(a.Midheaven, a.Obliquity))
	if !ok {
		return c, ErrPolarLatitude
	}
	dsa := 90 + ad
	c[10] = ascendant(a.RAMC-2*dsa/3, lat, a.Obliquity)
	c[11] = ascendant(a.RAMC-dsa/3, lat, a.Obliquity)
	c[1] = ascendant(a.RAMC+dsa/3, lat, a.Obliquity)
	c[2] = ascendant(a.RAMC+2*dsa/3, lat, a.Obliquity)
	mirrorOpposites(&c)
	return c, nil
}
