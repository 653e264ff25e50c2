package houses

import (
	"math"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

const j2000 = 2451545.0

// GreenwichSiderealTime returns the mean sidereal time at Greenwich for jd,
// in degrees.
func GreenwichSiderealTime(jd float64) float64 {
	d := jd - j2000
	t := d / 36525
	return zodiac.Normalize(280.46061837 + 360.98564736629*d +
		0.000387933*t*t - t*t*t/38710000)
}

// LocalSiderealTime returns the local mean sidereal time, which is also the
// right ascension of the meridian, for an east longitude in degrees.
func LocalSiderealTime(jd, longitude float64) float64 {
	return zodiac.Normalize(GreenwichSiderealTime(jd) + longitude)
}

func rad(d float64) float64  { return d * math.Pi / 180 }
func deg(r float64) float64  { return r * 180 / math.Pi }
func sind(x float64) float64 { return math.Sin(rad(x)) }
func cosd(x float64) float64 { return math.Cos(rad(x)) }
func tand(x float64) float64 { return math.Tan(rad(x)) }

// ascendant is the ecliptic point rising on the eastern horizon.
func ascendant(ramc, lat, eps float64) float64 {
	y := cosd(ramc)
	x := -(sind(ramc)*cosd(eps) + tand(lat)*sind(eps))
	return zodiac.Normalize(deg(math.Atan2(y, x)))
}

func midheaven(ramc, eps float64) float64 {
	return eclipticFromRA(ramc, eps)
}

// vertex is where the prime vertical meets the ecliptic in the west. It is
// the ascendant of the opposite meridian at the co-latitude, flipped when
// that lands east of the meridian.
func vertex(ramc, lat, eps float64) float64 {
	co := 90 - lat
	if lat < 0 {
		co = -90 - lat
	}
	v := ascendant(zodiac.Normalize(ramc+180), co, eps)
	if zodiac.Normalize(ramc-rightAscension(v, eps)) >= 180 {
		v = zodiac.Normalize(v + 180)
	}
	return v
}

// eclipticFromRA maps a right ascension on the equator to the ecliptic
// longitude that shares its hour circle.
func eclipticFromRA(ra, eps float64) float64 {
	return zodiac.Normalize(deg(math.Atan2(sind(ra), cosd(ra)*cosd(eps))))
}

func rightAscension(lon, eps float64) float64 {
	return zodiac.Normalize(deg(math.Atan2(sind(lon)*cosd(eps), cosd(lon))))
}

// declination of an ecliptic point with zero latitude.
func declination(lon, eps float64) float64 {
	return deg(math.Asin(sind(eps) * sind(lon)))
}

// ascensionalDifference returns the difference between a point's right and
// oblique ascension. It reports false where the point never rises or sets.
func ascensionalDifference(lat, decl float64) (float64, bool) {
	x := tand(lat) * tand(decl)
	if math.Abs(x) > 1 {
		return 0, false
	}
	return deg(math.Asin(x)), true
}
