package ephemeris

import (
	"math"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// elementSeries holds linear polynomials in d (days from epoch) for the six
// classical orbital elements: ascending node, inclination, argument of
// perihelion, semi-major axis, eccentricity and mean anomaly.
type elementSeries struct {
	n0, n1 float64
	i0, i1 float64
	w0, w1 float64
	a0, a1 float64
	e0, e1 float64
	m0, m1 float64
}

// elements are the evaluated orbital elements at one instant. Angles are in
// degrees and normalised.
type elements struct {
	node, incl, peri, axis, ecc, anomaly float64
}

// The Sun's entry describes the Earth–Sun orbit seen from the Earth; the
// Moon's semi-major axis is in Earth radii, everything else in AU.
var series = map[zodiac.Body]elementSeries{
	zodiac.Sun: {
		0, 0, 0, 0, 282.9404, 4.70935e-5,
		1.0, 0, 0.016709, -1.151e-9, 356.0470, 0.9856002585,
	},
	zodiac.Moon: {
		125.1228, -0.0529538083, 5.1454, 0, 318.0634, 0.1643573223,
		60.2666, 0, 0.054900, 0, 115.3654, 13.0649929509,
	},
	zodiac.Mercury: {
		48.3313, 3.24587e-5, 7.0047, 5.00e-8, 29.1241, 1.01444e-5,
		0.387098, 0, 0.205635, 5.59e-10, 168.6562, 4.0923344368,
	},
	zodiac.Venus: {
		76.6799, 2.46590e-5, 3.3946, 2.75e-8, 54.8910, 1.38374e-5,
		0.723330, 0, 0.006773, -1.302e-9, 48.0052, 1.6021302244,
	},
	zodiac.Mars: {
		49.5574, 2.11081e-5, 1.8497, -1.78e-8, 286.5016, 2.92961e-5,
		1.523688, 0, 0.093405, 2.516e-9, 18.6021, 0.5240207766,
	},
	zodiac.Jupiter: {
		100.4542, 2.76854e-5, 1.3030, -1.557e-7, 273.8777, 1.64505e-5,
		5.20256, 0, 0.048498, 4.469e-9, 19.8950, 0.0830853001,
	},
	zodiac.Saturn: {
		113.6634, 2.38980e-5, 2.4886, -1.081e-7, 339.3939, 2.97661e-5,
		9.55475, 0, 0.055546, -9.499e-9, 316.9670, 0.0334442282,
	},
	zodiac.Uranus: {
		74.0005, 1.3978e-5, 0.7733, 1.9e-8, 96.6612, 3.0565e-5,
		19.18171, -1.55e-8, 0.047318, 7.45e-9, 142.5905, 0.011725806,
	},
	zodiac.Neptune: {
		131.7806, 3.0173e-5, 1.7700, -2.55e-7, 272.8461, -6.027e-6,
		30.05826, 3.313e-8, 0.008606, 2.15e-9, 260.2471, 0.005995147,
	},
}

func elementsFor(body zodiac.Body, d float64) elements {
	s := series[body]
	return elements{
		node:    zodiac.Normalize(s.n0 + s.n1*d),
		incl:    s.i0 + s.i1*d,
		peri:    zodiac.Normalize(s.w0 + s.w1*d),
		axis:    s.a0 + s.a1*d,
		ecc:     s.e0 + s.e1*d,
		anomaly: zodiac.Normalize(s.m0 + s.m1*d),
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }
func deg(r float64) float64   { return r * 180 / math.Pi }
func sind(x float64) float64  { return math.Sin(rad(x)) }
func cosd(x float64) float64  { return math.Cos(rad(x)) }

// eccentricAnomaly solves Kepler's equation M = E − e·sin E by Newton
// iteration. M is in degrees, the result in radians.
func eccentricAnomaly(meanAnomaly, ecc float64) float64 {
	m := rad(meanAnomaly)
	e := m + ecc*math.Sin(m)*(1+ecc*math.Cos(m))
	for range 50 {
		de := (e - ecc*math.Sin(e) - m) / (1 - ecc*math.Cos(e))
		e -= de
		if math.Abs(de) < 1e-12 {
			break
		}
	}
	return e
}

// orbitPosition returns the true anomaly (degrees) and radius vector for el.
func orbitPosition(el elements) (trueAnomaly, radius float64) {
	e := eccentricAnomaly(el.anomaly, el.ecc)
	xv := el.axis * (math.Cos(e) - el.ecc)
	yv := el.axis * math.Sqrt(1-el.ecc*el.ecc) * math.Sin(e)
	return deg(math.Atan2(yv, xv)), math.Hypot(xv, yv)
}

// eclipticPosition rotates an orbit position into ecliptic longitude,
// latitude and radius around the orbit's central body.
func eclipticPosition(el elements) (lon, lat, r float64) {
	v, r := orbitPosition(el)
	n, i, vw := rad(el.node), rad(el.incl), rad(v+el.peri)
	xh := r * (math.Cos(n)*math.Cos(vw) - math.Sin(n)*math.Sin(vw)*math.Cos(i))
	yh := r * (math.Sin(n)*math.Cos(vw) + math.Cos(n)*math.Sin(vw)*math.Cos(i))
	zh := r * math.Sin(vw) * math.Sin(i)
	lon = zodiac.Normalize(deg(math.Atan2(yh, xh)))
	lat = deg(math.Atan2(zh, math.Hypot(xh, yh)))
	return lon, lat, r
}

// sunPosition returns the Sun's geocentric longitude and distance in AU.
func sunPosition(d float64) (lon, r float64) {
	el := elementsFor(zodiac.Sun, d)
	v, r := orbitPosition(el)
	return zodiac.Normalize(v + el.peri), r
}

func moonLongitude(d float64) float64 {
	lon, _, _ := eclipticPosition(elementsFor(zodiac.Moon, d))

	sun := elementsFor(zodiac.Sun, d)
	moon := elementsFor(zodiac.Moon, d)
	ms, mm := sun.anomaly, moon.anomaly
	ls := ms + sun.peri
	lm := mm + moon.peri + moon.node
	el := lm - ls // mean elongation
	f := lm - moon.node

	lon += -1.274*sind(mm-2*el) +
		0.658*sind(2*el) -
		0.186*sind(ms) -
		0.059*sind(2*mm-2*el) -
		0.057*sind(mm-2*el+ms) +
		0.053*sind(mm+2*el) +
		0.046*sind(2*el-ms) +
		0.041*sind(mm-ms) -
		0.035*sind(el) -
		0.031*sind(mm+ms) -
		0.015*sind(2*f-2*el) +
		0.011*sind(mm-4*el)
	return zodiac.Normalize(lon)
}

// planetLongitude converts a heliocentric planet position to geocentric
// longitude, applying the mutual Jupiter–Saturn–Uranus perturbations.
func planetLongitude(body zodiac.Body, d float64) float64 {
	lon, lat, r := eclipticPosition(elementsFor(body, d))

	mj := elementsFor(zodiac.Jupiter, d).anomaly
	msa := elementsFor(zodiac.Saturn, d).anomaly
	mu := elementsFor(zodiac.Uranus, d).anomaly
	switch body {
	case zodiac.Jupiter:
		lon += -0.332*sind(2*mj-5*msa-67.6) -
			0.056*sind(2*mj-2*msa+21) +
			0.042*sind(3*mj-5*msa+21) -
			0.036*sind(mj-2*msa) +
			0.022*cosd(mj-msa) +
			0.023*sind(2*mj-3*msa+52) -
			0.016*sind(mj-5*msa-69)
	case zodiac.Saturn:
		lon += 0.812*sind(2*mj-5*msa-67.6) -
			0.229*cosd(2*mj-4*msa-2) +
			0.119*sind(mj-2*msa-3) +
			0.046*sind(2*mj-6*msa-69) +
			0.014*sind(mj-3*msa+32)
	case zodiac.Uranus:
		lon += 0.040*sind(msa-2*mu+6) +
			0.035*sind(msa-3*mu+33) -
			0.015*sind(mj-mu+20)
	}
	return geocentric(lon, lat, r, d)
}

func plutoLongitude(d float64) float64 {
	s := 50.03 + 0.033459652*d
	p := 238.95 + 0.003968789*d

	lon := 238.9508 + 0.00400703*d -
		19.799*sind(p) + 19.848*cosd(p) +
		0.897*sind(2*p) - 4.956*cosd(2*p) +
		0.610*sind(3*p) + 1.211*cosd(3*p) -
		0.341*sind(4*p) - 0.190*cosd(4*p) +
		0.128*sind(5*p) - 0.034*cosd(5*p) -
		0.038*sind(6*p) + 0.031*cosd(6*p) +
		0.020*sind(s-p) - 0.010*cosd(s-p)
	lat := -3.9082 -
		5.453*sind(p) - 14.975*cosd(p) +
		3.527*sind(2*p) + 1.673*cosd(2*p) -
		1.051*sind(3*p) + 0.328*cosd(3*p) +
		0.179*sind(4*p) - 0.292*cosd(4*p) +
		0.019*sind(5*p) + 0.100*cosd(5*p) -
		0.031*sind(6*p) - 0.026*cosd(6*p) +
		0.011*cosd(s-p)
	r := 40.72 +
		6.68*sind(p) + 6.90*cosd(p) -
		1.18*sind(2*p) - 0.03*cosd(2*p) +
		0.15*sind(3*p) - 0.14*cosd(3*p)

	// The fit is referred to J2000; precess to the equinox of date.
	lon += 3.82394e-5 * d
	return geocentric(lon, lat, r, d)
}

// geocentric adds the Sun's geocentric vector to a heliocentric position and
// returns the resulting longitude.
func geocentric(lon, lat, r, d float64) float64 {
	xh := r * cosd(lon) * cosd(lat)
	yh := r * sind(lon) * cosd(lat)
	sl, sr := sunPosition(d)
	xg := xh + sr*cosd(sl)
	yg := yh + sr*sind(sl)
	return zodiac.Normalize(deg(math.Atan2(yg, xg)))
}
