package chart

import (
	"fmt"
	"math"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// speedStep is the half-width, in days, of the central difference used for
// daily motion.
const speedStep = 0.5

// Unresolved records a body the oracle could not place. Reason survives
// serialization; Err does not.
type Unresolved struct {
	Body   zodiac.Body `json:"body"`
	Reason string      `json:"reason"`
	Err    error       `json:"-"`
}

// Error implements error.
func (u Unresolved) Error() string { return fmt.Sprintf("%s: %s", u.Body, u.Reason) }

// Unwrap returns the underlying cause.
func (u Unresolved) Unwrap() error { return u.Err }

// Resolution is the outcome of resolving a list of bodies. A body appears in
// exactly one of the two slices.
type Resolution struct {
	Positions  []PlanetPosition
	Unresolved []Unresolved
}

// Resolver places bodies on the ecliptic using an Oracle.
type Resolver struct {
	oracle Oracle
}

// NewResolver returns a Resolver backed by oracle.
func NewResolver(oracle Oracle) *Resolver {
	return &Resolver{oracle: oracle}
}

// Resolve places each body at jd. Output keeps the caller's order. A body
// the oracle fails on is omitted from Positions and listed in Unresolved;
// the others are still resolved.
func (r *Resolver) Resolve(bodies []zodiac.Body, jd float64) Resolution {
	var res Resolution
	for _, b := range bodies {
		pos, err := r.position(b, jd)
		if err != nil {
			res.Unresolved = append(res.Unresolved, Unresolved{Body: b, Reason: err.Error(), Err: err})
			continue
		}
		res.Positions = append(res.Positions, pos)
	}
	return res
}

func (r *Resolver) position(body zodiac.Body, jd float64) (PlanetPosition, error) {
	if !body.Valid() {
		return PlanetPosition{}, fmt.Errorf("%w: %d", zodiac.ErrUnknownBody, int(body))
	}
	if !body.Info().RealBody {
		return PlanetPosition{}, fmt.Errorf("%w: %s", ErrNotOracleBody, body)
	}
	lon, err := r.longitude(body, jd)
	if err != nil {
		return PlanetPosition{}, err
	}
	speed := r.speed(body, jd, lon)
	return PlanetPosition{
		Body:       body,
		Longitude:  lon,
		Speed:      speed,
		Retrograde: speed < 0,
	}, nil
}

func (r *Resolver) longitude(body zodiac.Body, jd float64) (float64, error) {
	lon, err := r.oracle.EclipticLongitude(body, jd)
	if err != nil {
		return 0, fmt.Errorf("%w: %s at JD %.6f: %w", ErrOracleUnavailable, body, jd, err)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		return 0, fmt.Errorf("%w: %s at JD %.6f: non-finite longitude", ErrOracleUnavailable, body, jd)
	}
	return zodiac.Normalize(lon), nil
}

// speed is the daily motion by central difference, falling back to a
// one-sided difference at the edge of the oracle's range and to zero when
// neither neighbour resolves.
func (r *Resolver) speed(body zodiac.Body, jd, lon float64) float64 {
	before, errBefore := r.longitude(body, jd-speedStep)
	after, errAfter := r.longitude(body, jd+speedStep)
	switch {
	case errBefore == nil && errAfter == nil:
		return signedArc(before, after) / (2 * speedStep)
	case errAfter == nil:
		return signedArc(lon, after) / speedStep
	case errBefore == nil:
		return signedArc(before, lon) / speedStep
	}
	return 0
}

// signedArc is the shortest signed arc from a to b, in (-180, 180].
func signedArc(a, b float64) float64 {
	d := zodiac.Normalize(b - a)
	if d > 180 {
		d -= 360
	}
	return d
}
