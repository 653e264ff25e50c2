package zodiac

import (
	"fmt"
	"strings"
)

// Body identifies a celestial body or a chart point.
type Body int

// Catalog order. Planets come first so Planets() is a prefix of Bodies().
const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	Chiron
	Ceres
	Pallas
	Juno
	Vesta
	MoonNode
	MoonSouthNode
	MoonApogee
	Ascendant
	Descendant
	Midheaven
	ImumCoeli
	Vertex
	Antivertex

	bodyCount
)

// BodyInfo is the static metadata of a Body.
type BodyInfo struct {
	// Name is the display name.
	Name string
	// Key is the stable lower-case identifier used in files and flags.
	Key string
	// RealBody is false for points derived from house geometry; those never
	// go through the ephemeris.
	RealBody bool
	// Orb is the body's personal orb, used by the body-based orb policy.
	Orb float64
	// Points is the body's weight in the element and quality tallies.
	Points int
}

var bodyTable = [bodyCount]BodyInfo{
	Sun:           {"Sun", "sun", true, 13, 2},
	Moon:          {"Moon", "moon", true, 9, 2},
	Mercury:       {"Mercury", "mercury", true, 7, 2},
	Venus:         {"Venus", "venus", true, 7, 1},
	Mars:          {"Mars", "mars", true, 7, 1},
	Jupiter:       {"Jupiter", "jupiter", true, 9, 1},
	Saturn:        {"Saturn", "saturn", true, 7, 1},
	Uranus:        {"Uranus", "uranus", true, 5, 1},
	Neptune:       {"Neptune", "neptune", true, 5, 1},
	Pluto:         {"Pluto", "pluto", true, 3, 1},
	Chiron:        {"Chiron", "chiron", true, 2, 0},
	Ceres:         {"Ceres", "ceres", true, 2, 0},
	Pallas:        {"Pallas", "pallas", true, 2, 0},
	Juno:          {"Juno", "juno", true, 2, 0},
	Vesta:         {"Vesta", "vesta", true, 2, 0},
	MoonNode:      {"Ascending Moon Node", "moon_node", true, 2, 1},
	MoonSouthNode: {"Descending Moon Node", "moon_south_node", true, 2, 0},
	MoonApogee:    {"Dark Moon", "moon_apogee", true, 2, 0},
	Ascendant:     {"Ascendant", "ascendant", false, 9, 2},
	Descendant:    {"Descendant", "descendant", false, 0, 0},
	Midheaven:     {"Midheaven", "midheaven", false, 5, 1},
	ImumCoeli:     {"Imum Coeli", "imum_coeli", false, 0, 0},
	Vertex:        {"Vertex", "vertex", false, 2, 0},
	Antivertex:    {"Anti-vertex", "antivertex", false, 0, 0},
}

// Bodies returns the whole catalog in canonical order.
func Bodies() []Body {
	out := make([]Body, bodyCount)
	for i := range out {
		out[i] = Body(i)
	}
	return out
}

// Planets returns Sun through Pluto.
func Planets() []Body {
	return Bodies()[:Pluto+1]
}

// Valid reports whether b is in the catalog.
func (b Body) Valid() bool { return b >= Sun && b < bodyCount }

// Info returns the static metadata of b. It panics on an invalid body, which
// cannot be produced through ParseBody.
func (b Body) Info() BodyInfo {
	if !b.Valid() {
		panic(fmt.Sprintf("zodiac: invalid body %d", int(b)))
	}
	return bodyTable[b]
}

// String returns the display name of b.
func (b Body) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Body(%d)", int(b))
	}
	return bodyTable[b].Name
}

// ParseBody resolves a body from its key or display name, ignoring case and
// treating '-' and ' ' like '_'.
func ParseBody(s string) (Body, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for i, info := range bodyTable {
		if info.Key == norm || strings.EqualFold(info.Name, s) {
			return Body(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBody, s)
}

// ParseBodies resolves a list of body names. The special name "planets"
// expands to Planets() and "all" to Bodies().
func ParseBodies(names []string) ([]Body, error) {
	var out []Body
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "planets":
			out = append(out, Planets()...)
			continue
		case "all":
			out = append(out, Bodies()...)
			continue
		}
		b, err := ParseBody(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// MarshalText encodes b by key.
func (b Body) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBody, int(b))
	}
	return []byte(bodyTable[b].Key), nil
}

// UnmarshalText decodes a body key or name.
func (b *Body) UnmarshalText(text []byte) error {
	v, err := ParseBody(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
