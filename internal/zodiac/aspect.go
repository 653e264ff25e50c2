package zodiac

import (
	"fmt"
	"strings"
)

// Aspect is a named angular relationship between two longitudes. The
// constants are ordered by ascending nominal angle; AspectNone is the zero
// value and only ever appears as a query result, never in a detected list.
type Aspect int

// Aspect kinds in ascending nominal-angle order.
const (
	AspectNone Aspect = iota
	Conjunction
	SemiSextile
	SemiSquare
	Sextile
	Quintile
	Square
	Trine
	SesquiSquare
	BiQuintile
	Quincunx
	Opposition

	aspectCount
)

// AspectInfo is the static description of an Aspect.
type AspectInfo struct {
	Name  string
	Key   string
	Angle float64
	// DefaultOrb is the tolerance used by the per-aspect orb policy.
	DefaultOrb float64
	// OrbModifier is subtracted from the smaller personal orb of the two
	// bodies under the body-based orb policy.
	OrbModifier float64
	Major       bool
	Harmonious  bool
}

var aspectTable = [aspectCount]AspectInfo{
	AspectNone:   {"None", "none", 0, 0, 0, false, false},
	Conjunction:  {"Conjunction", "conjunction", 0, 8, 0, true, true},
	SemiSextile:  {"Semi-sextile", "semi_sextile", 30, 2, 2, false, true},
	SemiSquare:   {"Semi-square", "semi_square", 45, 2, 2, false, false},
	Sextile:      {"Sextile", "sextile", 60, 6, 1, true, true},
	Quintile:     {"Quintile", "quintile", 72, 1.5, 3, false, true},
	Square:       {"Square", "square", 90, 7, 0, true, false},
	Trine:        {"Trine", "trine", 120, 8, 0, true, true},
	SesquiSquare: {"Sesqui-square", "sesqui_square", 135, 2, 2, false, false},
	BiQuintile:   {"Bi-quintile", "bi_quintile", 144, 1.5, 3, false, true},
	Quincunx:     {"Quincunx", "quincunx", 150, 3, 2, false, false},
	Opposition:   {"Opposition", "opposition", 180, 8, 0, true, true},
}

// Aspects returns every detectable aspect in ascending nominal-angle order.
func Aspects() []Aspect {
	out := make([]Aspect, 0, aspectCount-1)
	for a := Conjunction; a < aspectCount; a++ {
		out = append(out, a)
	}
	return out
}

// DefaultOrbs returns a fresh map of the per-aspect default orbs.
func DefaultOrbs() map[Aspect]float64 {
	m := make(map[Aspect]float64, aspectCount-1)
	for _, a := range Aspects() {
		m[a] = aspectTable[a].DefaultOrb
	}
	return m
}

// Valid reports whether a is a detectable aspect. AspectNone is not.
func (a Aspect) Valid() bool { return a > AspectNone && a < aspectCount }

// Info returns the static description of a.
func (a Aspect) Info() AspectInfo {
	if a < AspectNone || a >= aspectCount {
		return aspectTable[AspectNone]
	}
	return aspectTable[a]
}

// String returns the aspect's display name.
func (a Aspect) String() string { return a.Info().Name }

// ParseAspect resolves an aspect by key or display name, ignoring case.
func ParseAspect(s string) (Aspect, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, a := range Aspects() {
		info := aspectTable[a]
		if info.Key == norm || strings.EqualFold(info.Name, s) {
			return a, nil
		}
	}
	return AspectNone, fmt.Errorf("%w: %q", ErrUnknownAspect, s)
}

// MarshalText encodes a by key.
func (a Aspect) MarshalText() ([]byte, error) { return []byte(a.Info().Key), nil }

// UnmarshalText decodes an aspect key or name; "none" decodes to AspectNone.
func (a *Aspect) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), "none") {
		*a = AspectNone
		return nil
	}
	v, err := ParseAspect(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
