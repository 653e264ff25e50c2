package zodiac

import (
	"fmt"
	"strings"
)

// HouseSystem selects the algorithm that divides the chart into houses.
type HouseSystem int

// House systems. HouseSystemNone is the unset selector: a chart without it
// still resolves bodies and angles but has no cusps.
const (
	HouseSystemNone HouseSystem = iota
	Placidus
	Koch
	Equal
	WholeSign
	Porphyry

	houseSystemCount
)

var houseSystemNames = [houseSystemCount][2]string{
	HouseSystemNone: {"None", "none"},
	Placidus:        {"Placidus", "placidus"},
	Koch:            {"Koch", "koch"},
	Equal:           {"Equal", "equal"},
	WholeSign:       {"Whole Sign", "whole_sign"},
	Porphyry:        {"Porphyry", "porphyry"},
}

// HouseSystems returns every selectable system, HouseSystemNone excluded.
func HouseSystems() []HouseSystem {
	return []HouseSystem{Placidus, Koch, Equal, WholeSign, Porphyry}
}

// Valid reports whether h names a computable system.
func (h HouseSystem) Valid() bool { return h > HouseSystemNone && h < houseSystemCount }

// Known reports whether h is a defined selector, including HouseSystemNone.
func (h HouseSystem) Known() bool { return h >= HouseSystemNone && h < houseSystemCount }

// String returns the display name of h.
func (h HouseSystem) String() string {
	if !h.Known() {
		return fmt.Sprintf("HouseSystem(%d)", int(h))
	}
	return houseSystemNames[h][0]
}

// ParseHouseSystem resolves a system by key or display name, ignoring case.
// An empty string or "none" yields HouseSystemNone.
func ParseHouseSystem(s string) (HouseSystem, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	if norm == "" {
		return HouseSystemNone, nil
	}
	for i, n := range houseSystemNames {
		if n[1] == norm || strings.EqualFold(n[0], s) {
			return HouseSystem(i), nil
		}
	}
	return HouseSystemNone, fmt.Errorf("%w: %q", ErrUnsupportedHouseSystem, s)
}

// MarshalText encodes h by key.
func (h HouseSystem) MarshalText() ([]byte, error) {
	if !h.Known() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedHouseSystem, int(h))
	}
	return []byte(houseSystemNames[h][1]), nil
}

// UnmarshalText decodes a system key or name.
func (h *HouseSystem) UnmarshalText(b []byte) error {
	v, err := ParseHouseSystem(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}
