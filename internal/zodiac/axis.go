package zodiac

import (
	"fmt"
	"strings"
)

// Axis is a line through the zodiac across which antiscia are reflected.
type Axis int

// Antiscion axes. Solstitial and Equinoctial are the classical pair; the two
// mid-sign axes are opt-in.
const (
	AxisNone    Axis = iota
	Equinoctial      // 0° Aries / 0° Libra, contra-antiscia
	MidTaurus        // 15° Taurus / 15° Scorpio
	Solstitial       // 0° Cancer / 0° Capricorn, antiscia proper
	MidLeo           // 15° Leo / 15° Aquarius

	axisCount
)

type axisInfo struct {
	name   string
	key    string
	anchor float64
}

var axisTable = [axisCount]axisInfo{
	AxisNone:    {"None", "none", 0},
	Equinoctial: {"Aries/Libra", "equinoctial", 0},
	MidTaurus:   {"mid Taurus/Scorpio", "mid_taurus", 45},
	Solstitial:  {"Cancer/Capricorn", "solstitial", 90},
	MidLeo:      {"mid Leo/Aquarius", "mid_leo", 135},
}

// Axes returns every reflecting axis, AxisNone excluded.
func Axes() []Axis {
	return []Axis{Equinoctial, MidTaurus, Solstitial, MidLeo}
}

// ClassicalAxes returns the solstitial and equinoctial axes.
func ClassicalAxes() []Axis {
	return []Axis{Solstitial, Equinoctial}
}

// Valid reports whether a reflects longitudes. AxisNone does not.
func (a Axis) Valid() bool { return a > AxisNone && a < axisCount }

// Anchor returns the longitude of the axis end in the first half of the
// zodiac. Reflection is symmetric about both ends.
func (a Axis) Anchor() float64 {
	if !a.Valid() {
		return 0
	}
	return axisTable[a].anchor
}

// Mirror reflects longitude across a: (2·anchor − L) mod 360. The solstitial
// mirror of L is therefore 180 − L and the equinoctial mirror 360 − L.
func (a Axis) Mirror(longitude float64) float64 {
	return Normalize(2*a.Anchor() - longitude)
}

// String returns the axis display name.
func (a Axis) String() string {
	if a < AxisNone || a >= axisCount {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisTable[a].name
}

// ParseAxis resolves an axis by key or display name, ignoring case.
// "antiscia" and "contra_antiscia" are accepted aliases.
func ParseAxis(s string) (Axis, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "antiscia":
		return Solstitial, nil
	case "contra_antiscia":
		return Equinoctial, nil
	}
	for _, a := range Axes() {
		if axisTable[a].key == norm || strings.EqualFold(axisTable[a].name, s) {
			return a, nil
		}
	}
	return AxisNone, fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}

// MarshalText encodes a by key.
func (a Axis) MarshalText() ([]byte, error) {
	if a < AxisNone || a >= axisCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAxis, int(a))
	}
	return []byte(axisTable[a].key), nil
}

// UnmarshalText decodes an axis key or name.
func (a *Axis) UnmarshalText(b []byte) error {
	if strings.EqualFold(string(b), "none") {
		*a = AxisNone
		return nil
	}
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
