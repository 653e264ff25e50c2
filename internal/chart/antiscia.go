package chart

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// DefaultAntiscionOrb is the antiscion tolerance in degrees.
const DefaultAntiscionOrb = 1.0

// AntiscionInstance pairs two bodies where BodyB sits within orb of BodyA's
// mirror point across Axis.
type AntiscionInstance struct {
	BodyA     zodiac.Body `json:"body_a"`
	BodyB     zodiac.Body `json:"body_b"`
	Axis      zodiac.Axis `json:"axis"`
	Mirror    float64     `json:"mirror"`
	Deviation float64     `json:"deviation"`
}

// Involves reports whether body takes part in the antiscion.
func (a AntiscionInstance) Involves(body zodiac.Body) bool {
	return a.BodyA == body || a.BodyB == body
}

// AntiscionDetector finds mirror-image pairs across a set of axes.
type AntiscionDetector struct {
	orb  float64
	axes []zodiac.Axis
}

// NewAntiscionDetector returns a detector with the given orb. With no axes
// it checks the solstitial and equinoctial axes.
func NewAntiscionDetector(orb float64, axes ...zodiac.Axis) (*AntiscionDetector, error) {
	if orb < 0 || math.IsNaN(orb) {
		return nil, fmt.Errorf("chart: antiscion orb must be non-negative, got %g", orb)
	}
	if len(axes) == 0 {
		axes = zodiac.ClassicalAxes()
	}
	uniq := make([]zodiac.Axis, 0, len(axes))
	for _, a := range axes {
		if !a.Valid() {
			return nil, fmt.Errorf("%w: %d", zodiac.ErrUnknownAxis, int(a))
		}
		if !slices.Contains(uniq, a) {
			uniq = append(uniq, a)
		}
	}
	return &AntiscionDetector{orb: orb, axes: uniq}, nil
}

// Orb returns the tolerance in degrees.
func (d *AntiscionDetector) Orb() float64 { return d.orb }

// Axes returns the axes checked, in detection order.
func (d *AntiscionDetector) Axes() []zodiac.Axis { return slices.Clone(d.axes) }

// DetectAll checks every unordered pair once per axis and returns the
// matches ordered by ascending deviation. Equal deviations keep pair order,
// then axis order.
func (d *AntiscionDetector) DetectAll(positions []PlanetPosition) []AntiscionInstance {
	var out []AntiscionInstance
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			a, b := positions[i], positions[j]
			for _, axis := range d.axes {
				mirror := axis.Mirror(a.Longitude)
				dev := zodiac.Separation(mirror, b.Longitude)
				if dev > d.orb {
					continue
				}
				out = append(out, AntiscionInstance{
					BodyA:     a.Body,
					BodyB:     b.Body,
					Axis:      axis,
					Mirror:    mirror,
					Deviation: dev,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deviation < out[j].Deviation })
	return out
}
