package chart

import (
	"fmt"
	"math"
)

const (
	synodicMonth = 29.53058867
	// phaseEpoch is the lunation reference, 2005-05-08 03:48 UTC.
	phaseEpoch = 2453498.658333333
)

// Phase is a named stage of the lunation.
type Phase int

// Lunation stages. The half and full stages are exact instants; the others
// span the intervals between them.
const (
	PhaseNew Phase = iota
	PhaseWaxingCrescent
	PhaseWaxingHalf
	PhaseWaxingGibbous
	PhaseFull
	PhaseWaningGibbous
	PhaseWaningHalf
	PhaseWaningCrescent
	PhaseDark
)

var phaseNames = [...]string{
	"new", "waxing_crescent", "waxing_half", "waxing_gibbous", "full",
	"waning_gibbous", "waning_half", "waning_crescent", "dark",
}

// String returns the phase key.
func (p Phase) String() string {
	if p < PhaseNew || p > PhaseDark {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase key.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText decodes a phase key.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, n := range phaseNames {
		if n == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("chart: unknown moon phase %q", b)
}

// MoonPhase is the Moon's place in its synodic cycle.
type MoonPhase struct {
	Phase Phase `json:"phase"`
	// Percent is the position in the lunation, 0 to 100.
	Percent float64 `json:"percent"`
	// Illumination is the lit fraction of the disc, 0 to 100.
	Illumination float64 `json:"illumination"`
}

// MoonPhaseAt returns the mean lunar phase at jd.
func MoonPhaseAt(jd float64) MoonPhase {
	p := math.Mod((jd-phaseEpoch)*100/synodicMonth, 100)
	if p < 0 {
		p += 100
	}
	return MoonPhase{
		Phase:        phaseOf(p),
		Percent:      p,
		Illumination: (50 - math.Abs(p-50)) * 2,
	}
}

func phaseOf(p float64) Phase {
	switch {
	case p == 0:
		return PhaseNew
	case p < 25:
		return PhaseWaxingCrescent
	case p == 25:
		return PhaseWaxingHalf
	case p < 50:
		return PhaseWaxingGibbous
	case p == 50:
		return PhaseFull
	case p < 75:
		return PhaseWaningGibbous
	case p == 75:
		return PhaseWaningHalf
	case p < 100:
		return PhaseWaningCrescent
	}
	return PhaseDark
}
