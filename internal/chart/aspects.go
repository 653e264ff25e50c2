package chart

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// OrbPolicy selects how the tolerance of an aspect is chosen.
type OrbPolicy int

const (
	// OrbPerAspect uses one configurable orb per aspect kind.
	OrbPerAspect OrbPolicy = iota
	// OrbPerBody derives the orb from the two bodies' personal orbs:
	// max(1, min(orbA, orbB) - modifier(kind)).
	OrbPerBody
)

// String returns the policy's configuration key.
func (p OrbPolicy) String() string {
	if p == OrbPerBody {
		return "body"
	}
	return "aspect"
}

// ParseOrbPolicy parses "aspect" or "body".
func ParseOrbPolicy(s string) (OrbPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "aspect":
		return OrbPerAspect, nil
	case "body":
		return OrbPerBody, nil
	}
	return OrbPerAspect, fmt.Errorf("chart: unknown orb policy %q", s)
}

// AspectInstance is a detected aspect between two resolved bodies. BodyA
// precedes BodyB in the input order.
type AspectInstance struct {
	BodyA      zodiac.Body   `json:"body_a"`
	BodyB      zodiac.Body   `json:"body_b"`
	Kind       zodiac.Aspect `json:"kind"`
	Separation float64       `json:"separation"`
	Deviation  float64       `json:"deviation"`
	Orb        float64       `json:"orb"`
	Applying   bool          `json:"applying"`
}

// Percent returns the deviation as a percentage of the nominal angle. The
// conjunction, whose angle is zero, is measured against the full circle.
func (a AspectInstance) Percent() float64 {
	size := a.Kind.Info().Angle
	if size == 0 {
		size = 360
	}
	return a.Deviation / size * 100
}

// Involves reports whether body takes part in the aspect.
func (a AspectInstance) Involves(body zodiac.Body) bool {
	return a.BodyA == body || a.BodyB == body
}

// AspectOption configures an AspectDetector.
type AspectOption func(*AspectDetector)

// WithOrbs overrides the per-aspect orbs. Kinds missing from orbs keep their
// default.
func WithOrbs(orbs map[zodiac.Aspect]float64) AspectOption {
	return func(d *AspectDetector) {
		for k, v := range orbs {
			d.orbs[k] = v
		}
	}
}

// WithAspectKinds restricts detection to kinds.
func WithAspectKinds(kinds ...zodiac.Aspect) AspectOption {
	return func(d *AspectDetector) { d.kinds = slices.Clone(kinds) }
}

// WithOrbPolicy selects the orb policy.
func WithOrbPolicy(p OrbPolicy) AspectOption {
	return func(d *AspectDetector) { d.policy = p }
}

// AspectDetector classifies pairwise separations against the aspect table.
type AspectDetector struct {
	kinds  []zodiac.Aspect
	orbs   map[zodiac.Aspect]float64
	policy OrbPolicy
}

// NewAspectDetector returns a detector with the default orbs and every
// aspect kind enabled, adjusted by opts.
func NewAspectDetector(opts ...AspectOption) (*AspectDetector, error) {
	d := &AspectDetector{
		kinds: zodiac.Aspects(),
		orbs:  zodiac.DefaultOrbs(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for k, v := range d.orbs {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: orb for %d", zodiac.ErrUnknownAspect, int(k))
		}
		if v < 0 || math.IsNaN(v) {
			return nil, fmt.Errorf("chart: orb for %s must be non-negative, got %g", k, v)
		}
	}
	for _, k := range d.kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %d", zodiac.ErrUnknownAspect, int(k))
		}
	}
	if d.policy != OrbPerAspect && d.policy != OrbPerBody {
		return nil, fmt.Errorf("chart: unknown orb policy %d", int(d.policy))
	}
	slices.Sort(d.kinds)
	d.kinds = slices.Compact(d.kinds)
	return d, nil
}

// Kinds returns the enabled aspect kinds in ascending nominal angle.
func (d *AspectDetector) Kinds() []zodiac.Aspect { return slices.Clone(d.kinds) }

// Orb returns the tolerance of kind between bodies a and b.
func (d *AspectDetector) Orb(kind zodiac.Aspect, a, b zodiac.Body) float64 {
	if d.policy == OrbPerBody && a.Valid() && b.Valid() {
		return math.Max(1, math.Min(a.Info().Orb, b.Info().Orb)-kind.Info().OrbModifier)
	}
	return d.orbs[kind]
}

// Classify returns the first enabled kind, in ascending nominal angle, whose
// per-aspect orb contains separation, and the deviation from it. It returns
// AspectNone when nothing matches.
func (d *AspectDetector) Classify(separation float64) (zodiac.Aspect, float64) {
	return d.classify(separation, func(k zodiac.Aspect) float64 { return d.orbs[k] })
}

func (d *AspectDetector) classify(separation float64, orb func(zodiac.Aspect) float64) (zodiac.Aspect, float64) {
	for _, k := range d.kinds {
		dev := math.Abs(separation - k.Info().Angle)
		if dev <= orb(k) {
			return k, dev
		}
	}
	return zodiac.AspectNone, 0
}

// Detect classifies one pair. The boolean is false when the pair forms no
// enabled aspect within orb.
func (d *AspectDetector) Detect(a, b PlanetPosition) (AspectInstance, bool) {
	sep := zodiac.Separation(a.Longitude, b.Longitude)
	kind, dev := d.classify(sep, func(k zodiac.Aspect) float64 { return d.Orb(k, a.Body, b.Body) })
	if kind == zodiac.AspectNone {
		return AspectInstance{}, false
	}
	return AspectInstance{
		BodyA:      a.Body,
		BodyB:      b.Body,
		Kind:       kind,
		Separation: sep,
		Deviation:  dev,
		Orb:        d.Orb(kind, a.Body, b.Body),
		Applying:   applying(a, b, kind, dev),
	}, true
}

// DetectAll checks every unordered pair once and returns the matches
// ordered by ascending deviation. Equal deviations keep pair order.
func (d *AspectDetector) DetectAll(positions []PlanetPosition) []AspectInstance {
	var out []AspectInstance
	for i := range positions {
		for j := i + 1; j < len(positions); j++ {
			if inst, ok := d.Detect(positions[i], positions[j]); ok {
				out = append(out, inst)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deviation < out[j].Deviation })
	return out
}

// applyStep is how far ahead, in days, motion is extrapolated to decide
// whether an aspect is tightening.
const applyStep = 0.01

func applying(a, b PlanetPosition, kind zodiac.Aspect, dev float64) bool {
	if a.Speed == 0 && b.Speed == 0 {
		return false
	}
	next := zodiac.Separation(a.Longitude+a.Speed*applyStep, b.Longitude+b.Speed*applyStep)
	return math.Abs(next-kind.Info().Angle) < dev
}
