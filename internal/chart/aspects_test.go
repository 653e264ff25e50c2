package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

func newDetector(t *testing.T, opts ...AspectOption) *AspectDetector {
	t.Helper()
	d, err := NewAspectDetector(opts...)
	require.NoError(t, err)
	return d
}

func TestDetect_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		a, b    float64
		want    zodiac.Aspect
		wantSep float64
		wantDev float64
	}{
		{"exact trine", 10, 130, zodiac.Trine, 120, 0},
		{"opposition within orb", 0, 179.5, zodiac.Opposition, 179.5, 0.5},
		{"conjunction across aries", 355, 3, zodiac.Conjunction, 8, 8},
		{"square", 10, 97, zodiac.Square, 87, 3},
		{"quincunx", 0, 151, zodiac.Quincunx, 151, 1},
	}
	d := newDetector(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := d.Detect(pos(zodiac.Sun, tt.a), pos(zodiac.Moon, tt.b))
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Kind)
			assert.InDelta(t, tt.wantSep, got.Separation, 1e-9)
			assert.InDelta(t, tt.wantDev, got.Deviation, 1e-9)
			assert.LessOrEqual(t, got.Deviation, got.Orb)
		})
	}
}

func TestDetect_OutsideOrbIsOmitted(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	_, ok := d.Detect(pos(zodiac.Sun, 0), pos(zodiac.Moon, 170))
	assert.False(t, ok)

	kind, _ := d.Classify(170)
	assert.Equal(t, zodiac.AspectNone, kind)

	assert.Empty(t, d.DetectAll([]PlanetPosition{pos(zodiac.Sun, 0), pos(zodiac.Moon, 170)}))
}

func TestClassify_TieGoesToSmallerAngle(t *testing.T) {
	t.Parallel()

	d := newDetector(t, WithOrbs(map[zodiac.Aspect]float64{
		zodiac.Conjunction: 15,
		zodiac.SemiSextile: 15,
	}))
	kind, dev := d.Classify(15)
	assert.Equal(t, zodiac.Conjunction, kind)
	assert.InDelta(t, 15, dev, 1e-9)
}

func TestDetectAll_OrderedByDeviation(t *testing.T) {
	t.Parallel()

	positions := []PlanetPosition{
		pos(zodiac.Sun, 0),
		pos(zodiac.Moon, 93),    // Sun square, dev 3
		pos(zodiac.Mercury, 1),  // Sun conjunction, dev 1; Moon square, dev 2
		pos(zodiac.Venus, 181),  // Sun opposition dev 1, Mercury opposition dev 0, Moon square dev 2
		pos(zodiac.Mars, 240.5), // Sun trine dev 0.5
	}
	got := newDetector(t).DetectAll(positions)
	require.NotEmpty(t, got)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Deviation, got[i].Deviation)
	}
	assert.Equal(t, zodiac.Mercury, got[0].BodyA)
	assert.Equal(t, zodiac.Venus, got[0].BodyB)
	assert.Equal(t, zodiac.Opposition, got[0].Kind)

	// Sun–Mercury and Sun–Venus tie at 1°; pair order decides.
	var ties []AspectInstance
	for _, a := range got {
		if a.Deviation == 1 {
			ties = append(ties, a)
		}
	}
	require.Len(t, ties, 2)
	assert.Equal(t, zodiac.Mercury, ties[0].BodyB)
	assert.Equal(t, zodiac.Venus, ties[1].BodyB)

	seen := map[[2]zodiac.Body]bool{}
	for _, a := range got {
		key := [2]zodiac.Body{a.BodyA, a.BodyB}
		assert.False(t, seen[key], "pair %v reported twice", key)
		seen[key] = true
		assert.Less(t, a.BodyA, a.BodyB)
	}
}

func TestDetect_OrbPerBody(t *testing.T) {
	t.Parallel()

	sun, moon := pos(zodiac.Sun, 0), pos(zodiac.Moon, 98)

	_, ok := newDetector(t).Detect(sun, moon)
	assert.False(t, ok, "square at 8° exceeds the default 7° orb")

	byBody := newDetector(t, WithOrbPolicy(OrbPerBody))
	got, ok := byBody.Detect(sun, moon)
	require.True(t, ok)
	assert.Equal(t, zodiac.Square, got.Kind)
	assert.InDelta(t, 9, got.Orb, 1e-9) // min(13, 9) - 0

	assert.InDelta(t, 1, byBody.Orb(zodiac.Sextile, zodiac.Pluto, zodiac.Chiron), 1e-9)
	assert.InDelta(t, 6, byBody.Orb(zodiac.Quintile, zodiac.Sun, zodiac.Moon), 1e-9)
}

func TestDetect_KindsRestricted(t *testing.T) {
	t.Parallel()

	d := newDetector(t, WithAspectKinds(zodiac.Opposition, zodiac.Conjunction, zodiac.Conjunction))
	assert.Equal(t, []zodiac.Aspect{zodiac.Conjunction, zodiac.Opposition}, d.Kinds())

	_, ok := d.Detect(pos(zodiac.Sun, 10), pos(zodiac.Moon, 130))
	assert.False(t, ok)
}

func TestNewAspectDetector_Invalid(t *testing.T) {
	t.Parallel()

	_, err := NewAspectDetector(WithOrbs(map[zodiac.Aspect]float64{zodiac.Trine: -1}))
	assert.Error(t, err)

	_, err = NewAspectDetector(WithOrbs(map[zodiac.Aspect]float64{zodiac.AspectNone: 1}))
	assert.ErrorIs(t, err, zodiac.ErrUnknownAspect)

	_, err = NewAspectDetector(WithAspectKinds(zodiac.Aspect(42)))
	assert.ErrorIs(t, err, zodiac.ErrUnknownAspect)

	_, err = NewAspectDetector(WithOrbPolicy(OrbPolicy(7)))
	assert.Error(t, err)
}

func TestAspectInstance_Percent(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1, AspectInstance{Kind: zodiac.Trine, Deviation: 1.2}.Percent(), 1e-9)
	assert.InDelta(t, 1, AspectInstance{Kind: zodiac.Conjunction, Deviation: 3.6}.Percent(), 1e-9)
}

func TestDetect_Applying(t *testing.T) {
	t.Parallel()

	d := newDetector(t)
	sun := PlanetPosition{Body: zodiac.Sun, Longitude: 215, Speed: 1}

	closing, ok := d.Detect(PlanetPosition{Body: zodiac.Moon, Longitude: 90, Speed: 13}, sun)
	require.True(t, ok)
	assert.Equal(t, zodiac.Trine, closing.Kind)
	assert.True(t, closing.Applying)

	opening, ok := d.Detect(PlanetPosition{Body: zodiac.Moon, Longitude: 100, Speed: 13}, sun)
	require.True(t, ok)
	assert.Equal(t, zodiac.Trine, opening.Kind)
	assert.False(t, opening.Applying)
}

func TestParseOrbPolicy(t *testing.T) {
	t.Parallel()

	p, err := ParseOrbPolicy("Body")
	require.NoError(t, err)
	assert.Equal(t, OrbPerBody, p)

	p, err = ParseOrbPolicy("")
	require.NoError(t, err)
	assert.Equal(t, OrbPerAspect, p)

	_, err = ParseOrbPolicy("house")
	assert.Error(t, err)
}
