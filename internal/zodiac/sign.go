package zodiac

import (
	"fmt"
	"math"
	"strings"
)

// Sign is one of the twelve 30° sectors of the ecliptic, Aries = 0.
type Sign int

// The twelve signs in ecliptic order.
const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

// Element is the classical element of a sign.
type Element int

// Elements in the fire-earth-air-water cycle of the signs.
const (
	Fire Element = iota
	Earth
	Air
	Water
)

// Quality is the modality of a sign.
type Quality int

// Qualities in the cardinal-fixed-mutable cycle of the signs.
const (
	Cardinal Quality = iota
	Fixed
	Mutable
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

var elementNames = [4]string{"fire", "earth", "air", "water"}

var qualityNames = [3]string{"cardinal", "fixed", "mutable"}

// SignAt returns the sign containing the given longitude.
func SignAt(longitude float64) Sign {
	s := Sign(math.Floor(Normalize(longitude) / 30))
	if s > Pisces {
		s = Pisces
	}
	return s
}

// SignOffset returns the position of longitude within its sign, in [0, 30).
func SignOffset(longitude float64) float64 {
	return math.Mod(Normalize(longitude), 30)
}

// Signs returns all twelve signs in order.
func Signs() []Sign {
	out := make([]Sign, 12)
	for i := range out {
		out[i] = Sign(i)
	}
	return out
}

// Elements returns the four elements in sign order.
func Elements() []Element { return []Element{Fire, Earth, Air, Water} }

// Qualities returns the three qualities in sign order.
func Qualities() []Quality { return []Quality{Cardinal, Fixed, Mutable} }

// Valid reports whether s is one of the twelve signs.
func (s Sign) Valid() bool { return s >= Aries && s <= Pisces }

// Start returns the ecliptic longitude at which s begins.
func (s Sign) Start() float64 { return float64(s) * 30 }

// Element returns the element of s.
func (s Sign) Element() Element { return Element(int(s) % 4) }

// Quality returns the quality of s.
func (s Sign) Quality() Quality { return Quality(int(s) % 3) }

// Opposite returns the sign 180° away.
func (s Sign) Opposite() Sign { return (s + 6) % 12 }

// String returns the sign's English name.
func (s Sign) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// ParseSign resolves a sign by case-insensitive English name.
func ParseSign(name string) (Sign, error) {
	for i, n := range signNames {
		if strings.EqualFold(n, name) {
			return Sign(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sign %q", name)
}

// String returns the element's lower-case name.
func (e Element) String() string {
	if e < Fire || e > Water {
		return fmt.Sprintf("Element(%d)", int(e))
	}
	return elementNames[e]
}

// MarshalText encodes e by name.
func (e Element) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText decodes an element name.
func (e *Element) UnmarshalText(b []byte) error {
	for i, n := range elementNames {
		if strings.EqualFold(n, string(b)) {
			*e = Element(i)
			return nil
		}
	}
	return fmt.Errorf("unknown element %q", b)
}

// String returns the quality's lower-case name.
func (q Quality) String() string {
	if q < Cardinal || q > Mutable {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// MarshalText encodes q by name.
func (q Quality) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

// UnmarshalText decodes a quality name.
func (q *Quality) UnmarshalText(b []byte) error {
	for i, n := range qualityNames {
		if strings.EqualFold(n, string(b)) {
			*q = Quality(i)
			return nil
		}
	}
	return fmt.Errorf("unknown quality %q", b)
}

// MarshalText encodes s by name.
func (s Sign) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a sign name.
func (s *Sign) UnmarshalText(b []byte) error {
	v, err := ParseSign(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
