package zodiac

import "fmt"

// Dignity is the essential dignity of a body in a sign.
type Dignity int

// Dignities. Peregrine is the zero value.
const (
	Peregrine Dignity = iota // no essential dignity
	Domicile
	Exaltation
	Exile
	Fall
)

var dignityNames = [5]string{"peregrine", "domicile", "exaltation", "exile", "fall"}

type rulership struct {
	domicile   []Sign
	exile      []Sign
	exaltation []Sign
	fall       []Sign
}

// Outer planets carry their modern rulerships only.
var rulerships = map[Body]rulership{
	Sun:     {[]Sign{Leo}, []Sign{Aquarius}, []Sign{Aries}, []Sign{Libra}},
	Moon:    {[]Sign{Cancer}, []Sign{Capricorn}, []Sign{Taurus}, []Sign{Scorpio}},
	Mercury: {[]Sign{Gemini, Virgo}, []Sign{Sagittarius, Pisces}, []Sign{Virgo}, []Sign{Pisces}},
	Venus:   {[]Sign{Taurus, Libra}, []Sign{Scorpio, Aries}, []Sign{Pisces}, []Sign{Virgo}},
	Mars:    {[]Sign{Aries, Scorpio}, []Sign{Libra, Taurus}, []Sign{Capricorn}, []Sign{Cancer}},
	Jupiter: {[]Sign{Sagittarius, Pisces}, []Sign{Gemini, Virgo}, []Sign{Cancer}, []Sign{Capricorn}},
	Saturn:  {[]Sign{Capricorn, Aquarius}, []Sign{Cancer, Leo}, []Sign{Libra}, []Sign{Aries}},
	Uranus:  {[]Sign{Aquarius}, []Sign{Leo}, nil, nil},
	Neptune: {[]Sign{Pisces}, []Sign{Virgo}, nil, nil},
	Pluto:   {[]Sign{Scorpio}, []Sign{Taurus}, nil, nil},
}

// DignityOf returns the essential dignity of body in sign. Domicile wins over
// exaltation when both apply (Mercury in Virgo).
func DignityOf(body Body, sign Sign) Dignity {
	r, ok := rulerships[body]
	if !ok {
		return Peregrine
	}
	switch {
	case contains(r.domicile, sign):
		return Domicile
	case contains(r.exaltation, sign):
		return Exaltation
	case contains(r.exile, sign):
		return Exile
	case contains(r.fall, sign):
		return Fall
	}
	return Peregrine
}

func contains(signs []Sign, s Sign) bool {
	for _, x := range signs {
		if x == s {
			return true
		}
	}
	return false
}

// String returns the dignity's lower-case name.
func (d Dignity) String() string {
	if d < Peregrine || d > Fall {
		return "unknown"
	}
	return dignityNames[d]
}

// MarshalText encodes d by name.
func (d Dignity) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a dignity name.
func (d *Dignity) UnmarshalText(b []byte) error {
	for i, n := range dignityNames {
		if n == string(b) {
			*d = Dignity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown dignity %q", b)
}
