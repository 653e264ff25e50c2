package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Validate checks every field, including that body, aspect, axis and house
// system names are known. The error wraps ErrInvalid.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// newValidator returns a validator that knows the zodiac vocabularies.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	register := func(tag string, parse func(string) error) {
		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return parse(fl.Field().String()) == nil
		})
	}
	register("body", func(s string) error {
		_, err := zodiac.ParseBodies([]string{s})
		return err
	})
	register("aspect", func(s string) error {
		_, err := zodiac.ParseAspect(s)
		return err
	})
	register("axis", func(s string) error {
		_, err := zodiac.ParseAxis(s)
		return err
	})
	register("house_system", func(s string) error {
		_, err := zodiac.ParseHouseSystem(s)
		return err
	})
	return v
}

// HouseSystemValue returns the configured house system.
func (c Config) HouseSystemValue() (zodiac.HouseSystem, error) {
	return zodiac.ParseHouseSystem(c.HouseSystem)
}

// BodyList returns the configured bodies, with "planets" and "all"
// expanded.
func (c Config) BodyList() ([]zodiac.Body, error) {
	return zodiac.ParseBodies(c.Bodies)
}

// OrbTable returns the per-aspect orbs keyed by aspect.
func (c Config) OrbTable() (map[zodiac.Aspect]float64, error) {
	out := make(map[zodiac.Aspect]float64, len(c.Orbs))
	for k, v := range c.Orbs {
		a, err := zodiac.ParseAspect(k)
		if err != nil {
			return nil, err
		}
		out[a] = v
	}
	return out, nil
}

// AspectKinds returns the enabled aspect kinds.
func (c Config) AspectKinds() ([]zodiac.Aspect, error) {
	out := make([]zodiac.Aspect, 0, len(c.Aspects))
	for _, s := range c.Aspects {
		a, err := zodiac.ParseAspect(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// AxisList returns the enabled antiscion axes.
func (c Config) AxisList() ([]zodiac.Axis, error) {
	out := make([]zodiac.Axis, 0, len(c.Antiscia.Axes))
	for _, s := range c.Antiscia.Axes {
		a, err := zodiac.ParseAxis(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
