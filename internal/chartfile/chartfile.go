// Package chartfile reads and writes chart definition files: a named moment
// and place with the house system and bodies to compute. Files are TOML, or
// YAML when the extension is .yaml or .yml.
package chartfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/astrolabe/internal/calendar"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// ErrInvalidDefinition is returned when a definition file cannot be decoded
// or fails validation.
var ErrInvalidDefinition = errors.New("invalid chart definition")

// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported chart file format")

// Time is the civil time of a definition with its UTC offset in hours.
type Time struct {
	Year     int     `toml:"year" json:"year" yaml:"year" validate:"gte=-4712,lte=9999"`
	Month    int     `toml:"month" json:"month" yaml:"month" validate:"gte=1,lte=12"`
	Day      int     `toml:"day" json:"day" yaml:"day" validate:"gte=1,lte=31"`
	Hour     int     `toml:"hour" json:"hour" yaml:"hour" validate:"gte=0,lte=23"`
	Minute   int     `toml:"minute" json:"minute" yaml:"minute" validate:"gte=0,lte=59"`
	Second   int     `toml:"second" json:"second" yaml:"second" validate:"gte=0,lte=59"`
	Timezone float64 `toml:"timezone" json:"timezone" yaml:"timezone" validate:"gte=-14,lte=14"`
}

// Location is the observer's place in degrees, longitude positive east, and
// altitude in metres.
type Location struct {
	Longitude float64 `toml:"longitude" json:"longitude" yaml:"longitude" validate:"gte=-180,lte=180"`
	Latitude  float64 `toml:"latitude" json:"latitude" yaml:"latitude" validate:"gte=-90,lte=90"`
	Altitude  float64 `toml:"altitude,omitempty" json:"altitude,omitempty" yaml:"altitude,omitempty"`
}

// Definition describes one chart.
type Definition struct {
	Name        string   `toml:"name" json:"name" yaml:"name" validate:"required"`
	Time        Time     `toml:"time" json:"time" yaml:"time" validate:"required"`
	Location    Location `toml:"location" json:"location" yaml:"location"`
	HouseSystem string   `toml:"house_system" json:"house_system" yaml:"house_system" default:"placidus" validate:"house_system"`
	Bodies      []string `toml:"bodies" json:"bodies" yaml:"bodies" default:"[\"planets\"]" validate:"min=1,dive,body"`

	// Path is the file the definition was loaded from.
	Path string `toml:"-" json:"-" yaml:"-"`
}

// Timestamp returns the definition's time as a validated calendar timestamp.
// Unlike struct validation it rejects days past the end of the month.
func (d Definition) Timestamp() (calendar.Timestamp, error) {
	t := d.Time
	return calendar.New(t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, t.Timezone)
}

// TimeOf converts a calendar timestamp to definition time, dropping
// microseconds.
func TimeOf(ts calendar.Timestamp) Time {
	return Time{
		Year:     ts.Year,
		Month:    ts.Month,
		Day:      ts.Day,
		Hour:     ts.Hour,
		Minute:   ts.Minute,
		Second:   ts.Second,
		Timezone: ts.TZOffset,
	}
}

// HouseSystemValue parses the definition's house system.
func (d Definition) HouseSystemValue() (zodiac.HouseSystem, error) {
	return zodiac.ParseHouseSystem(d.HouseSystem)
}

// BodyList parses the definition's bodies, expanding "planets" and "all".
func (d Definition) BodyList() ([]zodiac.Body, error) {
	return zodiac.ParseBodies(d.Bodies)
}

// Validate applies defaults to unset fields, then checks every field and the
// calendar date. The error wraps ErrInvalidDefinition.
func (d *Definition) Validate() error {
	if err := defaults.Set(d); err != nil {
		return fmt.Errorf("%w: defaults: %w", ErrInvalidDefinition, err)
	}
	if err := newValidator().Struct(d); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	if _, err := d.Timestamp(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return nil
}

// IsDefinitionFile reports whether name has a chart definition extension.
func IsDefinitionFile(name string) bool {
	_, err := formatOf(name)
	return err == nil
}

// Parse decodes data in the format implied by name and validates it.
// Unknown keys are rejected.
func Parse(name string, data []byte) (Definition, error) {
	f, err := formatOf(name)
	if err != nil {
		return Definition{}, err
	}
	var def Definition
	switch f {
	case formatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&def)
	case formatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&def)
	}
	if err != nil {
		return Definition{}, fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, filepath.Base(name), err)
	}
	if err := def.Validate(); err != nil {
		return Definition{}, fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return def, nil
}

// Load reads and parses a definition file.
func Load(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("chartfile: read %s: %w", path, err)
	}
	def, err := Parse(path, data)
	if err != nil {
		return Definition{}, err
	}
	def.Path = path
	return def, nil
}

// LoadDir loads every definition file in dir, sorted by file name. It stops
// at the first invalid file.
func LoadDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("chartfile: read dir %s: %w", dir, err)
	}
	var defs []Definition
	for _, e := range entries {
		if e.IsDir() || !IsDefinitionFile(e.Name()) {
			continue
		}
		def, err := Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b Definition) int { return strings.Compare(a.Path, b.Path) })
	return defs, nil
}

// Marshal encodes def in the format implied by name.
func Marshal(name string, def Definition) ([]byte, error) {
	f, err := formatOf(name)
	if err != nil {
		return nil, err
	}
	if f == formatYAML {
		return yaml.Marshal(def)
	}
	return toml.Marshal(def)
}

// Write validates def and writes it to path.
func Write(path string, def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	data, err := Marshal(path, def)
	if err != nil {
		return fmt.Errorf("chartfile: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("chartfile: write %s: %w", path, err)
	}
	return nil
}

type format int

const (
	formatTOML format = iota
	formatYAML
)

func formatOf(name string) (format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(name))
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("body", func(fl validator.FieldLevel) bool {
		_, err := zodiac.ParseBodies([]string{fl.Field().String()})
		return err == nil
	})
	_ = v.RegisterValidation("house_system", func(fl validator.FieldLevel) bool {
		_, err := zodiac.ParseHouseSystem(fl.Field().String())
		return err == nil
	})
	return v
}
