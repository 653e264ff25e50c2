package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/ephemeris"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

var housesCmd = &cobra.Command{
	Use:   "houses",
	Short: "Compute the angles and house cusps for a moment and place",
	Long: `Computes the Ascendant, Midheaven, Vertex and the twelve house cusps.

Pass --houses all to compare every supported system. Quadrant systems fail
beyond their critical latitude; the failure is reported, never replaced.`,
	Args: cobra.NoArgs,
	RunE: runHouses,
}

func init() {
	addMomentFlags(housesCmd)
	rootCmd.AddCommand(housesCmd)
}

func runHouses(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.finish()

	def, err := momentFlags(cmd)
	if err != nil {
		return err
	}
	ts, err := def.Timestamp()
	if err != nil {
		return err
	}
	jd, err := ts.JulianDay()
	if err != nil {
		return err
	}
	coords, err := chart.NewGeoCoordinate(def.Location.Longitude, def.Location.Latitude, def.Location.Altitude)
	if err != nil {
		return err
	}

	systems, err := houseSystems(def.HouseSystem, a.cfg.HouseSystem)
	if err != nil {
		return err
	}
	calc := houses.NewCalculator(ephemeris.New())
	loc := houses.Location{Latitude: coords.Latitude, Longitude: coords.Longitude}
	angles := calc.Angles(loc, jd)
	for _, system := range systems {
		cusps, err := calc.Cusps(system, loc, jd)
		if err != nil {
			a.logger.Debug().Err(err).Str("system", system.String()).Msg("cusps unavailable")
		}
		a.printer.Houses(system, angles, cusps, err)
	}
	return nil
}

// houseSystems resolves the --houses flag, falling back to the configured
// system. "all" selects every system that produces cusps.
func houseSystems(flag, fallback string) ([]zodiac.HouseSystem, error) {
	if flag == "" {
		flag = fallback
	}
	if flag == "all" {
		return zodiac.HouseSystems(), nil
	}
	system, err := zodiac.ParseHouseSystem(flag)
	if err != nil {
		return nil, err
	}
	return []zodiac.HouseSystem{system}, nil
}
