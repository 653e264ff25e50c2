package ui

import (
	"fmt"
	"strconv"

	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/houses"
	"github.com/papapumpkin/astrolabe/internal/zodiac"
)

// Chart prints every section of a computed snapshot under title.
func (p *Printer) Chart(title string, snap *chart.Snapshot) {
	p.Title(title)
	p.Fields(
		Field{"Time", snap.Timestamp.String()},
		Field{"Julian Day", strconv.FormatFloat(snap.JulianDay, 'f', 6, 64)},
		Field{"Location", formatCoordinates(snap.Coordinates)},
		Field{"Houses", snap.HouseSystem.String()},
	)

	p.Section("Positions")
	p.Table([]string{"Body", "Sign", "Position", "House", "Speed", "Dignity"}, p.positionRows(snap.Positions))
	for _, u := range snap.Unresolved {
		p.Fail("%s unresolved: %s", u.Body, u.Reason)
	}

	p.Section("Angles")
	p.Table([]string{"Point", "Sign", "Position"}, p.angleRows(snap.Angles))

	if err := snap.HouseErr(); err != nil {
		p.Section("Houses")
		p.Note("%v", err)
	} else if len(snap.Cusps) > 0 {
		p.Section("Houses")
		p.Table([]string{"House", "Sign", "Cusp"}, p.cuspRows(snap.Cusps))
	}

	p.Section("Aspects")
	if len(snap.Aspects) == 0 {
		p.Note("none within orb")
	} else {
		p.Table([]string{"Body", "Aspect", "Body", "Orb", "Strength", ""}, p.aspectRows(snap.Aspects))
	}

	if len(snap.Antiscia) > 0 {
		p.Section("Antiscia")
		p.Table([]string{"Body", "Axis", "Body", "Deviation"}, antisciaRows(snap.Antiscia))
	}

	p.Section("Moon")
	p.Fields(
		Field{"Phase", snap.MoonPhase.Phase.String()},
		Field{"Lunation", fmt.Sprintf("%.1f%%", snap.MoonPhase.Percent)},
		Field{"Illumination", fmt.Sprintf("%.1f%%", snap.MoonPhase.Illumination)},
	)

	p.Section("Balance")
	p.Table([]string{"Element", "Points"}, tallyRows(zodiac.Elements(), snap.Elements))
	p.Table([]string{"Quality", "Points"}, tallyRows(zodiac.Qualities(), snap.Qualities))
}

// Houses prints the angles and cusps of a house computation. A non-nil
// err replaces the cusp table.
func (p *Printer) Houses(system zodiac.HouseSystem, angles houses.Angles, cusps []houses.Cusp, err error) {
	p.Title(system.String())
	p.Table([]string{"Point", "Sign", "Position"}, p.angleRows(angles))
	if err != nil {
		p.Fail("%v", err)
		return
	}
	p.Table([]string{"House", "Sign", "Cusp"}, p.cuspRows(cusps))
}

func (p *Printer) positionRows(positions []chart.PlanetPosition) [][]string {
	rows := make([][]string, 0, len(positions))
	for _, pos := range positions {
		speed := ""
		if pos.Body.Info().RealBody {
			speed = fmt.Sprintf("%+.4f", pos.Speed)
			if pos.Retrograde {
				speed += " " + p.st.retro.Render(iconRetro)
			}
		}
		house := ""
		if pos.House > 0 {
			house = strconv.Itoa(pos.House)
		}
		rows = append(rows, []string{
			pos.Body.String(),
			pos.Sign().String(),
			pos.DMS().String(),
			house,
			speed,
			p.dignity(pos.Dignity()),
		})
	}
	return rows
}

func (p *Printer) dignity(d zodiac.Dignity) string {
	switch d {
	case zodiac.Domicile, zodiac.Exaltation:
		return p.st.good.Render(d.String())
	case zodiac.Exile, zodiac.Fall:
		return p.st.bad.Render(d.String())
	}
	return p.st.muted.Render(d.String())
}

func (p *Printer) angleRows(a houses.Angles) [][]string {
	points := []struct {
		name string
		lon  float64
	}{
		{"Ascendant", a.Ascendant},
		{"Midheaven", a.Midheaven},
		{"Descendant", a.Descendant()},
		{"Imum Coeli", a.ImumCoeli()},
		{"Vertex", a.Vertex},
	}
	rows := make([][]string, 0, len(points))
	for _, pt := range points {
		rows = append(rows, []string{pt.name, zodiac.SignAt(pt.lon).String(), p.st.accent.Render(offset(pt.lon))})
	}
	return rows
}

func (p *Printer) cuspRows(cusps []houses.Cusp) [][]string {
	rows := make([][]string, 0, len(cusps))
	for _, c := range cusps {
		rows = append(rows, []string{
			strconv.Itoa(c.House),
			zodiac.SignAt(c.Longitude).String(),
			p.st.accent.Render(offset(c.Longitude)),
		})
	}
	return rows
}

func (p *Printer) aspectRows(aspects []chart.AspectInstance) [][]string {
	rows := make([][]string, 0, len(aspects))
	for _, a := range aspects {
		kind := p.st.bad.Render(a.Kind.String())
		if a.Kind.Info().Harmonious {
			kind = p.st.good.Render(a.Kind.String())
		}
		motion := "separating"
		if a.Applying {
			motion = "applying"
		}
		rows = append(rows, []string{
			a.BodyA.String(),
			kind,
			a.BodyB.String(),
			zodiac.ToDMS(a.Deviation).String(),
			fmt.Sprintf("%.0f%%", a.Percent()),
			p.st.muted.Render(motion),
		})
	}
	return rows
}

func antisciaRows(antiscia []chart.AntiscionInstance) [][]string {
	rows := make([][]string, 0, len(antiscia))
	for _, a := range antiscia {
		rows = append(rows, []string{
			a.BodyA.String(),
			a.Axis.String(),
			a.BodyB.String(),
			zodiac.ToDMS(a.Deviation).String(),
		})
	}
	return rows
}

func tallyRows[K interface {
	comparable
	fmt.Stringer
}](keys []K, counts map[K]int) [][]string {
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k.String(), strconv.Itoa(counts[k])})
	}
	return rows
}

func offset(lon float64) string {
	return zodiac.ToDMS(zodiac.SignOffset(lon)).String()
}

func formatCoordinates(g chart.GeoCoordinate) string {
	ns, ew := "N", "E"
	lat, lon := g.Latitude, g.Longitude
	if lat < 0 {
		ns, lat = "S", -lat
	}
	if lon < 0 {
		ew, lon = "W", -lon
	}
	s := fmt.Sprintf("%s %s, %s %s", zodiac.ToDMS(lat), ns, zodiac.ToDMS(lon), ew)
	if g.Altitude != 0 {
		s += fmt.Sprintf(", %.0f m", g.Altitude)
	}
	return s
}
