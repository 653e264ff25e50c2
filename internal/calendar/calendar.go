// Package calendar converts civil timestamps in the proleptic Gregorian
// calendar to and from Julian Day numbers.
//
// A Timestamp carries its own UTC offset in hours. The Julian Day it maps to
// is always expressed in Universal Time: the offset is removed before the
// day fraction is added.
package calendar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDate is returned when a year/month/day/time combination does not
// exist in the proleptic Gregorian calendar.
var ErrInvalidDate = errors.New("invalid date")

// Supported year range. The integer day-number formula stays exact across it.
const (
	MinYear = -4712
	MaxYear = 9999
)

// Julian Days, in Universal Time, of the first and last instants of the
// supported year range.
const (
	MinJulianDay = 37.5      // -4712-01-01 00:00
	MaxJulianDay = 5373484.5 // 10000-01-01 00:00
)

// MaxTZOffset bounds the absolute UTC offset, in hours, a Timestamp may carry.
const MaxTZOffset = 14.0

const microsPerDay = 86400 * 1_000_000

// Timestamp is a civil date and time with a UTC offset in hours. The zero
// value is not valid; construct one with New or FromTime.
type Timestamp struct {
	Year        int     `json:"year"`
	Month       int     `json:"month"`
	Day         int     `json:"day"`
	Hour        int     `json:"hour"`
	Minute      int     `json:"minute"`
	Second      int     `json:"second"`
	Microsecond int     `json:"microsecond,omitempty"`
	TZOffset    float64 `json:"tz_offset"`
}

// New builds a validated Timestamp with a zero microsecond component.
func New(year, month, day, hour, minute, second int, tzOffset float64) (Timestamp, error) {
	t := Timestamp{
		Year:     year,
		Month:    month,
		Day:      day,
		Hour:     hour,
		Minute:   minute,
		Second:   second,
		TZOffset: tzOffset,
	}
	if err := t.Validate(); err != nil {
		return Timestamp{}, err
	}
	return t, nil
}

// Validate reports whether every field of t lies in range. The returned
// error wraps ErrInvalidDate.
func (t Timestamp) Validate() error {
	switch {
	case t.Year < MinYear || t.Year > MaxYear:
		return fmt.Errorf("%w: year %d outside [%d, %d]", ErrInvalidDate, t.Year, MinYear, MaxYear)
	case t.Month < 1 || t.Month > 12:
		return fmt.Errorf("%w: month %d", ErrInvalidDate, t.Month)
	case t.Day < 1 || t.Day > DaysInMonth(t.Year, t.Month):
		return fmt.Errorf("%w: day %d in %04d-%02d", ErrInvalidDate, t.Day, t.Year, t.Month)
	case t.Hour < 0 || t.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidDate, t.Hour)
	case t.Minute < 0 || t.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidDate, t.Minute)
	case t.Second < 0 || t.Second > 59:
		return fmt.Errorf("%w: second %d", ErrInvalidDate, t.Second)
	case t.Microsecond < 0 || t.Microsecond > 999_999:
		return fmt.Errorf("%w: microsecond %d", ErrInvalidDate, t.Microsecond)
	case math.IsNaN(t.TZOffset) || math.Abs(t.TZOffset) > MaxTZOffset:
		return fmt.Errorf("%w: timezone offset %g", ErrInvalidDate, t.TZOffset)
	}
	return nil
}

// IsLeap reports whether year is a leap year in the proleptic Gregorian
// calendar.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month, or 0 when month
// is out of range.
func DaysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if IsLeap(year) {
			return 29
		}
		return 28
	}
	return 0
}

// ToJulianDay converts t to a Julian Day in Universal Time. Julian Day
// numbers start at noon, so midnight UTC falls on a half day.
func ToJulianDay(t Timestamp) (float64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	hours := float64(t.Hour) +
		float64(t.Minute)/60 +
		(float64(t.Second)+float64(t.Microsecond)/1e6)/3600 -
		t.TZOffset
	return float64(dayNumber(t.Year, t.Month, t.Day)) - 0.5 + hours/24, nil
}

// JulianDay is shorthand for ToJulianDay(t).
func (t Timestamp) JulianDay() (float64, error) {
	return ToJulianDay(t)
}

// FromJulianDay converts a Julian Day in Universal Time back into a civil
// timestamp at the given UTC offset, rounded to the microsecond. Float64
// resolution near the current epoch is a few tens of microseconds, so a
// round trip is exact to the millisecond.
func FromJulianDay(jd, tzOffset float64) Timestamp {
	local := jd + 0.5 + tzOffset/24
	day := math.Floor(local)
	us := int64(math.Round((local - day) * microsPerDay))
	jdn := int64(day)
	if us >= microsPerDay {
		jdn++
		us -= microsPerDay
	}
	y, m, d := civilDate(jdn)
	return Timestamp{
		Year:        y,
		Month:       m,
		Day:         d,
		Hour:        int(us / 3_600_000_000),
		Minute:      int(us / 60_000_000 % 60),
		Second:      int(us / 1_000_000 % 60),
		Microsecond: int(us % 1_000_000),
		TZOffset:    tzOffset,
	}
}

// FromTime converts a time.Time, keeping its zone offset.
func FromTime(tm time.Time) Timestamp {
	_, off := tm.Zone()
	return Timestamp{
		Year:        tm.Year(),
		Month:       int(tm.Month()),
		Day:         tm.Day(),
		Hour:        tm.Hour(),
		Minute:      tm.Minute(),
		Second:      tm.Second(),
		Microsecond: tm.Nanosecond() / 1000,
		TZOffset:    float64(off) / 3600,
	}
}

// Time returns t as a time.Time in a fixed zone carrying t's offset.
func (t Timestamp) Time() time.Time {
	zone := time.FixedZone("", int(math.Round(t.TZOffset*3600)))
	return time.Date(t.Year, time.Month(t.Month), t.Day, t.Hour, t.Minute, t.Second, t.Microsecond*1000, zone)
}

// String formats t as "YYYY-MM-DD hh:mm:ss ±hh:mm".
func (t Timestamp) String() string {
	sign := '+'
	off := t.TZOffset
	if off < 0 {
		sign = '-'
		off = -off
	}
	offMin := int(math.Round(off * 60))
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %c%02d:%02d",
		t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Second, sign, offMin/60, offMin%60)
}

// dayNumber returns the Julian Day Number of the Gregorian date at noon,
// using the Fliegel–Van Flandern integer formula. Division truncates toward
// zero, which the formula relies on.
func dayNumber(y, m, d int) int64 {
	i, j, k := int64(y), int64(m), int64(d)
	a := (j - 14) / 12
	return k - 32075 +
		1461*(i+4800+a)/4 +
		367*(j-2-a*12)/12 -
		3*((i+4900+a)/100)/4
}

// civilDate inverts dayNumber.
func civilDate(jdn int64) (year, month, day int) {
	l := jdn + 68569
	n := 4 * l / 146097
	l -= (146097*n + 3) / 4
	i := 4000 * (l + 1) / 1461001
	l = l - 1461*i/4 + 31
	j := 80 * l / 2447
	k := l - 2447*j/80
	l = j / 11
	j = j + 2 - 12*l
	i = 100*(n-49) + i + l
	return int(i), int(j), int(k)
}
