// Package hours normalizes free-form provider opening hours into a fixed
// seven-day schedule of zero-padded 24-hour times.
package hours

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Weekday indexes a WeeklySchedule, Monday first.
type Weekday int

// Days of the week in schedule order.
const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	daysInWeek
)

// Weekdays lists the days in schedule order.
var Weekdays = [daysInWeek]Weekday{ //nolint:gochecknoglobals // read-only enum table
	Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday,
}

var weekdayKeys = [daysInWeek]string{ //nolint:gochecknoglobals // read-only enum table
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// String returns the lower-case English key used in JSON.
func (d Weekday) String() string {
	if d < 0 || d >= daysInWeek {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayKeys[d]
}

// DayHours is the opening period of one day. Both fields are "HH:mm" or
// both are empty, which means closed.
type DayHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Closed reports whether the day has no opening period.
func (d DayHours) Closed() bool {
	return d.Open == "" && d.Close == ""
}

// Valid reports whether d is closed or holds two zero-padded "HH:mm" clocks
// as the normalizer writes them.
func (d DayHours) Valid() bool {
	if d.Closed() {
		return true
	}
	return validClock(d.Open) && validClock(d.Close)
}

func validClock(s string) bool {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return false
	}
	formatted, ok := clock(hh, mm)
	return ok && formatted == s
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// WeeklySchedule holds the opening period for every day. The zero value is
// closed all week.
type WeeklySchedule [daysInWeek]DayHours

// Day returns the hours for d.
func (s WeeklySchedule) Day(d Weekday) DayHours {
	if d < 0 || d >= daysInWeek {
		return DayHours{}
	}
	return s[d]
}

// Invalid returns the first day whose hours are not valid.
func (s WeeklySchedule) Invalid() (Weekday, bool) {
	for _, d := range Weekdays {
		if !s[d].Valid() {
			return d, true
		}
	}
	return 0, false
}

// MarshalJSON writes an object with all seven weekday keys.
func (s WeeklySchedule) MarshalJSON() ([]byte, error) {
	obj := make(map[string]DayHours, daysInWeek)
	for _, d := range Weekdays {
		obj[weekdayKeys[d]] = s[d]
	}
	return json.Marshal(obj)
}

// UnmarshalJSON reads the seven-key object form. Missing days are closed;
// unknown keys are rejected.
func (s *WeeklySchedule) UnmarshalJSON(b []byte) error {
	var raw map[string]DayHours
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decoding weekly schedule: %w", err)
	}

	var out WeeklySchedule
	for key, h := range raw {
		d, ok := parseWeekdayKey(key)
		if !ok {
			return fmt.Errorf("unknown weekday %q", key)
		}
		out[d] = h
	}
	*s = out
	return nil
}

// Value implements driver.Valuer for the operating_hours JSON column.
func (s WeeklySchedule) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the operating_hours JSON column.
func (s *WeeklySchedule) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("scanning weekly schedule: unsupported type %T", src)
	}
	if len(b) == 0 {
		*s = WeeklySchedule{}
		return nil
	}
	return s.UnmarshalJSON(b)
}

func parseWeekdayKey(key string) (Weekday, bool) {
	for i, k := range weekdayKeys {
		if strings.EqualFold(k, key) {
			return Weekday(i), true
		}
	}
	return 0, false
}

// RawHourEntry is one provider row such as {"day": "Thứ Hai", "hours":
// "7:00 to 22:00"}.
type RawHourEntry struct {
	Day   string `json:"day"`
	Hours string `json:"hours"`
}
