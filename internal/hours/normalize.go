package hours

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/keyxmakerx/placekit/internal/textfold"
)

// dayNames maps folded Vietnamese day labels to weekdays.
var dayNames = map[string]Weekday{ //nolint:gochecknoglobals // read-only lookup table
	"thứ hai":  Monday,
	"thứ ba":   Tuesday,
	"thứ tư":   Wednesday,
	"thứ năm":  Thursday,
	"thứ sáu":  Friday,
	"thứ bảy":  Saturday,
	"chủ nhật": Sunday,
}

// closedMarkers mark a day as closed.
var closedMarkers = []string{"đóng cửa", "closed", "không mở cửa"} //nolint:gochecknoglobals // read-only

// allDayMarkers mark a day as open around the clock.
var allDayMarkers = []string{ //nolint:gochecknoglobals // read-only
	"open 24 hours", "24 hours", "mở cửa 24 giờ", "24 giờ", "open all day", "cả ngày",
}

// periodPattern matches "H:mm to H:mm", "HH:mm-HH:mm" and "HH:mm – HH:mm".
// Both clocks must stand alone, so "123:00" is not read as "23:00".
var periodPattern = regexp.MustCompile(`(?:^|\D)(\d{1,2}):(\d{2})\s*(?:to|-|–)\s*(\d{1,2}):(\d{2})(?:\D|$)`)

// LookupDay maps a localized day label ("Thứ Hai" .. "Chủ Nhật") to its
// Weekday. Matching ignores case, surrounding space and Unicode form.
func LookupDay(label string) (Weekday, bool) {
	d, ok := dayNames[strings.Join(strings.Fields(textfold.Fold(label)), " ")]
	return d, ok
}

// Normalize converts provider hour rows into a WeeklySchedule. Rows with an
// unknown day are skipped; a later row for the same day replaces an earlier
// one. Days without a row, closed days and unparseable text all end up
// closed. Normalize never fails.
func Normalize(entries []RawHourEntry) WeeklySchedule {
	var s WeeklySchedule
	for _, e := range entries {
		d, ok := LookupDay(e.Day)
		if !ok {
			continue
		}
		s[d] = ParseDay(e.Hours)
	}
	return s
}

// ParseDay interprets the hours text of a single day. Only the first valid
// period is kept when the text lists several.
func ParseDay(text string) DayHours {
	folded := strings.TrimSpace(textfold.Fold(text))
	if folded == "" || textfold.ContainsAny(folded, closedMarkers) {
		return DayHours{}
	}
	if textfold.ContainsAny(folded, allDayMarkers) {
		return DayHours{Open: "00:00", Close: "23:59"}
	}

	for _, segment := range strings.Split(folded, ",") {
		if h, ok := parsePeriod(segment); ok {
			return h
		}
	}
	return DayHours{}
}

func parsePeriod(segment string) (DayHours, bool) {
	m := periodPattern.FindStringSubmatch(segment)
	if m == nil {
		return DayHours{}, false
	}
	open, ok := clock(m[1], m[2])
	if !ok {
		return DayHours{}, false
	}
	closing, ok := clock(m[3], m[4])
	if !ok {
		return DayHours{}, false
	}
	return DayHours{Open: open, Close: closing}, true
}

// clock formats an hour and minute as "HH:mm". Hours above 24 and minutes
// above 59 are rejected; 24:00 becomes 23:59.
func clock(hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(minute)
	if err != nil || m > 59 || h > 24 {
		return "", false
	}
	if h == 24 {
		if m != 0 {
			return "", false
		}
		return "23:59", true
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}
