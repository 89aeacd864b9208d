package input

import (
	"strings"
	"time"
)

var absoluteLayouts = []string{"2006-01-02 15:04", "2006-01-02 15.04"}

var relativeDays = map[string]int{
	"today":    0,
	"сегодня":  0,
	"tomorrow": 1,
	"завтра":   1,
}

const whenHint = "Не понял дату/время или это уже в прошлом. Пример: 2025-08-23 19:00 или «завтра 10:30»"

// When parses "YYYY-MM-DD HH:MM", "YYYY-MM-DD HH.MM" or "today|tomorrow HH:MM"
// (also in Russian). Wall-clock values are read in loc and the result is
// returned in UTC. The moment must be strictly after now.
func When(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, ok := parseWhen(strings.ToLower(strings.Join(strings.Fields(s), " ")), now, loc)
	if !ok || !t.After(now) {
		return time.Time{}, invalid("when", whenHint)
	}
	return t.UTC(), nil
}

func parseWhen(s string, now time.Time, loc *time.Location) (time.Time, bool) {
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}

	parts := strings.SplitN(s, " ", 2)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	offset, ok := relativeDays[parts[0]]
	if !ok {
		return time.Time{}, false
	}
	clock, err := time.Parse("15:04", strings.ReplaceAll(parts[1], ".", ":"))
	if err != nil {
		return time.Time{}, false
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day()+offset, clock.Hour(), clock.Minute(), 0, 0, loc)
	return day, true
}
