// File: services/intelligence/datetime.go
package intelligence

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"dentaflow/models"
)

// ParseDateTimePreference extracts a structured date/time preference from free
// text, deterministically relative to the reference instant. Recognizers run
// left to right — relative terms, weekday phrases, month-name dates, numeric
// dates, then clock times — and each consumes the text it matched so a bare
// number in a date expression is never re-read as a time (and vice versa).
// When nothing is recognizable the zero preference is returned; this function
// never fails.
func ParseDateTimePreference(text string, ref time.Time) models.DateTimePreference {
	var pref models.DateTimePreference
	lower := strings.ToLower(text)

	for _, rec := range dateRecognizers {
		if rest, ok := rec(lower, ref, &pref); ok {
			lower = rest
			break
		}
	}

	if t, _, ok := recognizeClockTime(lower); ok {
		pref.Time = t
	}

	return pref
}

type dateRecognizer func(text string, ref time.Time, pref *models.DateTimePreference) (rest string, ok bool)

var dateRecognizers = []dateRecognizer{
	recognizeRelativeDay,
	recognizeNextWeek,
	recognizeWeekday,
	recognizeMonthNameDate,
	recognizeNumericDate,
}

func consume(text string, loc []int) string {
	return text[:loc[0]] + " " + text[loc[1]:]
}

var (
	todayRe     = regexp.MustCompile(`\btoday\b`)
	tomorrowRe  = regexp.MustCompile(`\btomorrow\b`)
	nextWeekRe  = regexp.MustCompile(`\bnext\s+week\b`)
	weekdayRe   = regexp.MustCompile(`\b(?:(next|this)\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	monthDayRe  = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s*(\d{4}))?\b`)
	dayMonthRe  = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?(january|february|march|april|may|june|july|august|september|october|november|december)(?:,?\s*(\d{4}))?\b`)
	isoDateRe   = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	slashDateRe = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}))?\b`)
	meridiemRe  = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?m\b\.?`)
	oclockRe    = regexp.MustCompile(`\b(\d{1,2})\s+o'?\s*clock\b`)
	colonTimeRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday, "sunday": time.Sunday,
}

func recognizeRelativeDay(text string, ref time.Time, pref *models.DateTimePreference) (string, bool) {
	if loc := todayRe.FindStringIndex(text); loc != nil {
		d := models.DateOf(ref)
		pref.Date = &d
		return consume(text, loc), true
	}
	if loc := tomorrowRe.FindStringIndex(text); loc != nil {
		d := models.DateOf(ref.AddDate(0, 0, 1))
		pref.Date = &d
		return consume(text, loc), true
	}
	return text, false
}

// startOfWeek returns the Monday of ref's week at midnight.
func startOfWeek(ref time.Time) time.Time {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

func recognizeNextWeek(text string, ref time.Time, pref *models.DateTimePreference) (string, bool) {
	loc := nextWeekRe.FindStringIndex(text)
	if loc == nil {
		return text, false
	}
	from := startOfWeek(ref).AddDate(0, 0, 7)
	to := from.AddDate(0, 0, 6)
	pref.DateRange = &models.DateRange{From: models.DateOf(from), To: models.DateOf(to)}
	return consume(text, loc), true
}

func recognizeWeekday(text string, ref time.Time, pref *models.DateTimePreference) (string, bool) {
	m := weekdayRe.FindStringSubmatchIndex(text)
	if m == nil {
		return text, false
	}
	qualifier := ""
	if m[2] >= 0 {
		qualifier = text[m[2]:m[3]]
	}
	target := weekdaysByName[text[m[4]:m[5]]]
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	var resolved time.Time
	switch qualifier {
	case "next":
		// The named day of the week strictly after ref's current week.
		week := startOfWeek(ref).AddDate(0, 0, 7)
		resolved = week.AddDate(0, 0, (int(target)+6)%7)
	case "this":
		// The occurrence within the current week; today counts when it matches.
		resolved = startOfWeek(ref).AddDate(0, 0, (int(target)+6)%7)
		if resolved.Before(today) {
			resolved = resolved.AddDate(0, 0, 7)
		}
	default:
		// A bare weekday always means the next occurrence, today excluded.
		resolved = today.AddDate(0, 0, 1)
		for resolved.Weekday() != target {
			resolved = resolved.AddDate(0, 0, 1)
		}
	}

	d := models.DateOf(resolved)
	pref.Date = &d
	return consume(text, []int{m[0], m[1]}), true
}

func recognizeMonthNameDate(text string, ref time.Time, pref *models.DateTimePreference) (string, bool) {
	// "july 21st" / "july 21, 2025"
	if m := monthDayRe.FindStringSubmatchIndex(text); m != nil {
		month := monthsByName[text[m[2]:m[3]]]
		day, _ := strconv.Atoi(text[m[4]:m[5]])
		year := 0
		if m[6] >= 0 {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		if d, ok := resolveMonthDate(month, day, year, ref); ok {
			pref.Date = &d
			return consume(text, []int{m[0], m[1]}), true
		}
		return text, false
	}

	// "21st of july"
	if m := dayMonthRe.FindStringSubmatchIndex(text); m != nil {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month := monthsByName[text[m[4]:m[5]]]
		year := 0
		if m[6] >= 0 {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		if d, ok := resolveMonthDate(month, day, year, ref); ok {
			pref.Date = &d
			return consume(text, []int{m[0], m[1]}), true
		}
	}
	return text, false
}

// resolveMonthDate validates the day against the month and, when no year was
// given, rolls a date already past into the next year.
func resolveMonthDate(month time.Month, day, year int, ref time.Time) (models.CalendarDate, bool) {
	if day < 1 || day > 31 {
		return models.CalendarDate{}, false
	}
	y := year
	if y == 0 {
		y = ref.Year()
	}
	candidate := time.Date(y, month, day, 0, 0, 0, 0, ref.Location())
	if candidate.Month() != month || candidate.Day() != day {
		return models.CalendarDate{}, false
	}
	today := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	if year == 0 && candidate.Before(today) {
		candidate = candidate.AddDate(1, 0, 0)
	}
	return models.DateOf(candidate), true
}

func recognizeNumericDate(text string, ref time.Time, pref *models.DateTimePreference) (string, bool) {
	// YYYY-MM-DD
	if m := isoDateRe.FindStringSubmatchIndex(text); m != nil {
		year, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		day, _ := strconv.Atoi(text[m[6]:m[7]])
		if d, ok := validCivilDate(year, time.Month(month), day, ref); ok {
			pref.Date = &d
			return consume(text, []int{m[0], m[1]}), true
		}
		return text, false
	}

	// MM/DD with optional /YYYY
	if m := slashDateRe.FindStringSubmatchIndex(text); m != nil {
		month, _ := strconv.Atoi(text[m[2]:m[3]])
		day, _ := strconv.Atoi(text[m[4]:m[5]])
		year := 0
		if m[6] >= 0 {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
		}
		if month >= 1 && month <= 12 {
			if d, ok := resolveMonthDate(time.Month(month), day, year, ref); ok {
				pref.Date = &d
				return consume(text, []int{m[0], m[1]}), true
			}
		}
	}
	return text, false
}

func validCivilDate(year int, month time.Month, day int, ref time.Time) (models.CalendarDate, bool) {
	if month < time.January || month > time.December || day < 1 || day > 31 {
		return models.CalendarDate{}, false
	}
	candidate := time.Date(year, month, day, 0, 0, 0, 0, ref.Location())
	if candidate.Month() != month || candidate.Day() != day {
		return models.CalendarDate{}, false
	}
	return models.DateOf(candidate), true
}

func recognizeClockTime(text string) (*models.ClockTime, string, bool) {
	// 12-hour clock: "10am", "2:30pm", "12am" -> 00:00, "12pm" -> 12:00.
	if m := meridiemRe.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute := 0
		if m[4] >= 0 {
			minute, _ = strconv.Atoi(text[m[4]:m[5]])
		}
		meridiem := text[m[6]:m[7]]
		if hour >= 1 && hour <= 12 && minute <= 59 {
			if strings.HasPrefix(meridiem, "p") && hour != 12 {
				hour += 12
			}
			if strings.HasPrefix(meridiem, "a") && hour == 12 {
				hour = 0
			}
			return &models.ClockTime{Hour: hour, Minute: minute}, consume(text, []int{m[0], m[1]}), true
		}
		return nil, text, false
	}

	// "10 o'clock" — no meridiem; small hours read as afternoon, which is the
	// only interpretation inside clinic hours.
	if m := oclockRe.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		if hour >= 1 && hour <= 12 {
			if hour <= 7 {
				hour += 12
			}
			return &models.ClockTime{Hour: hour, Minute: 0}, consume(text, []int{m[0], m[1]}), true
		}
		return nil, text, false
	}

	// 24-hour "14:30". Date phrases were consumed before this point, so a
	// stray colon pair here really is a time.
	if m := colonTimeRe.FindStringSubmatchIndex(text); m != nil {
		hour, _ := strconv.Atoi(text[m[2]:m[3]])
		minute, _ := strconv.Atoi(text[m[4]:m[5]])
		if hour <= 23 && minute <= 59 {
			return &models.ClockTime{Hour: hour, Minute: minute}, consume(text, []int{m[0], m[1]}), true
		}
	}
	return nil, text, false
}
