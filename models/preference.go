package models

import "time"

// CalendarDate is a civil date with no time-of-day component.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf truncates t to its civil date in t's location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Time returns midnight of the date in the given location.
func (d CalendarDate) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Equal reports civil-date equality.
func (d CalendarDate) Equal(other CalendarDate) bool {
	return d.Year == other.Year && d.Month == other.Month && d.Day == other.Day
}

// ClockTime is a time of day on a 24-hour clock.
type ClockTime struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// DateRange is an inclusive span of civil dates.
type DateRange struct {
	From CalendarDate `json:"from"`
	To   CalendarDate `json:"to"`
}

// DateTimePreference is a structured date/time constraint extracted from free
// text. Every field is independently optional; a nil field means "no
// constraint on this dimension", never "now".
type DateTimePreference struct {
	Date      *CalendarDate `json:"date"`
	Time      *ClockTime    `json:"time"`
	DateRange *DateRange    `json:"dateRange"`
}

// IsEmpty reports whether no dimension is constrained.
func (p DateTimePreference) IsEmpty() bool {
	return p.Date == nil && p.Time == nil && p.DateRange == nil
}
