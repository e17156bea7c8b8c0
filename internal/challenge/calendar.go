package challenge

import "time"

// CalendarDayCount is the number of day slots: a non-leap year.
const CalendarDayCount = 365

// MonthDay addresses one calendar-day slot.
type MonthDay struct {
	Month int `json:"month" db:"month"`
	Day   int `json:"day" db:"day"`
}

// IsLeapDay reports whether md is Feb 29, which never exists as a slot.
func (md MonthDay) IsLeapDay() bool {
	return md.Month == int(time.February) && md.Day == 29
}

// MonthDayOf buckets t by its calendar day in loc.
func MonthDayOf(t time.Time, loc *time.Location) MonthDay {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return MonthDay{Month: int(local.Month()), Day: local.Day()}
}

// CalendarDays returns every (month, day) of a non-leap year in order.
func CalendarDays() []MonthDay {
	days := make([]MonthDay, 0, CalendarDayCount)
	// 2023 is not a leap year, so Feb 29 is never produced.
	d := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Year() == 2023 {
		days = append(days, MonthDay{Month: int(d.Month()), Day: d.Day()})
		d = d.AddDate(0, 0, 1)
	}
	return days
}
