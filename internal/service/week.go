package service

import "time"

const week = 7 * 24 * time.Hour

// WeekStart returns Monday 00:00 of t's week in loc, as a UTC instant.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := (int(local.Weekday()) + 6) % 7
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -offset).UTC()
}

// weekEnd is the exclusive end of the week beginning at start, honouring DST in loc.
func weekEnd(start time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return start.In(loc).AddDate(0, 0, 7).UTC()
}
