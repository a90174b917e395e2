package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"

	minute = time.Minute
)

var departureTimeRe = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

func validDepartureTime(s string) bool {
	return departureTimeRe.MatchString(s)
}

// parseDate normalizes to midnight UTC, dropping any time component.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// departureInstant combines a calendar date with an "HH:mm" departure time.
func departureInstant(date time.Time, departureTime string) time.Time {
	parts := strings.SplitN(departureTime, ":", 2)
	hh, _ := strconv.Atoi(parts[0])
	mm := 0
	if len(parts) == 2 {
		mm, _ = strconv.Atoi(parts[1])
	}
	return date.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*minute)
}

// occupiedWindow is [departure, departure+duration+turnaround).
func occupiedWindow(date time.Time, departureTime string, durationMinutes, turnaroundMinutes int) (start, end time.Time) {
	start = departureInstant(date, departureTime)
	end = start.Add(time.Duration(durationMinutes+turnaroundMinutes) * minute)
	return start, end
}

func windowsOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
