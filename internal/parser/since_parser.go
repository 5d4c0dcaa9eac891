package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/balkashynov/trakr/internal/timeutil"
)

var (
	dateRegex     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(hour|hours|h|day|days|d|week|weeks|w)$`)
)

// ParseSince parses the start of a report window relative to now
// Supported formats:
// - today, yesterday, week (start of the current Monday-based week)
// - dd/mm/yyyy (e.g., "15/12/2024"), midnight of that day
// - X hours (e.g., "24 hours", "1h"), exactly X hours before now
// - X days (e.g., "3 days"), midnight X days ago
// - X weeks (e.g., "2 weeks"), midnight X*7 days ago
//
// Calendar-based results are in now's location.
func ParseSince(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "", "today":
		return timeutil.StartOfDay(now), nil
	case "yesterday":
		return timeutil.StartOfDay(now).AddDate(0, 0, -1), nil
	case "week":
		return timeutil.StartOfWeek(now), nil
	}

	if since, err := parseDateFormat(input, now.Location()); err == nil {
		if since.After(now) {
			return time.Time{}, fmt.Errorf("%s is in the future", input)
		}
		return since, nil
	} else if dateRegex.MatchString(input) {
		return time.Time{}, err
	}

	if since, err := parseRelativeTime(input, now); err == nil {
		return since, nil
	} else if relativeRegex.MatchString(input) {
		return time.Time{}, err
	}

	return time.Time{}, fmt.Errorf("invalid date format. Use: today, yesterday, week, dd/mm/yyyy, X hours, X days or X weeks")
}

// parseDateFormat parses dd/mm/yyyy format
func parseDateFormat(input string, loc *time.Location) (time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	// Validate date ranges
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}

	since := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if since.Day() != day || since.Month() != time.Month(month) || since.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date")
	}

	return since, nil
}

// parseRelativeTime parses relative time formats like "3 days", "24 hours", etc.
func parseRelativeTime(input string, now time.Time) (time.Time, error) {
	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return time.Time{}, fmt.Errorf("invalid relative time format")
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "hour", "hours", "h":
		if amount < 1 || amount > 8760 { // Max 1 year in hours
			return time.Time{}, fmt.Errorf("hours must be between 1 and 8760")
		}
		return now.Add(-time.Duration(amount) * time.Hour), nil

	case "day", "days", "d":
		if amount < 1 || amount > 365 {
			return time.Time{}, fmt.Errorf("days must be between 1 and 365")
		}
		return timeutil.StartOfDay(now).AddDate(0, 0, -amount), nil

	case "week", "weeks", "w":
		if amount < 1 || amount > 52 {
			return time.Time{}, fmt.Errorf("weeks must be between 1 and 52")
		}
		return timeutil.StartOfDay(now).AddDate(0, 0, -amount*7), nil

	default:
		return time.Time{}, fmt.Errorf("unsupported time unit")
	}
}
