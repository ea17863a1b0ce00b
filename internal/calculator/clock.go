package calculator

import (
	"strconv"
	"strings"
	"time"
)

// ParseClock converts an "HH:MM" wall-clock string into minutes since
// midnight. ok is false when either field is not a number.
func ParseClock(s string) (minutes int, ok bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return h*60 + m, true
}

// MinutesOfDay returns the local wall-clock minutes elapsed since midnight.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
