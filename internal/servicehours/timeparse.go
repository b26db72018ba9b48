package servicehours

import (
	"strconv"
	"strings"
	"time"
)

// ParseClockTime parses a GTFS HH:MM:SS clock value into a duration since
// midnight of the service day. Hours of 24 and above are legal and kept
// as-is: wrapping them would break spans that cross midnight. An empty or
// malformed value returns ok=false and the row it came from is excluded
// from span computation by the caller.
func ParseClockTime(s string) (time.Duration, bool) {
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}

	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil {
		return 0, false
	}

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, true
}
