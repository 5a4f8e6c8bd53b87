package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the textual timestamp format used in serialized records
// (year-month-dayThour:minute:second.microseconds).
const TimeLayout = "2006-01-02T15:04:05.000000"

// parseLayout covers everything up to the seconds field. The optional
// fractional part (one to six digits after a dot) is parsed separately.
const parseLayout = "2006-01-02T15:04:05"

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp in TimeLayout. Values without the fractional
// part are accepted as well. Errors wrap ErrTimestampFormat.
func ParseTime(value string) (time.Time, error) {
	head, frac, hasFrac := strings.Cut(value, ".")
	if len(head) != len(parseLayout) || (hasFrac && !validFraction(frac)) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, value)
	}
	t, err := time.Parse(parseLayout, head)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, value)
	}
	if hasFrac {
		us, _ := strconv.Atoi(frac + strings.Repeat("0", 6-len(frac)))
		t = t.Add(time.Duration(us) * time.Microsecond)
	}
	return normalizeTime(t), nil
}

func validFraction(frac string) bool {
	if frac == "" || len(frac) > 6 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeTime drops the monotonic reading and anything below microsecond
// precision so that a value survives the TimeLayout round trip unchanged.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
