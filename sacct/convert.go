// Converters for the field value syntaxes that sacct emits.

package sacct

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"slurmacct/common"
)

// Sentinel for "UNLIMITED" time limits.  Sums involving it saturate, see AddDuration.
const DurationUnlimited = time.Duration(math.MaxInt64)

const (
	kb = 1024.0
	mb = 1024 * kb
	gb = 1024 * mb
	tb = 1024 * gb
	pb = 1024 * tb
	eb = 1024 * pb
)

// MT: Constant after initialization; immutable
var (
	timestampRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})(T(\d{2}):(\d{2})(:(\d{2}))?)?$`)
	timelapseRe = regexp.MustCompile(`^((((\d+)-)?(\d{2}):)?(\d{2}):)?(\d{2})(\.(\d{3}))?$`)
)

// ParseTimestamp normalizes a timestamp string in the format 'YYYY-MM-DD[THH:MM[:SS]]' to a
// time.Time.  The sentinel "Unknown" becomes the current time, with a warning.

func ParseTimestamp(s string) (time.Time, error) {
	if m := timestampRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		var hour, minute, second int
		if m[4] != "" {
			hour, _ = strconv.Atoi(m[5])
			minute, _ = strconv.Atoi(m[6])
			if m[7] != "" {
				second, _ = strconv.Atoi(m[8])
			}
		}
		return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
	}
	if s == "Unknown" {
		common.Log.Warningf("Invalid timestamp string %q, reset to now.", s)
		return time.Now().UTC(), nil
	}
	return time.Time{}, fmt.Errorf("Invalid timestamp string %q", s)
}

// ParseTimelapse normalizes an elapsed-time string in the format '[D-][HH:][MM:]SS[.mmm]' to a
// time.Duration.  The empty string is zero; "UNLIMITED" is DurationUnlimited; "INVALID" and
// "Partition_Limit" are zero.

func ParseTimelapse(s string) (time.Duration, error) {
	if m := timelapseRe.FindStringSubmatch(s); m != nil {
		var days, hours, minutes, seconds, millis int
		if m[4] != "" {
			days, _ = strconv.Atoi(m[4])
		}
		if m[5] != "" {
			hours, _ = strconv.Atoi(m[5])
		}
		if m[6] != "" {
			minutes, _ = strconv.Atoi(m[6])
		}
		seconds, _ = strconv.Atoi(m[7])
		if m[9] != "" {
			millis, _ = strconv.Atoi(m[9])
		}
		return time.Duration(days)*24*time.Hour +
			time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second +
			time.Duration(millis)*time.Millisecond, nil
	}
	switch s {
	case "":
		common.Log.Debugf("Null timelapse string, reset to 0.")
		return 0, nil
	case "UNLIMITED":
		return DurationUnlimited, nil
	case "INVALID", "Partition_Limit":
		common.Log.Debugf("Invalid timelapse string %q, reset to 0.", s)
		return 0, nil
	}
	return 0, fmt.Errorf("Invalid timelapse string %q", s)
}

// ParseSize converts a memory or disk quantity with an optional single-letter binary magnitude
// suffix to a number of bytes.  The empty string and anything unparseable yield zero.

func ParseSize(s string) float64 {
	if s == "" {
		return 0
	}
	scale := 1.0
	switch s[len(s)-1] {
	case 'K':
		scale = kb
	case 'M':
		scale = mb
	case 'G':
		scale = gb
	case 'T':
		scale = tb
	case 'P':
		scale = pb
	case 'E':
		scale = eb
	}
	if scale != 1.0 {
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n * scale
}

// SafeFloat parses a float with a fallback to zero, for extremal-field comparisons on values
// that may be blank.

func SafeFloat(s string) float64 {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}

// AddDuration adds two durations, saturating at DurationUnlimited on overflow.

func AddDuration(a, b time.Duration) time.Duration {
	if a == DurationUnlimited || b == DurationUnlimited {
		return DurationUnlimited
	}
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return DurationUnlimited
	}
	return c
}
