package checks

import (
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"ozzus/nsca-agent/internal/domain"
)

func stringParam(params map[string]interface{}, key, fallback string) string {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case string:
			if v == "" {
				return fallback
			}
			return v
		case fmt.Stringer:
			return v.String()
		default:
			str := fmt.Sprintf("%v", value)
			if str == "" {
				return fallback
			}
			return str
		}
	}

	return fallback
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case int:
			return v
		case int32:
			return int(v)
		case int64:
			return int(v)
		case float32:
			return int(v)
		case float64:
			return int(v)
		case string:
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}

	return fallback
}

// durationParam reads a duration string ("250ms") or a number of
// milliseconds.
func durationParam(params map[string]interface{}, key string, fallback time.Duration) time.Duration {
	if params == nil {
		return fallback
	}

	if value, ok := params[key]; ok {
		switch v := value.(type) {
		case time.Duration:
			return v
		case int:
			return time.Duration(v) * time.Millisecond
		case int64:
			return time.Duration(v) * time.Millisecond
		case float64:
			return time.Duration(v) * time.Millisecond
		case string:
			if parsed, err := time.ParseDuration(v); err == nil {
				return parsed
			}
		}
	}

	return fallback
}

// taskTimeout prefers the task's own timeout (seconds), then the
// "timeout" parameter, then fallback.
func taskTimeout(task domain.Task, fallback time.Duration) time.Duration {
	if task.Timeout > 0 {
		return time.Duration(task.Timeout) * time.Second
	}
	if d := durationParam(task.Parameters, "timeout", fallback); d > 0 {
		return d
	}
	return fallback
}

// thresholdState grades a measured duration against the optional
// "warning" and "critical" parameters.
func thresholdState(params map[string]interface{}, d time.Duration) domain.ReturnCode {
	if crit := durationParam(params, "critical", 0); crit > 0 && d >= crit {
		return domain.StateCritical
	}
	if warn := durationParam(params, "warning", 0); warn > 0 && d >= warn {
		return domain.StateWarning
	}
	return domain.StateOK
}

var severity = map[domain.ReturnCode]int{
	domain.StateOK:       0,
	domain.StateWarning:  1,
	domain.StateUnknown:  2,
	domain.StateCritical: 3,
}

func worst(a, b domain.ReturnCode) domain.ReturnCode {
	if severity[b] > severity[a] {
		return b
	}
	return a
}

// limitMessage keeps plugin output within the record's message field.
func limitMessage(s string) string {
	if len(s) <= domain.MaxMessageLength {
		return s
	}
	n := domain.MaxMessageLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func formatSeconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.3f s", d.Seconds())
}

func formatMilliseconds(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1f ms", float64(d.Microseconds())/1000.0)
}
