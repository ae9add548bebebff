package domain

import (
	"fmt"
	"strings"
)

// Field limits of a passive check record. Each limit excludes the NUL
// terminator, so host occupies at most 63 bytes of its 64-byte slot.
const (
	MaxHostLength    = 63
	MaxServiceLength = 127
	MaxMessageLength = 511
)

// ReturnCode is the Nagios plugin state reported for a check.
type ReturnCode uint16

const (
	StateOK       ReturnCode = 0
	StateWarning  ReturnCode = 1
	StateCritical ReturnCode = 2
	StateUnknown  ReturnCode = 3
)

// Host checks reuse the same wire values.
const (
	HostUp      = StateOK
	HostDown    = StateCritical
	HostUnknown = StateUnknown
)

// Valid reports whether c is one of the four states the daemon accepts.
func (c ReturnCode) Valid() bool {
	switch c {
	case StateOK, StateWarning, StateCritical, StateUnknown:
		return true
	}
	return false
}

func (c ReturnCode) String() string {
	switch c {
	case StateOK:
		return "OK"
	case StateWarning:
		return "WARNING"
	case StateCritical:
		return "CRITICAL"
	case StateUnknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("ReturnCode(%d)", uint16(c))
}

// ParseReturnCode accepts a numeric code ("0".."3") or a state name.
func ParseReturnCode(s string) (ReturnCode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "0", "OK", "UP":
		return StateOK, nil
	case "1", "WARNING", "WARN":
		return StateWarning, nil
	case "2", "CRITICAL", "CRIT", "DOWN":
		return StateCritical, nil
	case "3", "UNKNOWN":
		return StateUnknown, nil
	}
	return 0, NewError(KindValidation, "parse return code", fmt.Errorf("invalid return code %q", s))
}

// CheckResult is a single passive check submitted to the NSCA daemon.
// An empty Service marks a host check.
type CheckResult struct {
	Host       string     `json:"host"`
	Service    string     `json:"service,omitempty"`
	ReturnCode ReturnCode `json:"return_code"`
	Message    string     `json:"message,omitempty"`
}

// IsHostCheck reports whether the result describes the host itself.
func (r CheckResult) IsHostCheck() bool {
	return r.Service == ""
}

// Validate rejects results the daemon would misread. Oversized fields are
// never truncated.
func (r CheckResult) Validate() error {
	const op = "validate check result"

	if r.Host == "" {
		return NewError(KindValidation, op, fmt.Errorf("host is empty"))
	}
	if err := checkField("host", r.Host, MaxHostLength); err != nil {
		return NewError(KindValidation, op, err)
	}
	if err := checkField("service", r.Service, MaxServiceLength); err != nil {
		return NewError(KindValidation, op, err)
	}
	if err := checkField("message", r.Message, MaxMessageLength); err != nil {
		return NewError(KindValidation, op, err)
	}
	if !r.ReturnCode.Valid() {
		return NewError(KindValidation, op, fmt.Errorf("invalid return code %d", uint16(r.ReturnCode)))
	}

	return nil
}

func checkField(name, value string, limit int) error {
	if len(value) > limit {
		return fmt.Errorf("%s is %d bytes, limit is %d", name, len(value), limit)
	}
	if strings.IndexByte(value, 0) >= 0 {
		return fmt.Errorf("%s contains a NUL byte", name)
	}
	return nil
}
