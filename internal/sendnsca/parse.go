package sendnsca

import (
	"fmt"
	"strings"

	"ozzus/nsca-agent/internal/domain"
)

// ParseLine reads one check result in send_nsca input format:
//
//	host<delim>service<delim>code<delim>output   service check
//	host<delim>code<delim>output                 host check
//
// The output is the rest of the line and may contain the delimiter.
func ParseLine(line, delim string) (domain.CheckResult, error) {
	line = strings.TrimRight(line, "\r\n")
	if delim == "" {
		return domain.CheckResult{}, fmt.Errorf("empty delimiter")
	}

	parts := strings.SplitN(line, delim, 4)
	if len(parts) < 3 {
		return domain.CheckResult{}, fmt.Errorf("expected at least 3 fields, got %d", len(parts))
	}

	if len(parts) == 4 {
		if code, err := domain.ParseReturnCode(parts[2]); err == nil {
			return domain.CheckResult{
				Host:       parts[0],
				Service:    parts[1],
				ReturnCode: code,
				Message:    parts[3],
			}, nil
		}
	}

	code, err := domain.ParseReturnCode(parts[1])
	if err != nil {
		return domain.CheckResult{}, fmt.Errorf("no return code in line: %w", err)
	}

	return domain.CheckResult{
		Host:       parts[0],
		ReturnCode: code,
		Message:    strings.Join(parts[2:], delim),
	}, nil
}

// unescapeDelim turns "\t" and friends given on the command line into the
// real character.
func unescapeDelim(s string) string {
	switch s {
	case `\t`:
		return "\t"
	case `\n`:
		return "\n"
	case `\\`:
		return `\`
	}
	return s
}
