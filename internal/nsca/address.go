package nsca

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ParseAddress normalizes a connection string ("host", "host:port",
// "[v6]:port" or a bare IPv6 address) into host:port.
func ParseAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("nsca: empty address")
	}

	host, port, err := net.SplitHostPort(s)
	if err != nil {
		// No port, or a bare IPv6 address.
		host = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		if strings.ContainsAny(host, "[]") {
			return "", fmt.Errorf("nsca: invalid address %q", s)
		}
		return net.JoinHostPort(host, strconv.Itoa(DefaultPort)), nil
	}

	if host == "" {
		return "", fmt.Errorf("nsca: address %q has no host", s)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("nsca: invalid port in %q", s)
	}

	return net.JoinHostPort(host, port), nil
}
