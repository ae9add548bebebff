package checks

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"ozzus/nsca-agent/internal/domain"
)

type TCPChecker struct {
	timeout time.Duration
	dialer  net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &TCPChecker{timeout: timeout}
}

// Check opens a TCP connection to the target. A target without a port
// takes it from the "port" parameter.
func (t *TCPChecker) Check(ctx context.Context, task domain.Task) domain.CheckResult {
	addr := task.Target
	if _, _, err := net.SplitHostPort(addr); err != nil {
		port := intParam(task.Parameters, "port", 0)
		if port <= 0 {
			return task.Result(domain.StateUnknown, fmt.Sprintf("TCP UNKNOWN - no port in target %q", task.Target))
		}
		addr = net.JoinHostPort(addr, strconv.Itoa(port))
	}

	ctx, cancel := context.WithTimeout(ctx, taskTimeout(task, t.timeout))
	defer cancel()

	start := time.Now()
	conn, err := t.dialer.DialContext(ctx, "tcp", addr)
	duration := time.Since(start)
	if err != nil {
		return task.Result(domain.StateCritical, fmt.Sprintf("TCP CRITICAL - %v", err))
	}
	_ = conn.Close()

	state := thresholdState(task.Parameters, duration)
	msg := fmt.Sprintf("TCP %s - %s response time on %s|time=%.6fs",
		state, formatSeconds(duration), addr, duration.Seconds())

	return task.Result(state, msg)
}

func (t *TCPChecker) Type() domain.TaskType {
	return domain.TaskTypeTCP
}
