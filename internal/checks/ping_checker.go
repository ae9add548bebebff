package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ping/ping"

	"ozzus/nsca-agent/internal/domain"
)

type pingFunc func(ctx context.Context, host string, count int, timeout time.Duration, privileged bool) (*ping.Statistics, error)

type PingChecker struct {
	timeout    time.Duration
	count      int
	privileged bool
	run        pingFunc
}

// NewPingChecker sends count echo requests per check. Unprivileged mode
// uses UDP ICMP sockets (net.ipv4.ping_group_range on Linux).
func NewPingChecker(timeout time.Duration, count int, privileged bool) *PingChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if count <= 0 {
		count = 4
	}

	return &PingChecker{
		timeout:    timeout,
		count:      count,
		privileged: privileged,
		run:        runPinger,
	}
}

// Check pings the target. Any loss is WARNING, total loss CRITICAL; the
// warning and critical parameters grade the average round trip.
func (p *PingChecker) Check(ctx context.Context, task domain.Task) domain.CheckResult {
	count := intParam(task.Parameters, "count", p.count)
	if count <= 0 {
		count = p.count
	}

	stats, err := p.run(ctx, task.Target, count, taskTimeout(task, p.timeout), p.privileged)
	if err != nil {
		return task.Result(domain.StateCritical, fmt.Sprintf("PING CRITICAL - %s: %v", task.Target, err))
	}

	state := domain.StateOK
	switch {
	case stats.PacketsRecv == 0:
		state = domain.StateCritical
	case stats.PacketLoss > 0:
		state = domain.StateWarning
	}
	if stats.PacketsRecv > 0 {
		state = worst(state, thresholdState(task.Parameters, stats.AvgRtt))
	}

	ms := float64(stats.AvgRtt.Microseconds()) / 1000.0
	msg := fmt.Sprintf("PING %s - %s Packet loss = %.0f%%, RTA = %s|rta=%.3fms;;;0 pl=%.0f%%;;;0",
		state, pingAddr(stats, task.Target), stats.PacketLoss, formatMilliseconds(stats.AvgRtt), ms, stats.PacketLoss)

	return task.Result(state, msg)
}

func pingAddr(stats *ping.Statistics, fallback string) string {
	if stats.IPAddr != nil {
		return stats.IPAddr.String()
	}
	return fallback
}

func runPinger(ctx context.Context, host string, count int, timeout time.Duration, privileged bool) (*ping.Statistics, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return nil, err
	}

	pinger.Count = count
	pinger.Timeout = timeout
	pinger.SetPrivileged(privileged)

	stop := context.AfterFunc(ctx, pinger.Stop)
	defer stop()

	if err := pinger.Run(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return pinger.Statistics(), nil
}

func (p *PingChecker) Type() domain.TaskType {
	return domain.TaskTypePing
}
