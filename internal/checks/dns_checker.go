package checks

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"ozzus/nsca-agent/internal/domain"
)

// Resolver is the subset of *net.Resolver the DNS checker uses.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupMX(ctx context.Context, name string) ([]*net.MX, error)
	LookupNS(ctx context.Context, name string) ([]*net.NS, error)
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

var errUnsupportedRecord = errors.New("unsupported record type")

type DNSChecker struct {
	timeout  time.Duration
	resolver Resolver
}

func NewDNSChecker(timeout time.Duration, resolver Resolver) *DNSChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &DNSChecker{timeout: timeout, resolver: resolver}
}

// Check resolves the target. Parameters: record_type (A by default) and
// expect, a value that must be among the answers.
func (d *DNSChecker) Check(ctx context.Context, task domain.Task) domain.CheckResult {
	recordType := domain.DNSRecordType(strings.ToUpper(stringParam(task.Parameters, "record_type", string(domain.DNSRecordA))))

	ctx, cancel := context.WithTimeout(ctx, taskTimeout(task, d.timeout))
	defer cancel()

	start := time.Now()
	records, err := d.lookup(ctx, recordType, task.Target)
	duration := time.Since(start)

	if errors.Is(err, errUnsupportedRecord) {
		return task.Result(domain.StateUnknown, fmt.Sprintf("DNS UNKNOWN - %v", err))
	}
	if err != nil {
		return task.Result(domain.StateCritical, fmt.Sprintf("DNS CRITICAL - %s %s: %v", task.Target, recordType, err))
	}
	if len(records) == 0 {
		return task.Result(domain.StateCritical, fmt.Sprintf("DNS CRITICAL - %s has no %s records", task.Target, recordType))
	}

	if expect := stringParam(task.Parameters, "expect", ""); expect != "" && !slices.Contains(records, expect) {
		return task.Result(domain.StateCritical,
			fmt.Sprintf("DNS CRITICAL - %s %s returned %s, expected %s", task.Target, recordType, strings.Join(records, ","), expect))
	}

	state := thresholdState(task.Parameters, duration)
	msg := fmt.Sprintf("DNS %s - %s %s %s in %s|time=%.6fs",
		state, task.Target, recordType, strings.Join(records, ","), formatMilliseconds(duration), duration.Seconds())

	return task.Result(state, msg)
}

func (d *DNSChecker) lookup(ctx context.Context, recordType domain.DNSRecordType, name string) ([]string, error) {
	var records []string

	switch recordType {
	case domain.DNSRecordA, domain.DNSRecordAAAA:
		addrs, err := d.resolver.LookupIPAddr(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, a := range addrs {
			v4 := a.IP.To4() != nil
			if v4 == (recordType == domain.DNSRecordA) {
				records = append(records, a.IP.String())
			}
		}
	case domain.DNSRecordMX:
		mxs, err := d.resolver.LookupMX(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, mx := range mxs {
			records = append(records, strings.TrimSuffix(mx.Host, "."))
		}
	case domain.DNSRecordNS:
		nss, err := d.resolver.LookupNS(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, ns := range nss {
			records = append(records, strings.TrimSuffix(ns.Host, "."))
		}
	case domain.DNSRecordTXT:
		txts, err := d.resolver.LookupTXT(ctx, name)
		if err != nil {
			return nil, err
		}
		records = txts
	default:
		return nil, fmt.Errorf("%w %q", errUnsupportedRecord, recordType)
	}

	return records, nil
}

func (d *DNSChecker) Type() domain.TaskType {
	return domain.TaskTypeDNS
}
