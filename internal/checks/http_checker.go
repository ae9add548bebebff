package checks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ozzus/nsca-agent/internal/domain"
)

type HTTPChecker struct {
	timeout time.Duration
	client  *http.Client
}

func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPChecker{
		timeout: timeout,
		client:  &http.Client{},
	}
}

// Check requests the target URL. Parameters: method, body, headers,
// expect_status, warning, critical. Without expect_status a 4xx answer is
// WARNING and a 5xx answer CRITICAL.
func (h *HTTPChecker) Check(ctx context.Context, task domain.Task) domain.CheckResult {
	parameters := task.Parameters
	method := strings.ToUpper(stringParam(parameters, "method", "GET"))
	body := stringParam(parameters, "body", "")

	resolvedURL, err := h.prepareURL(task.Target)
	if err != nil {
		return task.Result(domain.StateUnknown, fmt.Sprintf("HTTP UNKNOWN - invalid url: %v", err))
	}

	ctx, cancel := context.WithTimeout(ctx, taskTimeout(task, h.timeout))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, resolvedURL, strings.NewReader(body))
	if err != nil {
		return task.Result(domain.StateUnknown, fmt.Sprintf("HTTP UNKNOWN - %v", err))
	}

	if headers, ok := parameters["headers"].(map[string]interface{}); ok {
		for key, value := range headers {
			req.Header.Set(key, fmt.Sprintf("%v", value))
		}
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	duration := time.Since(start)

	if err != nil {
		return task.Result(domain.StateCritical, fmt.Sprintf("HTTP CRITICAL - %v", err))
	}
	defer resp.Body.Close()

	// Ensure body is fully read to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	state := statusState(resp.StatusCode, intParam(parameters, "expect_status", 0))
	state = worst(state, thresholdState(parameters, duration))

	msg := fmt.Sprintf("HTTP %s: %s - %s response time|time=%.6fs",
		state, resp.Status, formatSeconds(duration), duration.Seconds())

	return task.Result(state, msg)
}

func statusState(code, expect int) domain.ReturnCode {
	switch {
	case expect > 0 && code != expect:
		return domain.StateCritical
	case expect > 0:
		return domain.StateOK
	case code >= http.StatusInternalServerError:
		return domain.StateCritical
	case code >= http.StatusBadRequest:
		return domain.StateWarning
	}
	return domain.StateOK
}

func (h *HTTPChecker) prepareURL(target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty target")
	}

	if !strings.Contains(target, "://") {
		target = "http://" + target
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}

	return parsed.String(), nil
}

func (h *HTTPChecker) Type() domain.TaskType {
	return domain.TaskTypeHTTP
}
