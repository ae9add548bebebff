package sendnsca

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/nsca-agent/internal/domain"
	"ozzus/nsca-agent/internal/nsca/crypt"
	"ozzus/nsca-agent/internal/nsca/nscatest"
)

func hostPort(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	return host, port
}

func TestRunSendsEachLine(t *testing.T) {
	provider, err := crypt.Resolve(crypt.XOR, "secret")
	require.NoError(t, err)
	srv := nscatest.NewServer(t, provider)
	host, port := hostPort(t, srv.Addr())

	cfg := writeFile(t, "send_nsca.cfg", "password=secret\nencryption_method=1\n")
	stdin := strings.NewReader("example-server\texample-service\t0\tpotato\n\nexample-server\t2\tdown\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-H", host, "-p", port, "-c", cfg}, stdin, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "2 data packet(s) sent to host successfully.\n", stdout.String())

	first := srv.Next(t, 2*time.Second)
	require.NoError(t, first.Err)
	second := srv.Next(t, 2*time.Second)
	require.NoError(t, second.Err)

	got := []domain.CheckResult{first.Packet.Result, second.Packet.Result}
	assert.ElementsMatch(t, []domain.CheckResult{
		{Host: "example-server", Service: "example-service", ReturnCode: domain.StateOK, Message: "potato"},
		{Host: "example-server", ReturnCode: domain.HostDown, Message: "down"},
	}, got)
	assert.Equal(t, 2, srv.Accepted())
}

func TestRunReportsBadLines(t *testing.T) {
	srv := nscatest.NewServer(t, crypt.NoneProvider{})
	host, port := hostPort(t, srv.Addr())

	stdin := strings.NewReader("web;http;0;fine\nnot a result\nweb;http;9;bad code\n")

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"--host", host, "--port", port, "-d", ";"}, stdin, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, "1 data packet(s) sent to host successfully.\n", stdout.String())
	assert.Contains(t, stderr.String(), "line 2")
	assert.Contains(t, stderr.String(), "line 3")
}

func TestRunConnectionFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := hostPort(t, ln.Addr().String())
	require.NoError(t, ln.Close())

	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"-H", host, "-p", port, "-t", "1"},
		strings.NewReader("web\thttp\t0\tok\n"), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "0 data packet(s)")
	assert.Contains(t, stderr.String(), "connection error")
}

func TestRunConfigErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer

	code := Run(context.Background(), []string{"-H", "localhost", "-e", "serpent"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "encryption_unavailable")

	stderr.Reset()
	code = Run(context.Background(), []string{"-H", "localhost", "-e", "3des"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code, "block ciphers need a password")

	code = Run(context.Background(), []string{"--bogus"}, strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRunListCiphers(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), []string{"--list-ciphers"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "blowfish")
	assert.NotContains(t, stdout.String(), "serpent")
}
