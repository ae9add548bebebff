// Package nscatest runs an in-process NSCA daemon for tests. It sends the
// handshake, reads one record per connection, decrypts and decodes it.
package nscatest

import (
	"bytes"
	"crypto/rand"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ozzus/nsca-agent/internal/nsca/crypt"
	"ozzus/nsca-agent/internal/nsca/packet"
)

// Submission is what the daemon received on one connection.
type Submission struct {
	Raw    []byte
	Plain  []byte
	Packet packet.Packet
	Err    error
}

// Server is a fake NSCA daemon listening on a loopback port.
type Server struct {
	ln        net.Listener
	provider  crypt.Provider
	handshake packet.Handshake
	sendBytes int
	readWait  time.Duration

	accepted atomic.Int64
	received chan Submission
	wg       sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithHandshake fixes the IV and timestamp sent to clients.
func WithHandshake(hs packet.Handshake) Option {
	return func(s *Server) { s.handshake = hs }
}

// WithHandshakeBytes truncates the handshake to n bytes and then closes
// the connection. Zero sends nothing and waits, stalling the client.
func WithHandshakeBytes(n int) Option {
	return func(s *Server) { s.sendBytes = n }
}

// NewServer starts a daemon that decrypts records with provider. It stops
// when the test ends.
func NewServer(t testing.TB, provider crypt.Provider, opts ...Option) *Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("nscatest: listen: %v", err)
	}

	s := &Server{
		ln:        ln,
		provider:  provider,
		sendBytes: packet.HandshakeSize,
		readWait:  5 * time.Second,
		received:  make(chan Submission, 128),
	}
	if _, err := rand.Read(s.handshake.IV[:]); err != nil {
		t.Fatalf("nscatest: iv: %v", err)
	}
	s.handshake.Timestamp = uint32(time.Now().Unix())

	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.serve()

	t.Cleanup(s.Close)
	return s
}

// Addr returns the host:port to send to.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Handshake returns the IV and timestamp the daemon sends.
func (s *Server) Handshake() packet.Handshake {
	return s.handshake
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Next waits for the next submission.
func (s *Server) Next(t testing.TB, timeout time.Duration) Submission {
	t.Helper()

	select {
	case sub := <-s.received:
		return sub
	case <-time.After(timeout):
		t.Fatalf("nscatest: no submission within %s", timeout)
		return Submission{}
	}
}

// Close stops the listener and waits for open connections to finish.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(s.readWait))

	var buf bytes.Buffer
	_ = packet.WriteHandshake(&buf, s.handshake)
	hs := buf.Bytes()

	switch {
	case s.sendBytes == 0:
		// Stall until the client gives up.
		_, _ = io.Copy(io.Discard, conn)
		return
	case s.sendBytes < packet.HandshakeSize:
		_, _ = conn.Write(hs[:s.sendBytes])
		return
	}

	if _, err := conn.Write(hs); err != nil {
		return
	}

	raw, err := io.ReadAll(conn)
	sub := Submission{Raw: raw, Err: err}
	if err == nil {
		sub.Plain, sub.Err = s.provider.Decrypt(raw, s.handshake.IV[:])
	}
	if sub.Err == nil {
		sub.Packet, sub.Err = packet.Decode(sub.Plain)
	}

	s.received <- sub
}
