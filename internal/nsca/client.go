// Package nsca submits passive check results to an NSCA daemon.
//
// Every Send opens its own TCP connection, reads the daemon's 132-byte
// handshake, writes one 720-byte record (encrypted when configured) and
// closes the connection. Nothing is retried; the caller owns retry policy
// and can tell failures apart with errors.Is against the domain.Err* kinds.
package nsca

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"ozzus/nsca-agent/internal/domain"
	"ozzus/nsca-agent/internal/nsca/crypt"
	"ozzus/nsca-agent/internal/nsca/packet"
)

const (
	DefaultPort           = 5667
	DefaultConnectTimeout = 15 * time.Second
	DefaultStreamTimeout  = 10 * time.Second
)

// Config is the connection and encryption setup of a Client.
type Config struct {
	// Address is "host" or "host:port"; the port defaults to 5667.
	Address string
	// Encryption is the daemon's encryption method, None by default.
	Encryption crypt.Cipher
	// Password keys the cipher. Block ciphers require it.
	Password string
	// ConnectTimeout bounds the TCP connect, 15s when zero.
	ConnectTimeout time.Duration
	// StreamTimeout bounds the handshake read and record write, 10s when zero.
	StreamTimeout time.Duration
}

// Dialer opens the TCP connection for a send. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Client sends check results to one daemon. Its configuration is immutable,
// so a Client is safe for concurrent use; concurrent sends never share a
// connection, buffer or IV.
type Client struct {
	addr           string
	cipher         crypt.Cipher
	provider       crypt.Provider
	connectTimeout time.Duration
	streamTimeout  time.Duration

	registry *crypt.Registry
	dialer   Dialer
	random   io.Reader
	log      *slog.Logger
}

// New validates cfg and resolves its cipher. Encryption problems surface
// here, before any connection is made.
func New(cfg Config, opts ...Option) (*Client, error) {
	addr, err := ParseAddress(cfg.Address)
	if err != nil {
		return nil, err
	}

	c := &Client{
		addr:           addr,
		cipher:         cfg.Encryption,
		connectTimeout: cfg.ConnectTimeout,
		streamTimeout:  cfg.StreamTimeout,
		registry:       crypt.Default(),
		log:            slog.New(slog.DiscardHandler),
	}
	if c.connectTimeout <= 0 {
		c.connectTimeout = DefaultConnectTimeout
	}
	if c.streamTimeout <= 0 {
		c.streamTimeout = DefaultStreamTimeout
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.dialer == nil {
		c.dialer = &net.Dialer{Timeout: c.connectTimeout}
	}

	c.provider, err = c.registry.Resolve(cfg.Encryption, cfg.Password)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Address returns the normalized host:port the client connects to.
func (c *Client) Address() string {
	return c.addr
}

// Cipher returns the configured encryption method.
func (c *Client) Cipher() crypt.Cipher {
	return c.cipher
}

// Send delivers one check result. A result that fails validation is
// rejected without touching the network. Once a connection is open it is
// closed on every path. Cancelling ctx aborts the blocking I/O.
func (c *Client) Send(ctx context.Context, r domain.CheckResult) (err error) {
	if err := r.Validate(); err != nil {
		return err
	}

	start := time.Now()

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.addr)
	cancel()
	if err != nil {
		return domain.NewError(domain.KindConnection, "connect to "+c.addr, err)
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = domain.NewError(domain.KindConnection, "close", cerr)
		}
	}()

	deadline := time.Now().Add(c.streamTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return domain.NewError(domain.KindConnection, "set deadline", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	hs, err := packet.ReadHandshake(conn)
	if err != nil {
		return c.ioError(ctx, "read handshake", err)
	}

	record, err := packet.Encode(r, hs.Timestamp, c.random)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	payload, err := c.provider.Encrypt(record, hs.IV[:])
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewError(domain.KindEncryption, c.cipher.String(), err)
		}
		return err
	}

	n, err := conn.Write(payload)
	if err != nil {
		return c.ioError(ctx, "write record", err)
	}
	if n != len(payload) {
		return domain.NewError(domain.KindConnection, "write record", io.ErrShortWrite)
	}

	c.log.Debug("check result sent",
		"addr", c.addr,
		"host", r.Host,
		"service", r.Service,
		"state", r.ReturnCode.String(),
		"encryption", c.cipher.String(),
		"duration", time.Since(start),
	)

	return nil
}

// ioError reports cancellation as the cause when ctx ended the exchange.
func (c *Client) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NewError(domain.KindConnection, op, ctxErr)
	}
	if domain.KindOf(err) != "" {
		return err
	}
	return domain.NewError(domain.KindConnection, op, err)
}
