package nsca

import (
	"io"
	"log/slog"
	"sync"

	"ozzus/nsca-agent/internal/nsca/crypt"
)

// Option customizes a Client.
type Option func(*Client)

// WithRegistry resolves the cipher through r instead of crypt.Default().
func WithRegistry(r *crypt.Registry) Option {
	return func(c *Client) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithDialer replaces the TCP dialer.
func WithDialer(d Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithLogger sets the debug logger; the client is silent by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRandom sets the source of field padding, crypto/rand by default.
// Reads are serialized, so any io.Reader works with concurrent sends.
func WithRandom(r io.Reader) Option {
	return func(c *Client) {
		if r != nil {
			c.random = &lockedReader{r: r}
		}
	}
}

type lockedReader struct {
	mu sync.Mutex
	r  io.Reader
}

func (l *lockedReader) Read(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Read(p)
}
