package crypt

import (
	"fmt"

	"ozzus/nsca-agent/internal/domain"
)

// Registry resolves method ids to providers, trying its backends in order.
// It is read-only after construction.
type Registry struct {
	backends []Backend
}

// NewRegistry returns a registry that consults backends in the given order.
func NewRegistry(backends ...Backend) *Registry {
	return &Registry{backends: backends}
}

var defaultRegistry = NewRegistry(StandardBackend(), ExtendedBackend())

// Default returns the process-wide registry: the standard backend first,
// then the extended one.
func Default() *Registry {
	return defaultRegistry
}

// Resolve returns the provider for c. None and XOR need no backend. Any
// other id must be covered by some backend, otherwise the error is
// domain.ErrEncryptionUnavailable; a covered block cipher without a password
// fails with domain.ErrEncryption.
func (r *Registry) Resolve(c Cipher, password string) (Provider, error) {
	switch c {
	case None:
		return NoneProvider{}, nil
	case XOR:
		return NewXORProvider(password), nil
	}

	if !r.Supports(c) {
		return nil, domain.NewError(domain.KindEncryptionUnavailable, "resolve cipher",
			fmt.Errorf("no backend implements %s (method %d)", c, int(c)))
	}
	if password == "" {
		return nil, domain.NewError(domain.KindEncryption, "resolve cipher",
			fmt.Errorf("%s requires a password", c))
	}

	var lastErr error
	for _, b := range r.backends {
		if !b.Supports(c) {
			continue
		}
		p, err := b.NewProvider(c, password)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

// Supports reports whether Resolve can build a provider for c.
func (r *Registry) Supports(c Cipher) bool {
	if c == None || c == XOR {
		return true
	}
	for _, b := range r.backends {
		if b.Supports(c) {
			return true
		}
	}
	return false
}

// Supported lists every method id the registry can resolve.
func (r *Registry) Supported() []Cipher {
	var out []Cipher
	for _, c := range Known() {
		if r.Supports(c) {
			out = append(out, c)
		}
	}
	return out
}

// Resolve resolves c through the default registry.
func Resolve(c Cipher, password string) (Provider, error) {
	return defaultRegistry.Resolve(c, password)
}
