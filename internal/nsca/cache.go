package nsca

import (
	"crypto/sha256"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"ozzus/nsca-agent/internal/nsca/crypt"
)

// CacheKey identifies a client configuration. The password is kept only as
// a SHA-256 digest.
type CacheKey struct {
	Address      string
	Encryption   crypt.Cipher
	PasswordHash [sha256.Size]byte
}

// KeyFor derives the cache key of cfg.
func KeyFor(cfg Config) (CacheKey, error) {
	addr, err := ParseAddress(cfg.Address)
	if err != nil {
		return CacheKey{}, err
	}
	return CacheKey{
		Address:      addr,
		Encryption:   cfg.Encryption,
		PasswordHash: sha256.Sum256([]byte(cfg.Password)),
	}, nil
}

// Cache holds clients keyed by address, encryption method and password,
// evicting the least recently used beyond its size. Timeouts are not part
// of the key: the first configuration stored for a key wins.
type Cache struct {
	mu    sync.Mutex
	items *lru.Cache
	opts  []Option
}

// NewCache returns a cache of at most size clients. opts are applied to
// every client it creates.
func NewCache(size int, opts ...Option) (*Cache, error) {
	items, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("nsca: create client cache: %w", err)
	}
	return &Cache{items: items, opts: opts}, nil
}

// GetOrCreate returns the cached client for cfg, creating and storing one
// only when none exists. created reports whether New was called. A failed
// creation stores nothing.
func (c *Cache) GetOrCreate(cfg Config) (client *Client, created bool, err error) {
	key, err := KeyFor(cfg)
	if err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.items.Get(key); ok {
		return v.(*Client), false, nil
	}

	client, err = New(cfg, c.opts...)
	if err != nil {
		return nil, false, err
	}
	c.items.Add(key, client)

	return client, true, nil
}

// Len returns the number of cached clients.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Purge drops every cached client.
func (c *Cache) Purge() {
	c.items.Purge()
}
