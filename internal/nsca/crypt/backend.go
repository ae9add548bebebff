package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"fmt"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/cast5"
	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"

	"ozzus/nsca-agent/internal/domain"
)

// Backend builds block-cipher providers for the methods it implements.
type Backend interface {
	Name() string
	Supports(c Cipher) bool
	NewProvider(c Cipher, password string) (Provider, error)
}

type blockFactory func(key []byte) (cipher.Block, error)

type blockBackend struct {
	name      string
	factories map[Cipher]blockFactory
}

// StandardBackend covers DES and 3DES from the Go standard library, the
// two methods every daemon build supports.
func StandardBackend() Backend {
	return &blockBackend{
		name: "standard",
		factories: map[Cipher]blockFactory{
			DES:       des.NewCipher,
			TripleDES: des.NewTripleDESCipher,
		},
	}
}

// ExtendedBackend adds the methods with a Go implementation in
// golang.org/x/crypto.
func ExtendedBackend() Backend {
	return &blockBackend{
		name: "extended",
		factories: map[Cipher]blockFactory{
			DES:         des.NewCipher,
			TripleDES:   des.NewTripleDESCipher,
			CAST128:     func(k []byte) (cipher.Block, error) { return cast5.NewCipher(k) },
			XTEA:        func(k []byte) (cipher.Block, error) { return xtea.NewCipher(k) },
			Blowfish:    func(k []byte) (cipher.Block, error) { return blowfish.NewCipher(k) },
			Twofish:     func(k []byte) (cipher.Block, error) { return twofish.NewCipher(k) },
			Rijndael128: aes.NewCipher,
		},
	}
}

func (b *blockBackend) Name() string { return b.name }

func (b *blockBackend) Supports(c Cipher) bool {
	_, ok := b.factories[c]
	return ok
}

func (b *blockBackend) NewProvider(c Cipher, password string) (Provider, error) {
	op := b.name + " backend"

	factory, ok := b.factories[c]
	if !ok {
		return nil, domain.NewError(domain.KindEncryptionUnavailable, op, fmt.Errorf("%s not supported", c))
	}
	if password == "" {
		return nil, domain.NewError(domain.KindEncryption, op, fmt.Errorf("%s requires a password", c))
	}

	p, _ := Lookup(c)
	block, err := factory(deriveKey(password, p.KeySize))
	if err != nil {
		return nil, domain.NewError(domain.KindEncryption, op, err)
	}

	return newBlockProvider(c, p, block)
}
