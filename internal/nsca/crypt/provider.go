package crypt

import (
	"crypto/cipher"
	"fmt"

	"ozzus/nsca-agent/internal/domain"
)

// Provider transforms a complete wire record using the handshake IV. A
// Provider is built once per client configuration and is safe for
// concurrent use; no state carries over between calls.
type Provider interface {
	// Cipher returns the method id this provider implements.
	Cipher() Cipher

	// IVLength is the number of handshake IV bytes the cipher consumes.
	IVLength() int

	// Supports reports whether the provider implements c.
	Supports(c Cipher) bool

	// Encrypt returns the ciphertext of record, which has the same length.
	// iv is the full handshake IV; the provider truncates it as needed.
	Encrypt(record, iv []byte) ([]byte, error)

	// Decrypt inverts Encrypt.
	Decrypt(ciphertext, iv []byte) ([]byte, error)
}

// NoneProvider sends records in the clear.
type NoneProvider struct{}

func (NoneProvider) Cipher() Cipher { return None }
func (NoneProvider) IVLength() int { return 0 }
func (NoneProvider) Supports(c Cipher) bool { return c == None }

func (NoneProvider) Encrypt(record, _ []byte) ([]byte, error) {
	return append([]byte(nil), record...), nil
}

func (NoneProvider) Decrypt(ciphertext, _ []byte) ([]byte, error) {
	return append([]byte(nil), ciphertext...), nil
}

// XORProvider is the daemon's "simple XOR" method: the record is XORed with
// the full handshake IV, then with the password, each repeated cyclically.
// An empty password skips the second pass.
type XORProvider struct {
	password []byte
}

// NewXORProvider returns the XOR method keyed by password.
func NewXORProvider(password string) *XORProvider {
	return &XORProvider{password: []byte(password)}
}

func (p *XORProvider) Cipher() Cipher { return XOR }
func (p *XORProvider) Supports(c Cipher) bool { return c == XOR }

// IVLength is the handshake IV length; XOR never truncates it.
func (p *XORProvider) IVLength() int { return 128 }

func (p *XORProvider) Encrypt(record, iv []byte) ([]byte, error) {
	if len(iv) == 0 {
		return nil, domain.NewError(domain.KindEncryption, "xor", fmt.Errorf("empty IV"))
	}

	out := make([]byte, len(record))
	for i := range record {
		out[i] = record[i] ^ iv[i%len(iv)]
	}
	if len(p.password) > 0 {
		for i := range out {
			out[i] ^= p.password[i%len(p.password)]
		}
	}

	return out, nil
}

// Decrypt is Encrypt; both passes are self-inverse.
func (p *XORProvider) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	return p.Encrypt(ciphertext, iv)
}

// BlockProvider runs a block cipher in 8-bit CFB mode over the record.
type BlockProvider struct {
	cipher Cipher
	ivLen  int
	block  cipher.Block
}

func newBlockProvider(c Cipher, p Params, block cipher.Block) (*BlockProvider, error) {
	if p.IVSize == 0 || block.BlockSize() != p.IVSize {
		return nil, domain.NewError(domain.KindEncryption, "init "+c.String(),
			fmt.Errorf("cannot determine IV length: block size %d, table %d", block.BlockSize(), p.IVSize))
	}

	return &BlockProvider{cipher: c, ivLen: p.IVSize, block: block}, nil
}

func (p *BlockProvider) Cipher() Cipher { return p.cipher }
func (p *BlockProvider) IVLength() int { return p.ivLen }
func (p *BlockProvider) Supports(c Cipher) bool { return c == p.cipher }

func (p *BlockProvider) Encrypt(record, iv []byte) ([]byte, error) {
	return p.crypt(record, iv, false)
}

func (p *BlockProvider) Decrypt(ciphertext, iv []byte) ([]byte, error) {
	return p.crypt(ciphertext, iv, true)
}

func (p *BlockProvider) crypt(in, iv []byte, decrypt bool) ([]byte, error) {
	if len(iv) < p.ivLen {
		return nil, domain.NewError(domain.KindEncryption, p.cipher.String(),
			fmt.Errorf("IV is %d bytes, need %d", len(iv), p.ivLen))
	}

	out := make([]byte, len(in))
	newCFB8(p.block, iv[:p.ivLen], decrypt).XORKeyStream(out, in)

	return out, nil
}
