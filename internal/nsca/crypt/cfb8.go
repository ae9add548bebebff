package crypt

import "crypto/cipher"

// cfb8 is cipher feedback mode with an 8-bit shift, the "cfb" mode of
// libmcrypt. Each output byte costs one block encryption.
type cfb8 struct {
	block    cipher.Block
	register []byte
	out      []byte
	decrypt  bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) cipher.Stream {
	if len(iv) != block.BlockSize() {
		panic("crypt: IV length must equal block size")
	}

	register := make([]byte, len(iv))
	copy(register, iv)

	return &cfb8{
		block:    block,
		register: register,
		out:      make([]byte, len(iv)),
		decrypt:  decrypt,
	}
}

// NewCFB8Encrypter returns a stream that encrypts with 8-bit CFB.
func NewCFB8Encrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, false)
}

// NewCFB8Decrypter returns a stream that decrypts with 8-bit CFB.
func NewCFB8Decrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, true)
}

func (x *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("crypt: output smaller than input")
	}

	last := len(x.register) - 1
	for i, in := range src {
		x.block.Encrypt(x.out, x.register)
		c := in ^ x.out[0]
		dst[i] = c

		copy(x.register, x.register[1:])
		if x.decrypt {
			x.register[last] = in
		} else {
			x.register[last] = c
		}
	}
}
