package crypt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCipher(t *testing.T) {
	tests := []struct {
		in   string
		want Cipher
	}{
		{"", None},
		{"0", None},
		{"none", None},
		{"1", XOR},
		{"xor", XOR},
		{"3", TripleDES},
		{"3DES", TripleDES},
		{"triple-des", TripleDES},
		{"des", DES},
		{"8", Blowfish},
		{"blowfish", Blowfish},
		{"rijndael-128", Rijndael128},
		{"aes", Rijndael128},
		{"cast_128", CAST128},
		{"26", SAFERPlus},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCipher(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCipherUnknown(t *testing.T) {
	for _, in := range []string{"13", "99", "-1", "rot13"} {
		_, err := ParseCipher(in)
		assert.Error(t, err, in)
	}
}

func TestCipherTable(t *testing.T) {
	// IV lengths the daemon derives from its 128-byte handshake IV.
	want := map[Cipher]int{
		DES:         8,
		TripleDES:   8,
		CAST128:     8,
		CAST256:     16,
		XTEA:        8,
		ThreeWay:    12,
		Blowfish:    8,
		Twofish:     16,
		LOKI97:      16,
		RC2:         8,
		Rijndael128: 16,
		Rijndael192: 24,
		Rijndael256: 32,
		Serpent:     16,
		GOST:        8,
		SAFER64:     8,
		SAFER128:    8,
		SAFERPlus:   16,
	}
	for c, iv := range want {
		p, ok := Lookup(c)
		require.True(t, ok, c.String())
		assert.Equal(t, iv, p.IVSize, c.String())
	}

	assert.Len(t, Known(), 23)
	assert.Equal(t, "3des", TripleDES.String())
	assert.Equal(t, "cipher(13)", Cipher(13).String())
}

func TestDeriveKey(t *testing.T) {
	assert.Equal(t, []byte{'a', 'b', 0, 0}, deriveKey("ab", 4))
	assert.Equal(t, []byte("abcd"), deriveKey("abcdefgh", 4))
}
