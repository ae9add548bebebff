package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	err := NewError(KindConnection, "dial", io.EOF)

	assert.ErrorIs(t, err, ErrConnection)
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrProtocol)

	wrapped := fmt.Errorf("send: %w", err)
	assert.ErrorIs(t, wrapped, ErrConnection)
	assert.Equal(t, KindConnection, KindOf(wrapped))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "protocol error: read handshake: unexpected EOF",
		NewError(KindProtocol, "read handshake", io.ErrUnexpectedEOF).Error())
	assert.Equal(t, "encryption error", ErrEncryption.Error())
}
