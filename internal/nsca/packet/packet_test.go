package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"math/rand"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/nsca-agent/internal/domain"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func exampleResult() domain.CheckResult {
	return domain.CheckResult{
		Host:       "example-server",
		Service:    "example-service",
		ReturnCode: domain.StateOK,
		Message:    "potato",
	}
}

func TestEncodeExampleLayout(t *testing.T) {
	rec, err := Encode(exampleResult(), 0x5f5e1000, seeded(1))
	require.NoError(t, err)
	require.Len(t, rec, RecordSize)

	assert.Equal(t, []byte{0x00, 0x03}, rec[0:2])
	assert.Equal(t, []byte{0x00, 0x00}, rec[2:4])
	assert.Equal(t, uint32(0x5f5e1000), binary.BigEndian.Uint32(rec[8:12]))
	assert.Equal(t, []byte{0x00, 0x00}, rec[12:14])
	assert.Equal(t, append([]byte("example-server"), 0), rec[14:29])
	assert.Equal(t, append([]byte("example-service"), 0), rec[78:94])
	assert.Equal(t, append([]byte("potato"), 0), rec[206:213])
	assert.Equal(t, []byte{0x00, 0x00}, rec[718:720])
}

func TestEncodeIsReproducible(t *testing.T) {
	a, err := Encode(exampleResult(), 42, seeded(7))
	require.NoError(t, err)
	b, err := Encode(exampleResult(), 42, seeded(7))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Encode(exampleResult(), 42, seeded(8))
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "different padding source should change the record")
}

func TestEncodePadsWithRandomBytes(t *testing.T) {
	rec, err := Encode(exampleResult(), 1, bytes.NewReader(bytes.Repeat([]byte{0xAB}, RecordSize)))
	require.NoError(t, err)

	// host "example-server" is 14 bytes, NUL at 28, padding from 29 to 77
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 78-29), rec[29:78])
}

func TestChecksumMatchesEmbeddedValue(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		rec, err := Encode(exampleResult(), uint32(seed*1000), seeded(seed))
		require.NoError(t, err)

		sum, err := Checksum(rec)
		require.NoError(t, err)
		assert.Equal(t, binary.BigEndian.Uint32(rec[4:8]), sum)
	}
}

func TestChecksumLayoutKeepsVersion(t *testing.T) {
	rec, err := Encode(exampleResult(), 99, seeded(3))
	require.NoError(t, err)

	buf := append([]byte(nil), rec...)
	copy(buf[4:8], []byte{0, 0, 0, 0})
	assert.Equal(t, []byte{0x00, 0x03}, buf[0:2])
	assert.Equal(t, crc32.ChecksumIEEE(buf), binary.BigEndian.Uint32(rec[4:8]))
}

func TestEncodeHostCheckDiffersOnWire(t *testing.T) {
	host := exampleResult()
	host.Service = ""

	hostRec, err := Encode(host, 1, seeded(1))
	require.NoError(t, err)
	svcRec, err := Encode(exampleResult(), 1, seeded(1))
	require.NoError(t, err)

	assert.Equal(t, byte(0), hostRec[78], "host check starts service field with NUL")
	assert.NotEqual(t, byte(0), svcRec[78])

	p, err := Decode(hostRec)
	require.NoError(t, err)
	assert.True(t, p.Result.IsHostCheck())
}

func TestEncodeRejectsInvalidResults(t *testing.T) {
	tests := []struct {
		name   string
		result domain.CheckResult
	}{
		{"empty host", domain.CheckResult{}},
		{"host 64 bytes", domain.CheckResult{Host: strings.Repeat("h", 64)}},
		{"service 128 bytes", domain.CheckResult{Host: "h", Service: strings.Repeat("s", 128)}},
		{"message 512 bytes", domain.CheckResult{Host: "h", Message: strings.Repeat("m", 512)}},
		{"return code 4", domain.CheckResult{Host: "h", ReturnCode: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Encode(tt.result, 1, seeded(1))
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestEncodeMaximumFields(t *testing.T) {
	r := domain.CheckResult{
		Host:       strings.Repeat("h", domain.MaxHostLength),
		Service:    strings.Repeat("s", domain.MaxServiceLength),
		ReturnCode: domain.StateUnknown,
		Message:    strings.Repeat("m", domain.MaxMessageLength),
	}

	rec, err := Encode(r, 1, seeded(1))
	require.NoError(t, err)
	require.Len(t, rec, RecordSize)

	p, err := Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, r, p.Result)
}

func TestDecodeRoundTrip(t *testing.T) {
	rec, err := Encode(exampleResult(), 1234, seeded(5))
	require.NoError(t, err)

	p, err := Decode(rec)
	require.NoError(t, err)
	assert.Equal(t, uint16(Version), p.Version)
	assert.Equal(t, uint32(1234), p.Timestamp)
	assert.Equal(t, exampleResult(), p.Result)
}

func TestDecodeRejectsCorruption(t *testing.T) {
	rec, err := Encode(exampleResult(), 1234, seeded(5))
	require.NoError(t, err)

	rec[300] ^= 0xFF
	_, err = Decode(rec)
	assert.ErrorIs(t, err, domain.ErrProtocol)

	_, err = Decode(rec[:100])
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestReadHandshake(t *testing.T) {
	var want Handshake
	for i := range want.IV {
		want.IV[i] = byte(i)
	}
	want.Timestamp = uint32(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix())

	var buf bytes.Buffer
	require.NoError(t, WriteHandshake(&buf, want))
	assert.Equal(t, HandshakeSize, buf.Len())

	got, err := ReadHandshake(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadHandshakeShort(t *testing.T) {
	_, err := ReadHandshake(bytes.NewReader(make([]byte, 100)))
	assert.ErrorIs(t, err, domain.ErrProtocol)

	_, err = ReadHandshake(bytes.NewReader(nil))
	assert.ErrorIs(t, err, domain.ErrProtocol)
}

func TestReadHandshakeTimeoutIsConnectionError(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	require.NoError(t, client.SetReadDeadline(time.Now().Add(20*time.Millisecond)))
	_, err := ReadHandshake(client)
	assert.ErrorIs(t, err, domain.ErrConnection)

	var ne net.Error
	assert.True(t, errors.As(err, &ne) && ne.Timeout())
}
