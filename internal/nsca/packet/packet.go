// Package packet implements the NSCA version 3 wire format: the 132-byte
// handshake a daemon sends on accept and the fixed 720-byte check record
// the client answers with.
package packet

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"ozzus/nsca-agent/internal/domain"
)

const (
	// Version is the only protocol version this package speaks.
	Version = 3

	// IVSize is the length of the IV in the handshake.
	IVSize = 128

	// HandshakeSize is IV plus a big-endian uint32 timestamp.
	HandshakeSize = IVSize + 4

	// RecordSize is the length of every encoded check record.
	RecordSize = 720

	HostSize    = domain.MaxHostLength + 1
	ServiceSize = domain.MaxServiceLength + 1
	MessageSize = domain.MaxMessageLength + 1
)

// Record layout, all integers big endian:
//
//	0    2   version
//	2    2   reserved
//	4    4   crc32
//	8    4   timestamp
//	12   2   return code
//	14   64  host
//	78   128 service
//	206  512 message
//	718  2   reserved
const (
	offVersion   = 0
	offCRC       = 4
	offTimestamp = 8
	offCode      = 12
	offHost      = 14
	offService   = offHost + HostSize
	offMessage   = offService + ServiceSize
	offTrailer   = offMessage + MessageSize
)

var errShortRecord = errors.New("record is not 720 bytes")

// Handshake is the material a daemon sends right after accepting a
// connection. The client echoes Timestamp and derives its cipher IV from IV.
type Handshake struct {
	IV        [IVSize]byte
	Timestamp uint32
}

// ReadHandshake reads exactly HandshakeSize bytes from r. A stream that ends
// early is a protocol error; any other read failure is a connection error.
func ReadHandshake(r io.Reader) (Handshake, error) {
	var (
		hs  Handshake
		buf [HandshakeSize]byte
	)

	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return hs, domain.NewError(domain.KindProtocol, "read handshake", err)
		}
		return hs, domain.NewError(domain.KindConnection, "read handshake", err)
	}

	copy(hs.IV[:], buf[:IVSize])
	hs.Timestamp = binary.BigEndian.Uint32(buf[IVSize:])

	return hs, nil
}

// WriteHandshake writes hs the way a daemon does.
func WriteHandshake(w io.Writer, hs Handshake) error {
	var buf [HandshakeSize]byte
	copy(buf[:IVSize], hs.IV[:])
	binary.BigEndian.PutUint32(buf[IVSize:], hs.Timestamp)

	_, err := w.Write(buf[:])
	return err
}

// Encode validates r and packs it into a RecordSize record stamped with the
// daemon's timestamp. The unused tail of every text field is filled from
// rnd (crypto/rand when nil) so that no long run of known plaintext reaches
// the cipher. Identical inputs, including the bytes read from rnd, always
// yield an identical record.
func Encode(r domain.CheckResult, timestamp uint32, rnd io.Reader) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if rnd == nil {
		rnd = rand.Reader
	}

	rec := make([]byte, RecordSize)
	binary.BigEndian.PutUint16(rec[offVersion:], Version)
	binary.BigEndian.PutUint32(rec[offTimestamp:], timestamp)
	binary.BigEndian.PutUint16(rec[offCode:], uint16(r.ReturnCode))

	if err := fillField(rec[offHost:offService], r.Host, rnd); err != nil {
		return nil, err
	}
	if err := fillField(rec[offService:offMessage], r.Service, rnd); err != nil {
		return nil, err
	}
	if err := fillField(rec[offMessage:offTrailer], r.Message, rnd); err != nil {
		return nil, err
	}

	// The crc slot is still zero here, which is exactly the checksum layout.
	binary.BigEndian.PutUint32(rec[offCRC:], crc32.ChecksumIEEE(rec))

	return rec, nil
}

func fillField(field []byte, value string, rnd io.Reader) error {
	n := copy(field, value)
	field[n] = 0
	if _, err := io.ReadFull(rnd, field[n+1:]); err != nil {
		return fmt.Errorf("read field padding: %w", err)
	}
	return nil
}

// Checksum computes the CRC32 of record with its checksum slot zeroed.
func Checksum(record []byte) (uint32, error) {
	if len(record) != RecordSize {
		return 0, errShortRecord
	}

	var buf [RecordSize]byte
	copy(buf[:], record)
	binary.BigEndian.PutUint32(buf[offCRC:], 0)

	return crc32.ChecksumIEEE(buf[:]), nil
}

// Packet is a decoded plaintext record.
type Packet struct {
	Version   uint16
	CRC       uint32
	Timestamp uint32
	Result    domain.CheckResult
}

// Decode parses a plaintext record and verifies its version and checksum.
func Decode(record []byte) (Packet, error) {
	const op = "decode record"

	if len(record) != RecordSize {
		return Packet{}, domain.NewError(domain.KindProtocol, op, errShortRecord)
	}

	p := Packet{
		Version:   binary.BigEndian.Uint16(record[offVersion:]),
		CRC:       binary.BigEndian.Uint32(record[offCRC:]),
		Timestamp: binary.BigEndian.Uint32(record[offTimestamp:]),
	}
	if p.Version != Version {
		return Packet{}, domain.NewError(domain.KindProtocol, op, fmt.Errorf("unsupported version %d", p.Version))
	}

	sum, _ := Checksum(record)
	if sum != p.CRC {
		return Packet{}, domain.NewError(domain.KindProtocol, op, fmt.Errorf("checksum mismatch: record %08x, computed %08x", p.CRC, sum))
	}

	p.Result = domain.CheckResult{
		Host:       cString(record[offHost:offService]),
		Service:    cString(record[offService:offMessage]),
		ReturnCode: domain.ReturnCode(binary.BigEndian.Uint16(record[offCode:])),
		Message:    cString(record[offMessage:offTrailer]),
	}

	return p, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
