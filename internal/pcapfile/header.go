// Package pcapfile implements the classic libpcap capture file format:
// one 24-byte global header followed by 16-byte record headers, each
// with its frame payload. Both endiannesses are supported on read,
// selected by the magic value.
package pcapfile

import (
	"encoding/binary"

	"github.com/sniffkit/sniffd/internal/core"
)

const (
	// Magic is the canonical little-endian magic number. A file whose
	// first four bytes decode to MagicSwapped was written by a
	// big-endian producer.
	Magic        = 0xa1b2c3d4
	MagicSwapped = 0xd4c3b2a1

	VersionMajor = 2
	VersionMinor = 4

	// LinkTypeEthernet is the only link type this tool produces.
	LinkTypeEthernet = 1

	GlobalHeaderLen = 24
	RecordHeaderLen = 16

	// DefaultSnaplen covers a full untagged Ethernet frame.
	DefaultSnaplen = 1518
)

// GlobalHeader is the 24-byte file header written once at file creation,
// before any record.
type GlobalHeader struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	ThisZone     int32  // GMT offset, always zero
	SigFigs      uint32 // Timestamp accuracy, unused
	Snaplen      uint32
	LinkType     uint32
}

// NewGlobalHeader returns a little-endian Ethernet header with the given
// snaplen.
func NewGlobalHeader(snaplen uint32) GlobalHeader {
	return GlobalHeader{
		Magic:        Magic,
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		Snaplen:      snaplen,
		LinkType:     LinkTypeEthernet,
	}
}

// Marshal encodes the header in the given byte order.
func (h GlobalHeader) Marshal(order binary.ByteOrder) []byte {
	buf := make([]byte, GlobalHeaderLen)
	order.PutUint32(buf[0:4], h.Magic)
	order.PutUint16(buf[4:6], h.VersionMajor)
	order.PutUint16(buf[6:8], h.VersionMinor)
	order.PutUint32(buf[8:12], uint32(h.ThisZone))
	order.PutUint32(buf[12:16], h.SigFigs)
	order.PutUint32(buf[16:20], h.Snaplen)
	order.PutUint32(buf[20:24], h.LinkType)
	return buf
}

// ParseGlobalHeader decodes a 24-byte global header. The magic selects
// the byte order for this header and every record that follows.
func ParseGlobalHeader(data []byte) (GlobalHeader, binary.ByteOrder, error) {
	if len(data) < GlobalHeaderLen {
		return GlobalHeader{}, nil, core.ErrShortHeader
	}

	var order binary.ByteOrder
	switch binary.LittleEndian.Uint32(data[0:4]) {
	case Magic:
		order = binary.LittleEndian
	case MagicSwapped:
		order = binary.BigEndian
	default:
		return GlobalHeader{}, nil, core.ErrBadMagic
	}

	h := GlobalHeader{
		Magic:        order.Uint32(data[0:4]),
		VersionMajor: order.Uint16(data[4:6]),
		VersionMinor: order.Uint16(data[6:8]),
		ThisZone:     int32(order.Uint32(data[8:12])),
		SigFigs:      order.Uint32(data[12:16]),
		Snaplen:      order.Uint32(data[16:20]),
		LinkType:     order.Uint32(data[20:24]),
	}
	return h, order, nil
}

// RecordHeader is the 16-byte per-frame header. Invariant: CapLen never
// exceeds the global header snaplen and OrigLen is at least CapLen.
type RecordHeader struct {
	TsSec   uint32
	TsUsec  uint32
	CapLen  uint32
	OrigLen uint32
}

// Marshal encodes the record header in the given byte order.
func (h RecordHeader) Marshal(order binary.ByteOrder) []byte {
	buf := make([]byte, RecordHeaderLen)
	order.PutUint32(buf[0:4], h.TsSec)
	order.PutUint32(buf[4:8], h.TsUsec)
	order.PutUint32(buf[8:12], h.CapLen)
	order.PutUint32(buf[12:16], h.OrigLen)
	return buf
}

// ParseRecordHeader decodes a 16-byte record header with the file's
// byte order.
func ParseRecordHeader(data []byte, order binary.ByteOrder) RecordHeader {
	return RecordHeader{
		TsSec:   order.Uint32(data[0:4]),
		TsUsec:  order.Uint32(data[4:8]),
		CapLen:  order.Uint32(data[8:12]),
		OrigLen: order.Uint32(data[12:16]),
	}
}
