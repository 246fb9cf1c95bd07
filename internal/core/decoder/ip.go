package decoder

import (
	"encoding/binary"
	"net/netip"

	"github.com/sniffkit/sniffd/internal/core"
)

const (
	ipv4HeaderMinLen = 20
	ipv6HeaderLen    = 40
)

// decodeIPv4 decodes the variable-length IPv4 header.
// Returns nil and 0 on insufficient bytes or a non-v4 version nibble.
func decodeIPv4(data []byte) (*core.IPv4Header, int) {
	if len(data) < ipv4HeaderMinLen {
		return nil, 0
	}

	version := data[0] >> 4
	ihl := int(data[0]&0x0F) * 4 // IHL is in 32-bit words
	if version != 4 || ihl < ipv4HeaderMinLen || len(data) < ihl {
		return nil, 0
	}

	flagsFrag := binary.BigEndian.Uint16(data[6:8])

	ip := &core.IPv4Header{
		Version:        version,
		IHL:            uint8(ihl),
		TOS:            data[1],
		TotalLength:    binary.BigEndian.Uint16(data[2:4]),
		Identification: binary.BigEndian.Uint16(data[4:6]),
		Flags:          uint8(flagsFrag >> 13),
		FragmentOffset: flagsFrag & 0x1FFF,
		TTL:            data[8],
		Protocol:       data[9],
		Checksum:       binary.BigEndian.Uint16(data[10:12]),
	}
	ip.ProtocolName = core.ProtoName(ip.Protocol)

	src, _ := netip.AddrFromSlice(data[12:16])
	dst, _ := netip.AddrFromSlice(data[16:20])
	ip.SrcIP = src.String()
	ip.DstIP = dst.String()

	return ip, ihl
}

// decodeIPv6 decodes the fixed 40-byte IPv6 header. The next-header
// chain is not followed; the transport layer is assumed to start at
// offset 40. Returns nil and 0 on insufficient bytes.
func decodeIPv6(data []byte) (*core.IPv6Header, int) {
	if len(data) < ipv6HeaderLen {
		return nil, 0
	}

	firstWord := binary.BigEndian.Uint32(data[0:4])
	version := uint8(firstWord >> 28)
	if version != 6 {
		return nil, 0
	}

	ip := &core.IPv6Header{
		Version:       version,
		TrafficClass:  uint8(firstWord >> 20),
		FlowLabel:     firstWord & 0xFFFFF,
		PayloadLength: binary.BigEndian.Uint16(data[4:6]),
		NextHeader:    data[6],
		HopLimit:      data[7],
	}

	src, _ := netip.AddrFromSlice(data[8:24])
	dst, _ := netip.AddrFromSlice(data[24:40])
	ip.SrcIP = src.String()
	ip.DstIP = dst.String()

	return ip, ipv6HeaderLen
}
