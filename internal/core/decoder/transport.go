package decoder

import (
	"encoding/binary"

	"github.com/sniffkit/sniffd/internal/core"
)

const (
	tcpHeaderMinLen = 20
	udpHeaderLen    = 8
	icmpHeaderLen   = 8
)

// decodeTCP decodes the TCP base header. The returned length includes
// any options (data offset nibble * 4). Returns nil and 0 on
// insufficient bytes.
func decodeTCP(data []byte) (*core.TCPHeader, int) {
	if len(data) < tcpHeaderMinLen {
		return nil, 0
	}

	headerLen := int(data[12]>>4) * 4 // Data offset is in 32-bit words
	if headerLen < tcpHeaderMinLen {
		return nil, 0
	}

	tcp := &core.TCPHeader{
		SrcPort:    binary.BigEndian.Uint16(data[0:2]),
		DstPort:    binary.BigEndian.Uint16(data[2:4]),
		Seq:        binary.BigEndian.Uint32(data[4:8]),
		Ack:        binary.BigEndian.Uint32(data[8:12]),
		DataOffset: uint8(headerLen),
		Reserved:   data[12] & 0x0F,
		Flags:      data[13],
		Window:     binary.BigEndian.Uint16(data[14:16]),
		Checksum:   binary.BigEndian.Uint16(data[16:18]),
		Urgent:     binary.BigEndian.Uint16(data[18:20]),
	}
	tcp.FlagsStr = core.TCPFlagsString(tcp.Flags)

	return tcp, headerLen
}

// decodeUDP decodes the fixed 8-byte UDP header.
func decodeUDP(data []byte) (*core.UDPHeader, int) {
	if len(data) < udpHeaderLen {
		return nil, 0
	}

	udp := &core.UDPHeader{
		SrcPort:  binary.BigEndian.Uint16(data[0:2]),
		DstPort:  binary.BigEndian.Uint16(data[2:4]),
		Length:   binary.BigEndian.Uint16(data[4:6]),
		Checksum: binary.BigEndian.Uint16(data[6:8]),
	}

	return udp, udpHeaderLen
}

// decodeICMP decodes the fixed 8-byte ICMP header prefix. The checksum
// is extracted, never validated.
func decodeICMP(data []byte) (*core.ICMPHeader, int) {
	if len(data) < icmpHeaderLen {
		return nil, 0
	}

	icmp := &core.ICMPHeader{
		Type:     data[0],
		Code:     data[1],
		Checksum: binary.BigEndian.Uint16(data[2:4]),
	}
	icmp.TypeName = core.ICMPTypeName(icmp.Type)

	return icmp, icmpHeaderLen
}
