// Package core defines the shared packet, frame and header types.
package core

import "fmt"

// RawFrame is one captured unit of link-layer data as delivered by the
// capture source. Immutable once created; owned by the capture engine
// until handed to a consumer.
type RawFrame struct {
	Seq     uint64 // Session sequence number, assigned at ingestion
	TsSec   uint32 // Capture timestamp, seconds
	TsUsec  uint32 // Capture timestamp, microseconds
	CapLen  uint32 // Captured length
	OrigLen uint32 // Original (untruncated) length
	Data    []byte // Raw frame bytes
}

// EthernetHeader represents the L2 Ethernet frame header.
type EthernetHeader struct {
	DstMAC        [6]byte
	SrcMAC        [6]byte
	EtherType     uint16 // Real ethertype after any VLAN tag
	EtherTypeName string
}

// IPv4Header represents the variable-length IPv4 header.
type IPv4Header struct {
	Version        uint8
	IHL            uint8 // Header length in bytes
	TOS            uint8
	TotalLength    uint16
	Identification uint16
	Flags          uint8  // 3-bit flags field
	FragmentOffset uint16 // 13-bit fragment offset
	TTL            uint8
	Protocol       uint8
	Checksum       uint16 // Extracted, never validated
	SrcIP          string
	DstIP          string
	ProtocolName   string
}

// IPv6Header represents the fixed 40-byte IPv6 header.
// Extension header chains are not followed.
type IPv6Header struct {
	Version       uint8
	TrafficClass  uint8
	FlowLabel     uint32
	PayloadLength uint16
	NextHeader    uint8
	HopLimit      uint8
	SrcIP         string
	DstIP         string
}

// TCPHeader represents the TCP base header including options length.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8 // Header length in bytes (offset nibble * 4)
	Reserved   uint8
	Flags      uint8
	Window     uint16
	Checksum   uint16
	Urgent     uint16
	FlagsStr   string // e.g. "[SYN,ACK]"
}

// UDPHeader represents the fixed 8-byte UDP header.
type UDPHeader struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
}

// ICMPHeader represents the fixed 8-byte ICMP header prefix.
type ICMPHeader struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	TypeName string
}

// ARPHeader represents the fixed 28-byte ARP header for Ethernet/IPv4.
type ARPHeader struct {
	HardwareType uint16
	ProtocolType uint16
	HardwareSize uint8
	ProtocolSize uint8
	Opcode       uint16
	SenderMAC    string
	SenderIP     string
	TargetMAC    string
	TargetIP     string
	OpName       string
}

// DecodedPacket is the result of layered header decoding. A nil layer
// pointer means the layer was absent or truncated; at most one of
// IPv4/IPv6 and at most one of TCP/UDP/ICMP is set. Never mutated after
// construction.
type DecodedPacket struct {
	RawData  []byte
	Ethernet *EthernetHeader
	IPv4     *IPv4Header
	IPv6     *IPv6Header
	TCP      *TCPHeader
	UDP      *UDPHeader
	ICMP     *ICMPHeader
	ARP      *ARPHeader

	// Derived summary fields
	ProtocolName string
	SrcAddr      string
	DstAddr      string
	SrcPort      uint16
	DstPort      uint16
	Info         string
	Payload      []byte
}

// MACString formats a 6-byte MAC address as aa:bb:cc:dd:ee:ff.
func MACString(mac []byte) string {
	if len(mac) < 6 {
		return ""
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
