package core

import (
	"fmt"
	"strings"
)

// EtherType values.
const (
	EtherTypeIPv4 = 0x0800
	EtherTypeARP  = 0x0806
	EtherTypeIPv6 = 0x86DD
	EtherTypeVLAN = 0x8100
)

// IP protocol numbers.
const (
	ProtoICMP   = 1
	ProtoTCP    = 6
	ProtoUDP    = 17
	ProtoICMPv6 = 58
)

// TCP flag bits.
const (
	TCPFin = 0x01
	TCPSyn = 0x02
	TCPRst = 0x04
	TCPPsh = 0x08
	TCPAck = 0x10
	TCPUrg = 0x20
	TCPEce = 0x40
	TCPCwr = 0x80
)

// ICMP types.
const (
	ICMPEchoReply       = 0
	ICMPDestUnreachable = 3
	ICMPRedirect        = 5
	ICMPEchoRequest     = 8
	ICMPTimeExceeded    = 11
)

// ARP opcodes.
const (
	ARPRequest = 1
	ARPReply   = 2
)

var etherTypeNames = map[uint16]string{
	EtherTypeIPv4: "IPv4",
	EtherTypeARP:  "ARP",
	EtherTypeIPv6: "IPv6",
	EtherTypeVLAN: "VLAN",
}

var protoNames = map[uint8]string{
	ProtoICMP:   "ICMP",
	ProtoTCP:    "TCP",
	ProtoUDP:    "UDP",
	ProtoICMPv6: "ICMPv6",
}

var icmpTypeNames = map[uint8]string{
	ICMPEchoReply:       "Echo Reply",
	ICMPDestUnreachable: "Destination Unreachable",
	ICMPRedirect:        "Redirect",
	ICMPEchoRequest:     "Echo Request",
	ICMPTimeExceeded:    "Time Exceeded",
}

var arpOpNames = map[uint16]string{
	ARPRequest: "Request",
	ARPReply:   "Reply",
}

// wellKnownPorts annotates common service ports in human-readable
// summaries. Decoding never depends on this table.
var wellKnownPorts = map[uint16]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "TELNET",
	25:   "SMTP",
	53:   "DNS",
	67:   "DHCP-S",
	68:   "DHCP-C",
	80:   "HTTP",
	110:  "POP3",
	123:  "NTP",
	143:  "IMAP",
	443:  "HTTPS",
	445:  "SMB",
	993:  "IMAPS",
	995:  "POP3S",
	3306: "MySQL",
	3389: "RDP",
	5432: "PostgreSQL",
	6379: "Redis",
	8080: "HTTP-ALT",
	8443: "HTTPS-ALT",
}

// EtherTypeName returns the symbolic name for an ethertype, or the hex
// value when unknown.
func EtherTypeName(etherType uint16) string {
	if name, ok := etherTypeNames[etherType]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", etherType)
}

// ProtoName returns the symbolic name for an IP protocol number, or the
// decimal value when unknown.
func ProtoName(proto uint8) string {
	if name, ok := protoNames[proto]; ok {
		return name
	}
	return fmt.Sprintf("%d", proto)
}

// ICMPTypeName returns the symbolic name for an ICMP type.
func ICMPTypeName(icmpType uint8) string {
	if name, ok := icmpTypeNames[icmpType]; ok {
		return name
	}
	return fmt.Sprintf("Type %d", icmpType)
}

// ARPOpName returns the symbolic name for an ARP opcode.
func ARPOpName(opcode uint16) string {
	if name, ok := arpOpNames[opcode]; ok {
		return name
	}
	return fmt.Sprintf("Op %d", opcode)
}

// PortName returns the well-known service name for a port, or "".
func PortName(port uint16) string {
	return wellKnownPorts[port]
}

// tcpFlagOrder fixes the output order of flag names, lowest bit first.
var tcpFlagOrder = []struct {
	bit  uint8
	name string
}{
	{TCPFin, "FIN"},
	{TCPSyn, "SYN"},
	{TCPRst, "RST"},
	{TCPPsh, "PSH"},
	{TCPAck, "ACK"},
	{TCPUrg, "URG"},
	{TCPEce, "ECE"},
	{TCPCwr, "CWR"},
}

// TCPFlagsString formats a TCP flag byte as "[SYN,ACK]", or "" when no
// flag is set.
func TCPFlagsString(flags uint8) string {
	var names []string
	for _, f := range tcpFlagOrder {
		if flags&f.bit != 0 {
			names = append(names, f.name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "[" + strings.Join(names, ",") + "]"
}
