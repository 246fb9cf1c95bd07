// Package decoder implements layered header decoding for Ethernet/VLAN,
// IPv4, IPv6, TCP, UDP, ICMP and ARP frames.
package decoder

import (
	"fmt"

	"github.com/sniffkit/sniffd/internal/core"
)

// Decode parses raw frame bytes into a DecodedPacket. It never fails:
// a truncated or unknown layer is represented by omission and decoding
// simply stops descending.
func Decode(data []byte) *core.DecodedPacket {
	pkt := &core.DecodedPacket{
		RawData:      data,
		ProtocolName: "UNKNOWN",
	}

	eth, offset := decodeEthernet(data)
	if eth == nil {
		return pkt
	}
	pkt.Ethernet = eth

	switch eth.EtherType {
	case core.EtherTypeIPv4:
		decodeIPv4Layers(pkt, data, offset)
	case core.EtherTypeIPv6:
		decodeIPv6Layers(pkt, data, offset)
	case core.EtherTypeARP:
		if arp, _ := decodeARP(data[offset:]); arp != nil {
			pkt.ARP = arp
			pkt.ProtocolName = "ARP"
			pkt.SrcAddr = arp.SenderIP
			pkt.DstAddr = arp.TargetIP
			pkt.Info = fmt.Sprintf("%s: %s → %s", arp.OpName, arp.SenderIP, arp.TargetIP)
		}
	}

	return pkt
}

func decodeIPv4Layers(pkt *core.DecodedPacket, data []byte, offset int) {
	ip, ipLen := decodeIPv4(data[offset:])
	if ip == nil {
		return
	}
	pkt.IPv4 = ip
	pkt.SrcAddr = ip.SrcIP
	pkt.DstAddr = ip.DstIP
	pkt.ProtocolName = ip.ProtocolName
	offset += ipLen

	decodeTransportLayers(pkt, data, offset, ip.Protocol)
}

func decodeIPv6Layers(pkt *core.DecodedPacket, data []byte, offset int) {
	ip, ipLen := decodeIPv6(data[offset:])
	if ip == nil {
		return
	}
	pkt.IPv6 = ip
	pkt.SrcAddr = ip.SrcIP
	pkt.DstAddr = ip.DstIP
	pkt.ProtocolName = "IPv6"
	offset += ipLen

	decodeTransportLayers(pkt, data, offset, ip.NextHeader)
	if pkt.TCP == nil && pkt.UDP == nil && pkt.ICMP == nil {
		return
	}
	pkt.ProtocolName = core.ProtoName(ip.NextHeader)
}

func decodeTransportLayers(pkt *core.DecodedPacket, data []byte, offset int, proto uint8) {
	switch proto {
	case core.ProtoTCP:
		tcp, tcpLen := decodeTCP(data[offset:])
		if tcp == nil {
			return
		}
		pkt.TCP = tcp
		pkt.SrcPort = tcp.SrcPort
		pkt.DstPort = tcp.DstPort
		pkt.Payload = data[offset+tcpLen:]
		pkt.Info = fmt.Sprintf("%d → %d%s %s Seq=%d",
			tcp.SrcPort, tcp.DstPort, portAnnotation(tcp.SrcPort, tcp.DstPort),
			tcp.FlagsStr, tcp.Seq)

	case core.ProtoUDP:
		udp, udpLen := decodeUDP(data[offset:])
		if udp == nil {
			return
		}
		pkt.UDP = udp
		pkt.SrcPort = udp.SrcPort
		pkt.DstPort = udp.DstPort
		pkt.Payload = data[offset+udpLen:]
		pkt.Info = fmt.Sprintf("%d → %d%s Len=%d",
			udp.SrcPort, udp.DstPort, portAnnotation(udp.SrcPort, udp.DstPort), udp.Length)

	case core.ProtoICMP, core.ProtoICMPv6:
		icmp, icmpLen := decodeICMP(data[offset:])
		if icmp == nil {
			return
		}
		pkt.ICMP = icmp
		pkt.Payload = data[offset+icmpLen:]
		pkt.Info = fmt.Sprintf("%s (code=%d)", icmp.TypeName, icmp.Code)
	}
}

// portAnnotation returns " (NAME)" for the first well-known port of the
// pair, source side winning, or "".
func portAnnotation(src, dst uint16) string {
	if name := core.PortName(src); name != "" {
		return " (" + name + ")"
	}
	if name := core.PortName(dst); name != "" {
		return " (" + name + ")"
	}
	return ""
}
