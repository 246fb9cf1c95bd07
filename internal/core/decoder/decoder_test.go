package decoder

import (
	"testing"
)

// Helper to build a simple IPv4 UDP packet (Ethernet + IPv4 + UDP).
func makeUDPPacket() []byte {
	packet := make([]byte, 46)

	// Ethernet header (14 bytes)
	copy(packet[0:6], []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55})  // Dst MAC
	copy(packet[6:12], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}) // Src MAC
	packet[12], packet[13] = 0x08, 0x00                            // EtherType: IPv4

	// IPv4 header (20 bytes)
	packet[14] = 0x45                   // Version 4, IHL 5
	packet[16], packet[17] = 0x00, 0x20 // Total length: 32
	packet[18], packet[19] = 0x12, 0x34 // Identification
	packet[22] = 0x40                   // TTL: 64
	packet[23] = 0x11                   // Protocol: UDP
	packet[26], packet[27], packet[28], packet[29] = 192, 168, 1, 1
	packet[30], packet[31], packet[32], packet[33] = 192, 168, 1, 2

	// UDP header (8 bytes) + 4 payload bytes
	packet[34], packet[35] = 0x00, 0x35 // Src port: 53
	packet[36], packet[37] = 0x13, 0x89 // Dst port: 5001
	packet[38], packet[39] = 0x00, 0x0C // Length: 12
	copy(packet[42:46], []byte{0xDE, 0xAD, 0xBE, 0xEF})

	return packet
}

func TestDecodeUDPPacket(t *testing.T) {
	pkt := Decode(makeUDPPacket())

	if pkt.Ethernet == nil {
		t.Fatal("expected Ethernet header")
	}
	if pkt.Ethernet.EtherType != 0x0800 {
		t.Errorf("expected EtherType 0x0800, got 0x%04x", pkt.Ethernet.EtherType)
	}
	if pkt.IPv4 == nil {
		t.Fatal("expected IPv4 header")
	}
	if pkt.IPv4.SrcIP != "192.168.1.1" || pkt.IPv4.DstIP != "192.168.1.2" {
		t.Errorf("unexpected addresses: %s → %s", pkt.IPv4.SrcIP, pkt.IPv4.DstIP)
	}
	if pkt.IPv4.TTL != 64 {
		t.Errorf("expected TTL 64, got %d", pkt.IPv4.TTL)
	}
	if pkt.UDP == nil {
		t.Fatal("expected UDP header")
	}
	if pkt.UDP.SrcPort != 53 || pkt.UDP.DstPort != 5001 {
		t.Errorf("unexpected ports: %d → %d", pkt.UDP.SrcPort, pkt.UDP.DstPort)
	}
	if pkt.ProtocolName != "UDP" {
		t.Errorf("expected protocol UDP, got %s", pkt.ProtocolName)
	}
	if len(pkt.Payload) != 4 || pkt.Payload[0] != 0xDE {
		t.Errorf("unexpected payload: %v", pkt.Payload)
	}
	// Port 53 is DNS, annotation comes from the source side
	if want := "53 → 5001 (DNS) Len=12"; pkt.Info != want {
		t.Errorf("expected info %q, got %q", want, pkt.Info)
	}
}

func TestDecodeVLANTaggedFrame(t *testing.T) {
	// VLAN tag shifts the real ethertype to offset 16 and the L3 payload
	// to offset 18.
	tagged := make([]byte, 18+20)
	copy(tagged[0:12], makeUDPPacket()[0:12])
	tagged[12], tagged[13] = 0x81, 0x00 // EtherType: VLAN
	tagged[14], tagged[15] = 0x00, 0x0A // TCI, VLAN ID 10
	tagged[16], tagged[17] = 0x08, 0x00 // Real EtherType: IPv4
	tagged[18] = 0x45                   // Version 4, IHL 5
	tagged[26] = 0x40                   // TTL
	tagged[27] = 0x11                   // UDP, but truncated below IP header end is fine
	copy(tagged[30:34], []byte{10, 0, 0, 1})
	copy(tagged[34:38], []byte{10, 0, 0, 2})

	pkt := Decode(tagged)
	if pkt.Ethernet == nil {
		t.Fatal("expected Ethernet header")
	}
	if pkt.Ethernet.EtherType != 0x0800 {
		t.Errorf("expected real EtherType 0x0800 behind VLAN tag, got 0x%04x",
			pkt.Ethernet.EtherType)
	}
	if pkt.IPv4 == nil {
		t.Fatal("expected IPv4 header after 18-byte offset")
	}
	if pkt.IPv4.SrcIP != "10.0.0.1" {
		t.Errorf("expected SrcIP 10.0.0.1, got %s", pkt.IPv4.SrcIP)
	}

	// Untagged frame decodes the same header at the 14-byte offset
	untagged := Decode(makeUDPPacket())
	if untagged.IPv4 == nil || untagged.IPv4.SrcIP != "192.168.1.1" {
		t.Error("untagged frame must decode IPv4 at offset 14")
	}
}

func TestDecodeTCPFlags(t *testing.T) {
	packet := make([]byte, 54)
	copy(packet, makeUDPPacket()[:34])
	packet[16], packet[17] = 0x00, 0x28 // Total length: 40
	packet[23] = 0x06                   // Protocol: TCP

	// TCP header (20 bytes)
	packet[34], packet[35] = 0x01, 0xBB // Src port: 443
	packet[36], packet[37] = 0xC0, 0x00 // Dst port: 49152
	packet[38], packet[39], packet[40], packet[41] = 0x00, 0x00, 0x10, 0x00
	packet[46] = 0x50 // Data offset 5
	packet[47] = 0x12 // Flags: SYN+ACK

	pkt := Decode(packet)
	if pkt.TCP == nil {
		t.Fatal("expected TCP header")
	}
	if pkt.TCP.FlagsStr != "[SYN,ACK]" {
		t.Errorf("expected flags [SYN,ACK], got %q", pkt.TCP.FlagsStr)
	}
	if pkt.ProtocolName != "TCP" {
		t.Errorf("expected protocol TCP, got %s", pkt.ProtocolName)
	}
	if pkt.SrcPort != 443 || pkt.DstPort != 49152 {
		t.Errorf("unexpected ports: %d → %d", pkt.SrcPort, pkt.DstPort)
	}
}

func TestTCPFlagOrder(t *testing.T) {
	cases := []struct {
		flags uint8
		want  string
	}{
		{0x12, "[SYN,ACK]"},
		{0x01, "[FIN]"},
		{0x14, "[RST,ACK]"},
		{0x18, "[PSH,ACK]"},
		{0xFF, "[FIN,SYN,RST,PSH,ACK,URG,ECE,CWR]"},
		{0x00, ""},
	}
	for _, c := range cases {
		tcp, n := decodeTCP(buildTCPHeader(c.flags))
		if tcp == nil || n != 20 {
			t.Fatalf("decodeTCP failed for flags 0x%02x", c.flags)
		}
		if tcp.FlagsStr != c.want {
			t.Errorf("flags 0x%02x: expected %q, got %q", c.flags, c.want, tcp.FlagsStr)
		}
	}
}

func buildTCPHeader(flags uint8) []byte {
	hdr := make([]byte, 20)
	hdr[12] = 0x50
	hdr[13] = flags
	return hdr
}

func TestDecodeARP(t *testing.T) {
	packet := make([]byte, 42)
	copy(packet[0:12], makeUDPPacket()[0:12])
	packet[12], packet[13] = 0x08, 0x06 // EtherType: ARP

	// ARP header (28 bytes)
	packet[14], packet[15] = 0x00, 0x01 // Hardware type: Ethernet
	packet[16], packet[17] = 0x08, 0x00 // Protocol type: IPv4
	packet[18], packet[19] = 6, 4       // Sizes
	packet[20], packet[21] = 0x00, 0x01 // Opcode: request
	copy(packet[22:28], []byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF})
	copy(packet[28:32], []byte{192, 168, 1, 1})
	copy(packet[38:42], []byte{192, 168, 1, 2})

	pkt := Decode(packet)
	if pkt.ARP == nil {
		t.Fatal("expected ARP header")
	}
	if pkt.ARP.Opcode != 1 || pkt.ARP.OpName != "Request" {
		t.Errorf("unexpected opcode: %d (%s)", pkt.ARP.Opcode, pkt.ARP.OpName)
	}
	if pkt.ARP.SenderMAC != "aa:bb:cc:dd:ee:ff" {
		t.Errorf("unexpected sender MAC: %s", pkt.ARP.SenderMAC)
	}
	if pkt.ProtocolName != "ARP" {
		t.Errorf("expected protocol ARP, got %s", pkt.ProtocolName)
	}
	if want := "Request: 192.168.1.1 → 192.168.1.2"; pkt.Info != want {
		t.Errorf("expected info %q, got %q", want, pkt.Info)
	}
}

func TestDecodeICMP(t *testing.T) {
	packet := make([]byte, 42)
	copy(packet, makeUDPPacket()[:34])
	packet[23] = 0x01 // Protocol: ICMP
	packet[34] = 8    // Echo request
	packet[35] = 0

	pkt := Decode(packet)
	if pkt.ICMP == nil {
		t.Fatal("expected ICMP header")
	}
	if pkt.ICMP.TypeName != "Echo Request" {
		t.Errorf("unexpected type name: %s", pkt.ICMP.TypeName)
	}
	if want := "Echo Request (code=0)"; pkt.Info != want {
		t.Errorf("expected info %q, got %q", want, pkt.Info)
	}
}

func TestDecodeIPv6TCP(t *testing.T) {
	packet := make([]byte, 14+40+20)
	copy(packet[0:12], makeUDPPacket()[0:12])
	packet[12], packet[13] = 0x86, 0xDD // EtherType: IPv6

	packet[14] = 0x60 // Version 6
	packet[18], packet[19] = 0x00, 0x14 // Payload length: 20
	packet[20] = 6    // Next header: TCP
	packet[21] = 64   // Hop limit
	packet[22] = 0xFE // fe80::1
	packet[23] = 0x80
	packet[37] = 0x01
	packet[38] = 0xFE // fe80::2
	packet[39] = 0x80
	packet[53] = 0x02

	tcpAt := 14 + 40
	packet[tcpAt], packet[tcpAt+1] = 0x00, 0x16   // Src port: 22
	packet[tcpAt+2], packet[tcpAt+3] = 0xAB, 0xCD // Dst port
	packet[tcpAt+12] = 0x50
	packet[tcpAt+13] = 0x02 // SYN

	pkt := Decode(packet)
	if pkt.IPv6 == nil {
		t.Fatal("expected IPv6 header")
	}
	if pkt.IPv6.SrcIP != "fe80::1" || pkt.IPv6.DstIP != "fe80::2" {
		t.Errorf("unexpected addresses: %s → %s", pkt.IPv6.SrcIP, pkt.IPv6.DstIP)
	}
	if pkt.TCP == nil {
		t.Fatal("expected TCP header")
	}
	if pkt.ProtocolName != "TCP" {
		t.Errorf("expected protocol TCP, got %s", pkt.ProtocolName)
	}
	if pkt.SrcPort != 22 {
		t.Errorf("expected src port 22, got %d", pkt.SrcPort)
	}
}

func TestDecodeTruncatedStopsDescending(t *testing.T) {
	// Frame ends mid-IPv4-header: Ethernet decodes, nothing below it does.
	packet := makeUDPPacket()[:20]

	pkt := Decode(packet)
	if pkt.Ethernet == nil {
		t.Fatal("expected Ethernet header")
	}
	if pkt.IPv4 != nil || pkt.UDP != nil {
		t.Error("truncated frame must not decode lower layers")
	}
	if pkt.ProtocolName != "UNKNOWN" {
		t.Errorf("expected protocol UNKNOWN, got %s", pkt.ProtocolName)
	}
}

func TestDecodeEmptyAndShortFrames(t *testing.T) {
	for _, n := range []int{0, 1, 13} {
		pkt := Decode(make([]byte, n))
		if pkt == nil {
			t.Fatalf("Decode must never return nil (len=%d)", n)
		}
		if pkt.Ethernet != nil {
			t.Errorf("no Ethernet header expected for %d-byte frame", n)
		}
	}
}
