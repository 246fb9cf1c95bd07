package decoder

import (
	"encoding/binary"
	"net/netip"

	"github.com/sniffkit/sniffd/internal/core"
)

const arpHeaderLen = 28

// decodeARP decodes the fixed 28-byte ARP header for Ethernet/IPv4.
// Returns nil and 0 on insufficient bytes.
func decodeARP(data []byte) (*core.ARPHeader, int) {
	if len(data) < arpHeaderLen {
		return nil, 0
	}

	arp := &core.ARPHeader{
		HardwareType: binary.BigEndian.Uint16(data[0:2]),
		ProtocolType: binary.BigEndian.Uint16(data[2:4]),
		HardwareSize: data[4],
		ProtocolSize: data[5],
		Opcode:       binary.BigEndian.Uint16(data[6:8]),
		SenderMAC:    core.MACString(data[8:14]),
		TargetMAC:    core.MACString(data[18:24]),
	}
	arp.OpName = core.ARPOpName(arp.Opcode)

	sender, _ := netip.AddrFromSlice(data[14:18])
	target, _ := netip.AddrFromSlice(data[24:28])
	arp.SenderIP = sender.String()
	arp.TargetIP = target.String()

	return arp, arpHeaderLen
}
