// Package decoder implements protocol decoding.
package decoder

import (
	"encoding/binary"

	"github.com/sniffkit/sniffd/internal/core"
)

const (
	ethernetHeaderLen = 14
	vlanTaggedLen     = 18
)

// decodeEthernet decodes the Ethernet frame header. A single VLAN tag is
// skipped and the real ethertype re-read at offset 16, advancing the
// header length from 14 to 18. Returns nil and 0 on insufficient bytes.
func decodeEthernet(data []byte) (*core.EthernetHeader, int) {
	if len(data) < ethernetHeaderLen {
		return nil, 0
	}

	eth := &core.EthernetHeader{}
	copy(eth.DstMAC[:], data[0:6])
	copy(eth.SrcMAC[:], data[6:12])

	etherType := binary.BigEndian.Uint16(data[12:14])
	offset := ethernetHeaderLen

	if etherType == core.EtherTypeVLAN {
		if len(data) < vlanTaggedLen {
			return nil, 0
		}
		etherType = binary.BigEndian.Uint16(data[16:18])
		offset = vlanTaggedLen
	}

	eth.EtherType = etherType
	eth.EtherTypeName = core.EtherTypeName(etherType)
	return eth, offset
}
