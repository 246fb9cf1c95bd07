package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPcapSourceDefaults(t *testing.T) {
	s := NewPcapSource(PcapSourceConfig{Interface: "eth0"})
	assert.Equal(t, 1518, s.cfg.Snaplen)
	assert.Equal(t, 500*time.Millisecond, s.cfg.Timeout)
	assert.Zero(t, s.cfg.BufferSize, "zero leaves the libpcap default buffer")
}

func TestNewPcapSourceKeepsTuning(t *testing.T) {
	s := NewPcapSource(PcapSourceConfig{
		Interface:   "eth1",
		Snaplen:     262144,
		Promiscuous: true,
		BPFFilter:   "tcp port 443",
		Timeout:     time.Second,
		BufferSize:  4 << 20,
	})
	assert.Equal(t, 262144, s.cfg.Snaplen)
	assert.True(t, s.cfg.Promiscuous)
	assert.Equal(t, "tcp port 443", s.cfg.BPFFilter)
	assert.Equal(t, time.Second, s.cfg.Timeout)
	assert.Equal(t, 4<<20, s.cfg.BufferSize)
}

func TestReadFrameRequiresOpenHandle(t *testing.T) {
	s := NewPcapSource(PcapSourceConfig{Interface: "eth0"})
	_, _, err := s.ReadFrame()
	assert.Error(t, err)
}
