// Package capture bridges a live capture source to the persistence and
// analysis pipeline: sequencing, statistics, pause control and a bounded
// delivery queue.
package capture

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket/pcap"
)

// ErrReadTimeout marks a poll timeout on the capture handle. Callers
// retry; it carries no frame loss.
var ErrReadTimeout = errors.New("sniffd: capture read timeout")

// Source is the contract the engine needs from a live capture
// mechanism: raw frame bytes with a wall-clock timestamp, plus a
// readable cumulative kernel-drop counter for the interface.
type Source interface {
	Open() error
	ReadFrame() (data []byte, ts time.Time, err error)
	KernelDrops() (uint64, error)
	Close() error
}

// PcapSourceConfig configures a libpcap live source. BufferSize is the
// kernel capture buffer in bytes; zero keeps libpcap's default.
type PcapSourceConfig struct {
	Interface   string
	Snaplen     int
	Promiscuous bool
	BPFFilter   string
	Timeout     time.Duration
	BufferSize  int
}

// PcapSource captures live frames through gopacket's libpcap binding.
type PcapSource struct {
	cfg    PcapSourceConfig
	handle *pcap.Handle
}

// NewPcapSource creates an unopened live source for cfg.Interface.
func NewPcapSource(cfg PcapSourceConfig) *PcapSource {
	if cfg.Snaplen <= 0 {
		cfg.Snaplen = 1518
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	return &PcapSource{cfg: cfg}
}

// Open acquires the live handle and applies the BPF filter. This is the
// only place capture acquisition failures surface. The inactive-handle
// path is required to set the kernel buffer size before activation.
func (s *PcapSource) Open() error {
	inactive, err := pcap.NewInactiveHandle(s.cfg.Interface)
	if err != nil {
		return fmt.Errorf("open capture on %s: %w", s.cfg.Interface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(s.cfg.Snaplen); err != nil {
		return fmt.Errorf("set snaplen %d: %w", s.cfg.Snaplen, err)
	}
	if err := inactive.SetPromisc(s.cfg.Promiscuous); err != nil {
		return fmt.Errorf("set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(s.cfg.Timeout); err != nil {
		return fmt.Errorf("set poll timeout: %w", err)
	}
	if s.cfg.BufferSize > 0 {
		if err := inactive.SetBufferSize(s.cfg.BufferSize); err != nil {
			return fmt.Errorf("set buffer size %d: %w", s.cfg.BufferSize, err)
		}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return fmt.Errorf("open capture on %s: %w", s.cfg.Interface, err)
	}
	if s.cfg.BPFFilter != "" {
		if err := handle.SetBPFFilter(s.cfg.BPFFilter); err != nil {
			handle.Close()
			return fmt.Errorf("set bpf filter %q: %w", s.cfg.BPFFilter, err)
		}
	}
	s.handle = handle
	return nil
}

// ReadFrame returns the next frame. Poll timeouts map to ErrReadTimeout.
func (s *PcapSource) ReadFrame() ([]byte, time.Time, error) {
	if s.handle == nil {
		return nil, time.Time{}, errors.New("sniffd: capture source not open")
	}
	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		if errors.Is(err, pcap.NextErrorTimeoutExpired) {
			return nil, time.Time{}, ErrReadTimeout
		}
		return nil, time.Time{}, err
	}
	return data, ci.Timestamp, nil
}

// KernelDrops reads the interface's cumulative rx-drop counter. The
// /proc/net/dev column is preferred; the handle's own drop statistic is
// the fallback.
func (s *PcapSource) KernelDrops() (uint64, error) {
	if drops, err := readProcNetDrops(s.cfg.Interface); err == nil {
		return drops, nil
	}
	if s.handle == nil {
		return 0, errors.New("sniffd: capture source not open")
	}
	stats, err := s.handle.Stats()
	if err != nil {
		return 0, err
	}
	return uint64(stats.PacketsDropped + stats.PacketsIfDropped), nil
}

// Close releases the live handle. Idempotent.
func (s *PcapSource) Close() error {
	if s.handle != nil {
		s.handle.Close()
		s.handle = nil
	}
	return nil
}
