// Package protostats is the built-in analysis module: protocol
// distribution, top talkers, and simple anomaly detection over one
// rotated capture file.
package protostats

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/sniffkit/sniffd/internal/analysis"
	"github.com/sniffkit/sniffd/internal/core/decoder"
	"github.com/sniffkit/sniffd/internal/pcapfile"
)

const (
	// A source touching this many distinct destination ports in one
	// window is flagged as a port scan.
	portScanThreshold = 20

	// A source producing this many packets in one window is flagged
	// as a high-rate sender.
	highRateThreshold = 1000

	topN      = 10
	maxErrors = 10
)

func init() {
	if err := analysis.Register(New()); err != nil {
		panic(err)
	}
}

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) Name() string    { return "protostats" }
func (m *Module) Version() string { return "1.0.0" }

func (m *Module) Description() string {
	return "Protocol distribution, top talkers and simple anomaly detection"
}

func (m *Module) Analyze(pcapPath, outputDir, iface, window string) (*analysis.Summary, error) {
	start := time.Now()

	protoCounts := make(map[string]uint64)
	srcCounts := make(map[string]uint64)
	dstCounts := make(map[string]uint64)
	dstPorts := make(map[string]map[uint16]struct{})

	var totalPackets, analyzedPackets uint64
	var errs []string

	r, err := pcapfile.OpenReader(pcapPath)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer r.Close()

	for {
		frame, err := r.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) && len(errs) < maxErrors {
				errs = append(errs, fmt.Sprintf("read error: %v", err))
			}
			break
		}
		totalPackets++

		pkt := decoder.Decode(frame.Data)
		analyzedPackets++

		proto := pkt.ProtocolName
		if proto == "" {
			proto = "UNKNOWN"
		}
		protoCounts[proto]++

		if pkt.SrcAddr != "" {
			srcCounts[pkt.SrcAddr]++
		}
		if pkt.DstAddr != "" {
			dstCounts[pkt.DstAddr]++
		}

		if pkt.SrcAddr != "" && pkt.DstPort != 0 {
			ports := dstPorts[pkt.SrcAddr]
			if ports == nil {
				ports = make(map[uint16]struct{})
				dstPorts[pkt.SrcAddr] = ports
			}
			ports[pkt.DstPort] = struct{}{}
		}
	}

	var detections []analysis.Detection
	tsSec := start.Unix()

	for src, ports := range dstPorts {
		if len(ports) >= portScanThreshold {
			detections = append(detections, analysis.Detection{
				TsSec:   tsSec,
				Label:   "port-scan",
				Src:     src,
				Dst:     "multiple",
				DstPort: uint16(len(ports)),
				Proto:   "TCP",
				Details: map[string]any{"unique_ports": len(ports)},
			})
		}
	}

	for src, count := range srcCounts {
		if count >= highRateThreshold {
			detections = append(detections, analysis.Detection{
				TsSec:   tsSec,
				Label:   "high-rate-source",
				Src:     src,
				Details: map[string]any{"packet_count": count},
			})
		}
	}

	sortDetections(detections)

	labels := make(map[string]uint64)
	for _, d := range detections {
		labels[d.Label]++
	}
	for _, t := range topCounts(protoCounts, topN) {
		labels["proto_"+t.Addr] = t.Count
	}

	end := time.Now()
	summary := &analysis.Summary{
		ModuleName:      m.Name(),
		Interface:       iface,
		TimeWindow:      window,
		PcapFile:        pcapPath,
		TotalPackets:    totalPackets,
		AnalyzedPackets: analyzedPackets,
		TotalHits:       len(detections),
		Labels:          labels,
		TopSources:      topCounts(srcCounts, topN),
		TopDestinations: topCounts(dstCounts, topN),
		StartTime:       float64(start.UnixNano()) / 1e9,
		EndTime:         float64(end.UnixNano()) / 1e9,
		DurationSec:     end.Sub(start).Seconds(),
		Errors:          errs,
	}

	if err := analysis.WriteArtifacts(outputDir, iface, window, summary, detections); err != nil {
		return nil, err
	}
	return summary, nil
}

// topCounts returns the n highest counts, ties broken by address so
// output is stable.
func topCounts(counts map[string]uint64, n int) []analysis.Talker {
	talkers := make([]analysis.Talker, 0, len(counts))
	for addr, count := range counts {
		talkers = append(talkers, analysis.Talker{Addr: addr, Count: count})
	}
	sort.Slice(talkers, func(i, j int) bool {
		if talkers[i].Count != talkers[j].Count {
			return talkers[i].Count > talkers[j].Count
		}
		return talkers[i].Addr < talkers[j].Addr
	})
	if len(talkers) > n {
		talkers = talkers[:n]
	}
	return talkers
}

func sortDetections(detections []analysis.Detection) {
	sort.Slice(detections, func(i, j int) bool {
		if detections[i].Label != detections[j].Label {
			return detections[i].Label < detections[j].Label
		}
		return detections[i].Src < detections[j].Src
	})
}
