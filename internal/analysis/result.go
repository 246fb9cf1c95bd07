package analysis

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Detection is a single finding produced by a module. Field names
// follow the on-disk index format consumed by downstream tooling.
type Detection struct {
	Seq     uint64         `json:"stt"`
	TsSec   int64          `json:"ts_sec"`
	Label   string         `json:"label"`
	Src     string         `json:"src,omitempty"`
	Dst     string         `json:"dst,omitempty"`
	SrcPort uint16         `json:"sport,omitempty"`
	DstPort uint16         `json:"dport,omitempty"`
	Proto   string         `json:"proto,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Talker is an address with its packet count, used for top-N lists.
type Talker struct {
	Addr  string `json:"addr"`
	Count uint64 `json:"count"`
}

// Summary describes one module run over one time window.
type Summary struct {
	ModuleName string `json:"module_name"`
	Interface  string `json:"interface"`
	TimeWindow string `json:"time_window"`
	PcapFile   string `json:"pcap_file"`

	TotalPackets    uint64 `json:"total_packets"`
	AnalyzedPackets uint64 `json:"analyzed_packets"`
	TotalHits       int    `json:"total_hits"`

	Labels map[string]uint64 `json:"labels"`

	TopSources      []Talker `json:"top_sources"`
	TopDestinations []Talker `json:"top_destinations"`

	StartTime   float64 `json:"start_time"`
	EndTime     float64 `json:"end_time"`
	DurationSec float64 `json:"duration_sec"`

	Errors []string `json:"errors"`
}

// windowDate extracts the date part of a YYYY-MM-DD_HH window label.
func windowDate(window string) string {
	if date, _, ok := strings.Cut(window, "_"); ok {
		return date
	}
	return window
}

// OutputDir returns (and creates) {base}/{module}/{YYYY-MM-DD}.
func OutputDir(baseDir, moduleName, window string) (string, error) {
	dir := filepath.Join(baseDir, moduleName, windowDate(window))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return dir, nil
}

// Basename returns the shared stem of a window's artifact files.
func Basename(iface, window string) string {
	return fmt.Sprintf("%s_%s", iface, window)
}

// WriteSummary writes {basename}.summary.json into dir.
func WriteSummary(dir, basename string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}

	path := filepath.Join(dir, basename+".summary.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// WriteDetections writes {basename}.index.jsonl, one detection per
// line. No file is created for an empty slice.
func WriteDetections(dir, basename string, detections []Detection) error {
	if len(detections) == 0 {
		return nil
	}

	path := filepath.Join(dir, basename+".index.jsonl")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range detections {
		if err := enc.Encode(&detections[i]); err != nil {
			return fmt.Errorf("encode detection: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return f.Close()
}

// WriteArtifacts writes the summary and, if present, the detection
// index for one module run.
func WriteArtifacts(baseDir, iface, window string, s *Summary, detections []Detection) error {
	dir, err := OutputDir(baseDir, s.ModuleName, window)
	if err != nil {
		return err
	}

	basename := Basename(iface, window)
	if err := WriteSummary(dir, basename, s); err != nil {
		return err
	}
	return WriteDetections(dir, basename, detections)
}

// ReadSummary loads a summary artifact.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary: %w", err)
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", path, err)
	}
	return &s, nil
}

// ReadDetections loads a detection index, skipping blank and
// malformed lines.
func ReadDetections(path string) ([]Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	defer f.Close()

	var detections []Detection
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var d Detection
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			continue
		}
		detections = append(detections, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan index %s: %w", path, err)
	}
	return detections, nil
}
