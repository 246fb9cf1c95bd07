package rotator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileEntry describes one capture file found under a base directory.
type FileEntry struct {
	Path      string
	Interface string
	Date      string
	Hour      string
	SizeBytes int64
	ModTime   time.Time
}

// ListFiles walks the dated partitions under baseDir and returns the
// capture files found, sorted by partition then name. Empty iface or
// date match everything.
func ListFiles(baseDir, iface, date string) ([]FileEntry, error) {
	dates, err := AvailableDates(baseDir)
	if err != nil {
		return nil, err
	}

	var results []FileEntry
	for _, d := range dates {
		if date != "" && d != date {
			continue
		}
		dir := filepath.Join(baseDir, d)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".pcap") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			// {interface}_{YYYY-MM-DD}_{HH}.pcap; the interface part may
			// itself contain underscores.
			stem := strings.TrimSuffix(name, ".pcap")
			parts := strings.Split(stem, "_")
			if len(parts) < 3 {
				continue
			}
			entry := FileEntry{
				Path:      filepath.Join(dir, name),
				Interface: strings.Join(parts[:len(parts)-2], "_"),
				Date:      parts[len(parts)-2],
				Hour:      parts[len(parts)-1],
			}
			if iface != "" && entry.Interface != iface {
				continue
			}
			if st, err := os.Stat(entry.Path); err == nil {
				entry.SizeBytes = st.Size()
				entry.ModTime = st.ModTime()
			}
			results = append(results, entry)
		}
	}
	return results, nil
}

// AvailableDates returns the valid YYYY-MM-DD partition names under
// baseDir in ascending order.
func AvailableDates(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dates []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := time.Parse(dateLayout, e.Name()); err != nil {
			continue
		}
		dates = append(dates, e.Name())
	}
	sort.Strings(dates)
	return dates, nil
}
