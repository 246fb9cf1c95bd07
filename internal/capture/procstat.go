package capture

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const procNetDev = "/proc/net/dev"

// readProcNetDrops parses the rx-drop column of /proc/net/dev for one
// interface. Line layout: "iface: rx_bytes rx_packets rx_errs rx_drop ...".
func readProcNetDrops(iface string) (uint64, error) {
	f, err := os.Open(procNetDev)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		name, rest, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(name) != iface {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) < 4 {
			return 0, fmt.Errorf("sniffd: malformed %s line for %s", procNetDev, iface)
		}
		return strconv.ParseUint(fields[3], 10, 64)
	}
	return 0, fmt.Errorf("sniffd: interface %s not found in %s", iface, procNetDev)
}

// InterfaceInfo describes one network interface from /sys/class/net.
type InterfaceInfo struct {
	Name string
	MAC  string
	Up   bool
}

const sysClassNet = "/sys/class/net"

// ListInterfaces returns available interface names, loopback excluded
// when anything else exists.
func ListInterfaces() []string {
	entries, err := os.ReadDir(sysClassNet)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) > 1 {
		filtered := names[:0]
		for _, n := range names {
			if n != "lo" {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	sort.Strings(names)
	return names
}

// GetInterfaceInfo reads state and address for one interface.
func GetInterfaceInfo(name string) (InterfaceInfo, error) {
	info := InterfaceInfo{Name: name}
	base := sysClassNet + "/" + name
	if _, err := os.Stat(base); err != nil {
		return info, err
	}
	if state, err := os.ReadFile(base + "/operstate"); err == nil {
		s := strings.TrimSpace(string(state))
		// "unknown" usually means up (e.g. tun devices)
		info.Up = s == "up" || s == "unknown"
	}
	if mac, err := os.ReadFile(base + "/address"); err == nil {
		info.MAC = strings.TrimSpace(string(mac))
	}
	return info, nil
}
