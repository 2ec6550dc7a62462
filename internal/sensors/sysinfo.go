package sensors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysInfo reads host health figures from procfs: free memory, uptime,
// and one-minute load. These feed the /status report and give the
// dashboard a way to spot a node drifting toward memory exhaustion.
type SysInfo struct {
	// ProcRoot overrides /proc, for tests
	ProcRoot string
}

// NewSysInfo returns the procfs-backed system sensor
func NewSysInfo() *SysInfo {
	return &SysInfo{}
}

// Name implements Sensor
func (s *SysInfo) Name() string { return "sysinfo" }

// ReadingNames declares the keys Read produces
func (s *SysInfo) ReadingNames() []string {
	return []string{"free_memory_b", "uptime_s", "load1"}
}

// Read implements Sensor
func (s *SysInfo) Read(_ context.Context) (map[string]float64, error) {
	root := s.ProcRoot
	if root == "" {
		root = "/proc"
	}

	readings := make(map[string]float64, 3)

	free, err := readMemAvailable(filepath.Join(root, "meminfo"))
	if err != nil {
		return nil, err
	}
	readings["free_memory_b"] = free

	uptime, err := readUptime(filepath.Join(root, "uptime"))
	if err != nil {
		return nil, err
	}
	readings["uptime_s"] = uptime

	load, err := readLoad1(filepath.Join(root, "loadavg"))
	if err != nil {
		return nil, err
	}
	readings["load1"] = load

	return readings, nil
}

// readMemAvailable returns MemAvailable in bytes. The meminfo value is
// in kB.
func readMemAvailable(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read meminfo: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, fmt.Errorf("failed to parse MemAvailable %q: %w", fields[1], err)
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("meminfo has no MemAvailable line")
}

// readUptime returns seconds since boot
func readUptime(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read uptime: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, fmt.Errorf("uptime file is empty")
	}
	uptime, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse uptime %q: %w", fields[0], err)
	}
	return uptime, nil
}

// readLoad1 returns the one-minute load average
func readLoad1(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read loadavg: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) < 1 {
		return 0, fmt.Errorf("loadavg file is empty")
	}
	load, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse loadavg %q: %w", fields[0], err)
	}
	return load, nil
}
