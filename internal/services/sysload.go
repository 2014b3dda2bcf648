package services

import (
	"os"
	"runtime"
	"strconv"
	"strings"
)

// loadPercent returns the 1-minute load average as a percentage of logical
// CPUs. The second return is false on platforms without /proc/loadavg, in
// which case callers must not skip work.
func loadPercent() (float64, bool) {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return 0, false
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0, false
	}
	load1, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return load1 / float64(runtime.NumCPU()) * 100, true
}
