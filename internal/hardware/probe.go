package hardware

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// platformProber reads /proc for memory and shells out to nvidia-smi
// for GPU detection, the same probes the desktop shell performed.
type platformProber struct{}

func (platformProber) System() (SystemInfo, error) {
	ramMB, err := totalRAMMB()
	if err != nil {
		return SystemInfo{}, fmt.Errorf("hardware: read memory info: %w", err)
	}

	var storageMB uint64
	var fs syscall.Statfs_t
	if err := syscall.Statfs(dataRoot(), &fs); err == nil {
		storageMB = uint64(fs.Bavail) * uint64(fs.Bsize) / (1024 * 1024)
	}

	return SystemInfo{
		RAMMB:              ramMB,
		CPUCores:           runtime.NumCPU(),
		StorageAvailableMB: storageMB,
	}, nil
}

// GPU execs nvidia-smi. Any failure (binary absent, no driver) reads as
// "no GPU", not an error.
func (platformProber) GPU() (*GPUInfo, error) {
	cmd := exec.Command("nvidia-smi",
		"--query-gpu=name,memory.total",
		"--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return nil, nil
	}

	line := strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0])
	if line == "" {
		return nil, nil
	}
	parts := strings.SplitN(line, ",", 2)
	if len(parts) != 2 {
		return nil, nil
	}

	name := strings.TrimSpace(parts[0])
	vramMB, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return nil, nil
	}

	return &GPUInfo{
		Name:   name,
		VRAMMB: vramMB,
		// 4GB VRAM is the floor for local inference offload
		ComputeCapable: vramMB >= 4096,
	}, nil
}

func totalRAMMB() (uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return kb / 1024, nil
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal not found")
}

func dataRoot() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "/"
}
