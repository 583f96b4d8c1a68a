package monitoring

import (
	"context"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := map[uint64]string{
		512 * 1024 * 1024:      "512.0 MB",
		3 * 1024 * 1024 * 1024: "3.0 GB",
		0:                      "0.0 MB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatUptime(t *testing.T) {
	tests := map[int]string{
		59:     "0m",
		3700:   "1h 1m",
		190000: "2d 4h",
	}
	for in, want := range tests {
		if got := formatUptime(in); got != want {
			t.Errorf("formatUptime(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestCollectHost(t *testing.T) {
	s := CollectHost(context.Background())
	if s.MemoryPercent < 0 || s.MemoryPercent > 100 || s.DiskPercent < 0 || s.DiskPercent > 100 {
		t.Errorf("implausible host stats %+v", s)
	}
}
