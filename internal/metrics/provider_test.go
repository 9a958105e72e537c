package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeStats struct {
	cpu      float64
	memUsed  uint64
	memTotal uint64
	dskUsed  uint64
	dskTotal uint64
	uptime   time.Duration
	fail     bool
}

func (f *fakeStats) CPUPercent() (float64, error) {
	if f.fail {
		return 0, errors.New("cpu unavailable")
	}
	return f.cpu, nil
}

func (f *fakeStats) Memory() (uint64, uint64, error) {
	if f.fail {
		return 0, 0, errors.New("mem unavailable")
	}
	return f.memUsed, f.memTotal, nil
}

func (f *fakeStats) Disk() (uint64, uint64, error) {
	if f.fail {
		return 0, 0, errors.New("disk unavailable")
	}
	return f.dskUsed, f.dskTotal, nil
}

func (f *fakeStats) Uptime() (time.Duration, error) {
	if f.fail {
		return 0, errors.New("uptime unavailable")
	}
	return f.uptime, nil
}

func TestSample(t *testing.T) {
	fake := &fakeStats{cpu: 42.5, memUsed: 4 << 30, memTotal: 8 << 30, dskUsed: 50 << 30, dskTotal: 100 << 30}
	p := NewProvider(fake, zerolog.Nop())

	s := p.Sample()
	if s.CPUPercent != 42.5 {
		t.Fatalf("cpu: %v", s.CPUPercent)
	}
	if s.Memory.Percent != 50 || s.Memory.UsedBytes != 4<<30 || s.Memory.TotalBytes != 8<<30 {
		t.Fatalf("memory: %+v", s.Memory)
	}
	if s.Disk.Percent != 50 {
		t.Fatalf("disk: %+v", s.Disk)
	}
}

func TestCPUClamped(t *testing.T) {
	p := NewProvider(&fakeStats{cpu: 250, memTotal: 1, dskTotal: 1}, zerolog.Nop())
	if s := p.Sample(); s.CPUPercent != 100 {
		t.Fatalf("cpu must clamp to 100, got %v", s.CPUPercent)
	}
	p = NewProvider(&fakeStats{cpu: -3, memTotal: 1, dskTotal: 1}, zerolog.Nop())
	if s := p.Sample(); s.CPUPercent != 0 {
		t.Fatalf("cpu must clamp to 0, got %v", s.CPUPercent)
	}
}

func TestFailureDegradesToLastKnown(t *testing.T) {
	fake := &fakeStats{cpu: 10, memUsed: 1, memTotal: 2, dskUsed: 1, dskTotal: 2}
	p := NewProvider(fake, zerolog.Nop())

	good := p.Sample()
	fake.fail = true
	if got := p.Sample(); got != good {
		t.Fatalf("failed read must serve last-known snapshot: %+v", got)
	}
}

func TestFailureBeforeFirstSampleIsZero(t *testing.T) {
	p := NewProvider(&fakeStats{fail: true}, zerolog.Nop())
	if got := p.Sample(); got != (Snapshot{}) {
		t.Fatalf("want all-zero snapshot, got %+v", got)
	}
}

func TestUptime(t *testing.T) {
	p := NewProvider(&fakeStats{uptime: 90061 * time.Second}, zerolog.Nop())
	if d := p.Uptime(); d != 90061*time.Second {
		t.Fatalf("uptime: %v", d)
	}
	p = NewProvider(&fakeStats{fail: true}, zerolog.Nop())
	if d := p.Uptime(); d != 0 {
		t.Fatalf("uptime on failure: %v", d)
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0d 0h 0m"},
		{61 * time.Second, "0d 0h 1m"},
		{90061 * time.Second, "1d 1h 1m"},
		{-time.Minute, "0d 0h 0m"},
	}
	for _, c := range cases {
		if got := FormatUptime(c.d); got != c.want {
			t.Fatalf("FormatUptime(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
