// Package integration contains end-to-end tests that drive a fake simulator
// over TCP.
package integration

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeSimulator speaks the simulator line protocol: every command is echoed
// as a confirmation, "rpm N" is reported back as the rpm sensor, and the
// current chart is broadcast on a fixed interval.
type fakeSimulator struct {
	ln net.Listener

	mu       sync.Mutex
	chart    string
	received []string
	mute     map[string]bool
}

func startFakeSimulator(t *testing.T, chart string) *fakeSimulator {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeSimulator{ln: ln, chart: chart, mute: make(map[string]bool)}
	go f.serve()
	t.Cleanup(func() { ln.Close() })
	return f
}

func (f *fakeSimulator) Addr() string { return f.ln.Addr().String() }

func (f *fakeSimulator) SetChart(chart string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chart = chart
}

// Mute stops confirmations for commands starting with prefix.
func (f *fakeSimulator) Mute(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mute[prefix] = true
}

func (f *fakeSimulator) Received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.received...)
}

func (f *fakeSimulator) serve() {
	for {
		nc, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(nc)
	}
}

func (f *fakeSimulator) handle(nc net.Conn) {
	defer nc.Close()

	var wmu sync.Mutex
	write := func(line string) error {
		wmu.Lock()
		defer wmu.Unlock()
		_, err := fmt.Fprintf(nc, "%s\n", line)
		return err
	}

	if err := write("rusEfi simulator ready"); err != nil {
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				f.mu.Lock()
				chart := f.chart
				f.mu.Unlock()
				if write(chart) != nil {
					return
				}
			}
		}
	}()

	sc := bufio.NewScanner(nc)
	n := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		n++

		f.mu.Lock()
		f.received = append(f.received, line)
		muted := false
		for prefix := range f.mute {
			if strings.HasPrefix(line, prefix) {
				muted = true
			}
		}
		f.mu.Unlock()
		if muted {
			continue
		}

		if err := write(fmt.Sprintf("confirmation_%s:%d", line, n)); err != nil {
			return
		}
		var rpm int
		if _, err := fmt.Sscanf(line, "rpm %d", &rpm); err == nil {
			if err := write(fmt.Sprintf("sensor,rpm,%d", rpm)); err != nil {
				return
			}
		}
	}
}
