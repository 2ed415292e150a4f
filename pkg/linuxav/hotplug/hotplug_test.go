//go:build linux

package hotplug

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestParseUEvent(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  *Event
	}{
		{name: "empty input"},
		{name: "no separator", input: []byte("invalid")},
		{name: "missing action", input: []byte("@/devices/foo")},
		{name: "only null bytes", input: []byte{0, 0, 0, 0}},
		{
			name:  "camera add",
			input: []byte("add@/devices/pci0000:00/video0\x00SUBSYSTEM=video4linux\x00DEVNAME=video0\x00"),
			want: &Event{
				Action:    ActionAdd,
				KObj:      "/devices/pci0000:00/video0",
				Subsystem: SubsystemVideo4Linux,
				DevName:   "video0",
				Env: map[string]string{
					"SUBSYSTEM": "video4linux",
					"DEVNAME":   "video0",
				},
			},
		},
		{
			name:  "usb remove",
			input: []byte("remove@/devices/usb/1-1\x00SUBSYSTEM=usb\x00DEVTYPE=usb_device\x00DEVPATH=/devices/usb/1-1\x00"),
			want: &Event{
				Action:    ActionRemove,
				KObj:      "/devices/usb/1-1",
				Subsystem: SubsystemUSB,
				DevType:   "usb_device",
				DevPath:   "/devices/usb/1-1",
				Env: map[string]string{
					"SUBSYSTEM": "usb",
					"DEVTYPE":   "usb_device",
					"DEVPATH":   "/devices/usb/1-1",
				},
			},
		},
		{
			name:  "empty and equals-laden values",
			input: []byte("change@/dev/foo\x00KEY=\x00OPTS=a=b=c\x00"),
			want: &Event{
				Action: "change",
				KObj:   "/dev/foo",
				Env:    map[string]string{"KEY": "", "OPTS": "a=b=c"},
			},
		},
		{
			name:  "trailing and repeated nulls",
			input: []byte("bind@/devices/foo\x00\x00SUBSYSTEM=pci\x00\x00\x00"),
			want: &Event{
				Action:    "bind",
				KObj:      "/devices/foo",
				Subsystem: "pci",
				Env:       map[string]string{"SUBSYSTEM": "pci"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUEvent(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseUEvent() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMonitorCloseIsTerminal(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("NewMonitor() error: %v", err)
	}
	if m.fd <= 0 {
		t.Errorf("fd = %d, want a valid descriptor", m.fd)
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := m.Close(); err == nil {
		t.Error("second Close() succeeded, want error")
	}
}

func TestMonitorSubsystemFilter(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("NewMonitor() error: %v", err)
	}
	defer func() { _ = m.Close() }()

	m.AddSubsystemFilter(SubsystemVideo4Linux)

	m.filtersMu.RLock()
	_, hasV4L := m.filters[SubsystemVideo4Linux]
	_, hasUSB := m.filters[SubsystemUSB]
	m.filtersMu.RUnlock()

	if !hasV4L {
		t.Error("video4linux filter not set")
	}
	if hasUSB {
		t.Error("usb filter set without being added")
	}
}

func TestMonitorRunHonorsCancellation(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("NewMonitor() error: %v", err)
	}
	defer func() { _ = m.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if runErr := m.Run(ctx, make(chan Event, 1)); !errors.Is(runErr, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", runErr)
	}
}

// Exercises the filters map under -race.
func TestMonitorConcurrentFilterAdd(t *testing.T) {
	m, err := NewMonitor()
	if err != nil {
		t.Fatalf("NewMonitor() error: %v", err)
	}
	defer func() { _ = m.Close() }()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.AddSubsystemFilter(SubsystemVideo4Linux)
				m.AddSubsystemFilter(SubsystemUSB)
				m.AddSubsystemFilter(SubsystemSound)
			}
		}()
	}
	wg.Wait()

	m.filtersMu.RLock()
	defer m.filtersMu.RUnlock()
	if len(m.filters) != 3 {
		t.Errorf("filters = %d, want 3", len(m.filters))
	}
}
