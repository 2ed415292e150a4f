package main

import "testing"

func TestFrameLimit(t *testing.T) {
	tests := []struct {
		name  string
		count int
		want  uint64
	}{
		{"positive", 5, 5},
		{"zero runs until stopped", 0, 0},
		{"negative clamps to continuous", -1, 0},
		{"large negative clamps to continuous", -1 << 40, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := frameLimit(tt.count); got != tt.want {
				t.Errorf("frameLimit(%d) = %d, want %d", tt.count, got, tt.want)
			}
		})
	}
}
