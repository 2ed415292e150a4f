package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCaptureSettingsDefaults(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(t.TempDir(), "nope.toml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadCaptureSettings(tt.path)
			if err != nil {
				t.Fatalf("LoadCaptureSettings(%q) error = %v", tt.path, err)
			}
			if got != DefaultCaptureSettings() {
				t.Errorf("got %+v, want defaults %+v", got, DefaultCaptureSettings())
			}
		})
	}
}

func TestLoadCaptureSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framegrab.toml")
	content := `
[capture]
delay_ms = 10
wait_timeout_ms = 500
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	got, err := LoadCaptureSettings(path)
	if err != nil {
		t.Fatalf("LoadCaptureSettings error = %v", err)
	}
	if got.DelayMs != 10 {
		t.Errorf("DelayMs = %d, want 10", got.DelayMs)
	}
	if got.WaitTimeoutMs != 500 {
		t.Errorf("WaitTimeoutMs = %d, want 500", got.WaitTimeoutMs)
	}
}

func TestLoadCaptureSettingsPartialSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framegrab.toml")
	content := `
[capture]
delay_ms = 0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	got, err := LoadCaptureSettings(path)
	if err != nil {
		t.Fatalf("LoadCaptureSettings error = %v", err)
	}
	if got.DelayMs != 0 {
		t.Errorf("DelayMs = %d, want 0 (explicit zero is valid)", got.DelayMs)
	}
	if got.WaitTimeoutMs != DefaultCaptureSettings().WaitTimeoutMs {
		t.Errorf("WaitTimeoutMs = %d, want default", got.WaitTimeoutMs)
	}
}

func TestLoadCaptureSettingsInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "framegrab.toml")
	if err := os.WriteFile(path, []byte("[capture\nbroken"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := LoadCaptureSettings(path); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}
