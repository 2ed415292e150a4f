package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// CaptureSettings is the hot-reloadable `[capture]` section of the
// config file. Only loop tuning lives here; device selection and format
// are fixed at startup.
type CaptureSettings struct {
	// DelayMs is the pause between processed frames, in milliseconds.
	DelayMs int `toml:"delay_ms"`

	// WaitTimeoutMs bounds each readiness wait, in milliseconds.
	WaitTimeoutMs int `toml:"wait_timeout_ms"`
}

// DefaultCaptureSettings mirrors the acquisition loop defaults.
func DefaultCaptureSettings() CaptureSettings {
	return CaptureSettings{
		DelayMs:       50,
		WaitTimeoutMs: 2000,
	}
}

// LoadCaptureSettings reads the `[capture]` section from a TOML config
// file. A missing file or missing section yields the defaults; a file
// that exists but does not parse is an error. The signature matches the
// Watcher loader so the section can be hot-reloaded.
func LoadCaptureSettings(path string) (CaptureSettings, error) {
	settings := DefaultCaptureSettings()

	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read config: %w", err)
	}

	var raw struct {
		Capture CaptureSettings `toml:"capture"`
	}
	raw.Capture = settings
	if err := toml.Unmarshal(data, &raw); err != nil {
		return settings, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	if raw.Capture.DelayMs < 0 {
		raw.Capture.DelayMs = settings.DelayMs
	}
	if raw.Capture.WaitTimeoutMs <= 0 {
		raw.Capture.WaitTimeoutMs = settings.WaitTimeoutMs
	}
	return raw.Capture, nil
}
