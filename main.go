//go:build linux

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/framegrab/cmd"
	"github.com/smazurov/framegrab/internal/acquire"
	"github.com/smazurov/framegrab/internal/config"
	"github.com/smazurov/framegrab/internal/events"
	"github.com/smazurov/framegrab/internal/logging"
	"github.com/smazurov/framegrab/internal/metrics"
	"github.com/smazurov/framegrab/internal/ppm"
	"github.com/smazurov/framegrab/internal/systemd"
	"github.com/smazurov/framegrab/pkg/linuxav/v4l2"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"framegrab.toml"`

	// Device settings
	Device      string `help:"Capture device path" short:"d" default:"/dev/video0" toml:"device.path" env:"DEVICE_PATH"`
	Width       int    `help:"Requested frame width" default:"320" toml:"device.width" env:"DEVICE_WIDTH"`
	Height      int    `help:"Requested frame height" default:"240" toml:"device.height" env:"DEVICE_HEIGHT"`
	ForceFormat bool   `help:"Command the device to adopt the requested format" default:"true" toml:"device.force_format" env:"DEVICE_FORCE_FORMAT"`
	Buffers     int    `help:"Number of mmap buffers to request" default:"6" toml:"device.buffers" env:"DEVICE_BUFFERS"`

	// Output settings
	OutputDir string `help:"Directory for frame files" short:"o" default:"frames" toml:"output.dir" env:"OUTPUT_DIR"`
	Prefix    string `help:"Frame filename prefix" default:"test" toml:"output.prefix" env:"OUTPUT_PREFIX"`

	// Capture settings
	FrameCount    int `help:"Frames to capture before exiting (0 = run until stopped)" short:"n" default:"1" toml:"capture.frame_count" env:"CAPTURE_FRAME_COUNT"`
	DelayMs       int `help:"Pause between frames in milliseconds" default:"50" toml:"capture.delay_ms" env:"CAPTURE_DELAY_MS"`
	WaitTimeoutMs int `help:"Frame readiness timeout in milliseconds" default:"2000" toml:"capture.wait_timeout_ms" env:"CAPTURE_WAIT_TIMEOUT_MS"`

	// Metrics settings
	MetricsEnabled bool   `help:"Expose Prometheus metrics" default:"false" toml:"metrics.enabled" env:"METRICS_ENABLED"`
	MetricsAddr    string `help:"Metrics listen address" default:":9120" toml:"metrics.addr" env:"METRICS_ADDR"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingAcquire string `help:"Acquisition loop logging level" default:"info" toml:"logging.acquire" env:"LOGGING_ACQUIRE"`
	LoggingV4L2    string `help:"Device layer logging level" default:"info" toml:"logging.v4l2" env:"LOGGING_V4L2"`
	LoggingPPM     string `help:"File writer logging level" default:"info" toml:"logging.ppm" env:"LOGGING_PPM"`
}

// frameLimit converts the frame-count option to a loop limit. Negative
// values mean the same as zero: run until stopped.
func frameLimit(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}

func main() {
	// Create Huma CLI
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
			logging.GetLogger("main").Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"acquire": opts.LoggingAcquire,
				"v4l2":    opts.LoggingV4L2,
				"ppm":     opts.LoggingPPM,
			},
		})

		logger := logging.GetLogger("main")

		// Create event bus for in-process event handling
		eventBus := events.New()

		// Metrics are optional; the pipeline observes the event bus so
		// the loop itself never touches a counter.
		var pipeline *metrics.Pipeline
		var metricsServer *http.Server
		if opts.MetricsEnabled {
			pipeline = metrics.NewPipeline()
			pipeline.Bind(eventBus)

			mux := http.NewServeMux()
			mux.Handle("/metrics", pipeline.Handler())
			metricsServer = &http.Server{Addr: opts.MetricsAddr, Handler: mux}
		}

		// running is polled by the loop between cycles; OnStop drops it.
		var running atomic.Bool
		running.Store(true)
		done := make(chan struct{})

		hooks.OnStart(func() {
			if metricsServer != nil {
				go func() {
					logger.Info("Starting metrics server", "addr", opts.MetricsAddr)
					if srvErr := metricsServer.ListenAndServe(); srvErr != nil && !errors.Is(srvErr, http.ErrServerClosed) {
						logger.Error("Metrics server failed", "error", srvErr)
					}
				}()
			}

			src, err := acquire.OpenDevice(acquire.DeviceConfig{
				Path:        opts.Device,
				Width:       uint32(opts.Width),
				Height:      uint32(opts.Height),
				ForceFormat: opts.ForceFormat,
				Buffers:     uint32(opts.Buffers),
			}, logging.GetLogger("v4l2"))
			if err != nil {
				logger.Error("Failed to open capture device", "path", opts.Device, "error", err)
				os.Exit(1)
			}

			format := src.Format()
			eventBus.Publish(events.DeviceOpenedEvent{
				DevicePath: opts.Device,
				Driver:     src.Device().Driver(),
				Card:       src.Device().Card(),
				Width:      format.Width,
				Height:     format.Height,
				PixelFmt:   v4l2.FormatFourCC(uint32(format.Encoding)),
			})

			if mkdirErr := os.MkdirAll(opts.OutputDir, 0o755); mkdirErr != nil {
				logger.Error("Failed to create output directory", "dir", opts.OutputDir, "error", mkdirErr)
				src.Close()
				os.Exit(1)
			}

			writer := &ppm.Writer{
				Dir:    opts.OutputDir,
				Prefix: opts.Prefix,
				Width:  format.Width,
				Height: format.Height,
			}

			loop := acquire.New(src, writer, eventBus, logging.GetLogger("acquire"), acquire.Config{
				WaitTimeout: time.Duration(opts.WaitTimeoutMs) * time.Millisecond,
				Delay:       time.Duration(opts.DelayMs) * time.Millisecond,
				FrameLimit:  frameLimit(opts.FrameCount),
			})

			// Hot-reload loop pacing from the [capture] config section.
			watcher := config.NewConfigWatcher(opts.Config, config.LoadCaptureSettings, logger)
			watcher.OnReload(func(settings config.CaptureSettings) {
				loop.SetDelay(time.Duration(settings.DelayMs) * time.Millisecond)
			})
			if watchErr := watcher.Start(); watchErr != nil {
				logger.Debug("Config watcher not started", "path", opts.Config, "error", watchErr)
			}

			systemd.NotifyReady()
			systemd.NotifyStatus("capturing from %s", opts.Device)

			runErr := loop.Run(running.Load)
			closeErr := src.Close()
			close(done)

			if runErr != nil {
				logger.Error("Capture failed", "error", runErr)
				os.Exit(1)
			}
			if closeErr != nil {
				logger.Error("Error closing capture device", "error", closeErr)
			}

			if running.Load() {
				// The loop stopped on its own (frame limit); no signal is
				// coming, so shut down here.
				systemd.NotifyStopping()
				logger.Info("Capture complete", "frames", loop.Frames())
				watcher.Stop()
				if metricsServer != nil {
					metricsServer.Close()
				}
				if closeErr != nil {
					os.Exit(1)
				}
				os.Exit(0)
			}

			watcher.Stop()
		})

		hooks.OnStop(func() {
			logger.Info("Shutdown requested, draining")
			systemd.NotifyStopping()
			running.Store(false)

			select {
			case <-done:
			case <-time.After(2*time.Duration(opts.WaitTimeoutMs)*time.Millisecond + time.Second):
				logger.Warn("Drain timed out")
			}

			if metricsServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if stopErr := metricsServer.Shutdown(ctx); stopErr != nil {
					logger.Error("Error stopping metrics server", "error", stopErr)
				}
			}
		})
	})

	// Add devices command
	devicesCmd := cmd.CreateDevicesCmd()
	cli.Root().AddCommand(devicesCmd)

	// Add version command
	versionCmd := cmd.CreateVersionCmd()
	cli.Root().AddCommand(versionCmd)

	cli.Run()
}
