//go:build linux

// Package cmd holds the auxiliary CLI subcommands.
package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/smazurov/framegrab/pkg/linuxav/hotplug"
	"github.com/smazurov/framegrab/pkg/linuxav/v4l2"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command, which lists video
// capture devices present on the system.
func CreateDevicesCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List video capture devices",
		Long: `Scans /sys/class/video4linux and prints every device that supports video capture, with its stable identifier. ` +
			`With --watch, keeps running and prints hotplug add/remove events.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			devices, err := v4l2.FindDevices()
			if err != nil {
				return fmt.Errorf("scanning for devices: %w", err)
			}

			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No video capture devices found")
			} else {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PATH\tNAME\tID")
				for _, d := range devices {
					fmt.Fprintf(w, "%s\t%s\t%s\n", d.DevicePath, d.DeviceName, d.DeviceID)
				}
				if flushErr := w.Flush(); flushErr != nil {
					return flushErr
				}
			}

			if !watch {
				return nil
			}
			return watchDevices(cmd)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "watch for device add/remove events")
	return cmd
}

// watchDevices streams video4linux hotplug events until interrupted.
func watchDevices(cmd *cobra.Command) error {
	monitor, err := hotplug.NewMonitor()
	if err != nil {
		return fmt.Errorf("starting hotplug monitor: %w", err)
	}
	defer monitor.Close()
	monitor.AddSubsystemFilter(hotplug.SubsystemVideo4Linux)

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for device events (Ctrl+C to stop)")

	events := make(chan hotplug.Event, 16)
	go func() {
		for ev := range events {
			if ev.DevName == "" {
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", ev.Action, ev.DevPath)
		}
	}()

	return monitor.Run(cmd.Context(), events)
}
