// Command memfault-core-handler is invoked by the kernel's core_pattern
// pipe for every crashing process: "|/usr/sbin/memfault-core-handler -c
// <config> %P %e". It reads the raw ELF core stream from stdin, runs the
// capture pipeline, and stages the result for the next MAR export.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/memfault/memfaultd/internal/config"
	"github.com/memfault/memfaultd/internal/coredump"
	"github.com/memfault/memfaultd/internal/coredump/logcapture"
	"github.com/memfault/memfaultd/internal/log"
	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/util"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memfault-core-handler -c CONFIG PID EXECUTABLE_NAME",
	Short: "Captures a crashing process's core as a MAR entry (invoked by core_pattern)",
	Args:  cobra.ExactArgs(2),
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringP("config", "c", "/etc/memfaultd.conf", "Path to the daemon's yaml config file")
}

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Logger.Warn().Err(err).Str("path", configPath).Msg("falling back to default config")
		cfg = config.Default()
	}

	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("parsing pid %q: %w", args[0], err)
	}
	executableName := args[1]

	capture := logcapture.New()
	log.Logger = log.Logger.Hook(capture)

	rateLimiter, err := util.LoadPersistentRateLimiter(
		cfg.Coredump.RateLimitStatePath,
		cfg.Coredump.RateLimitCount,
		cfg.Coredump.RateLimitWindow,
	)
	if err != nil {
		return fmt.Errorf("loading rate limiter state: %w", err)
	}

	handler := &coredump.Handler{
		Config:      cfg.Coredump,
		StagingDir:  cfg.StagingPath,
		Device:      marstaging.Device{DeviceID: cfg.DeviceInfo.DeviceID, HardwareVersion: cfg.DeviceInfo.HardwareVersion},
		Producer:    marstaging.Producer{ID: cfg.SoftwareType, Version: cfg.SoftwareVersion},
		RateLimiter: rateLimiter,
		Capture:     capture,
	}

	if !cfg.DataCollection {
		log.Logger.Debug().Msg("data collection disabled, draining core stream without capturing")
		_, err := io.Copy(io.Discard, os.Stdin)
		return err
	}

	return handler.Handle(os.Stdin, pid, executableName)
}
