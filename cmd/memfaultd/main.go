package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/memfault/memfaultd/internal/config"
	"github.com/memfault/memfaultd/internal/httpapi"
	"github.com/memfault/memfaultd/internal/log"
	"github.com/memfault/memfaultd/internal/marstaging"
	"github.com/memfault/memfaultd/internal/metrics"
	"github.com/memfault/memfaultd/internal/obsmetrics"
	"github.com/memfault/memfaultd/internal/persist"
	"github.com/memfault/memfaultd/internal/reboot"
	"github.com/memfault/memfaultd/internal/ssf"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "memfaultd",
	Short:   "On-device collector: crash reports, metrics, and logs for embedded Linux fleets",
	Version: Version,
	RunE:    run,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("memfaultd version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("config", "/etc/memfaultd.conf", "Path to the daemon's yaml config file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

func run(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Logger.Warn().Err(err).Str("path", configPath).Msg("falling back to default config")
		cfg = config.Default()
	}

	device := marstaging.Device{DeviceID: cfg.DeviceInfo.DeviceID, HardwareVersion: cfg.DeviceInfo.HardwareVersion}
	producer := marstaging.Producer{ID: cfg.SoftwareType, Version: cfg.SoftwareVersion}

	if err := os.MkdirAll(cfg.StagingPath, 0o755); err != nil {
		return fmt.Errorf("creating staging dir: %w", err)
	}

	store, err := persist.Open("/var/lib/memfaultd/memfaultd.db")
	if err != nil {
		return fmt.Errorf("opening persistent store: %w", err)
	}
	defer store.Close()

	detector := reboot.NewDetector(store, cfg.Reboot.BootIDPath, cfg.Reboot.LastRebootReasonFile)
	if reason, isNew, err := detector.CheckForNewBoot(); err != nil {
		log.Logger.Warn().Err(err).Msg("reboot detector failed")
	} else if isNew {
		if err := marstaging.DumpReboot(cfg.StagingPath, device, producer, reason.String()); err != nil {
			log.Logger.Warn().Err(err).Msg("failed to stage reboot reason")
		}
	}

	metricsRegistry := obsmetrics.NewRegistry()

	reportThread := ssf.SpawnDedicated(metrics.NewReportManager(cfg.Metrics.MaxKeysPerReport))
	metricsMailbox := metrics.NewMetricsMailbox(reportThread.Mailbox)

	statsdListener, err := metrics.ListenStatsD(cfg.Metrics.StatsDBindAddress, metricsMailbox)
	if err != nil {
		return fmt.Errorf("starting statsd listener: %w", err)
	}
	defer statsdListener.Close()

	dumper := marstaging.NewPeriodicMetricReportDumper(cfg.StagingPath, device, producer, reportThread.Mailbox, cfg.Metrics.HeartbeatInterval)
	dumper.Start()
	defer dumper.Stop()

	handlers := []httpapi.Handler{
		&httpapi.SyncEventHandler{DataCollectionEnabled: cfg.DataCollection, Mailbox: metricsMailbox},
		&httpapi.BatteryReadingHandler{DataCollectionEnabled: cfg.DataCollection, Mailbox: metricsMailbox},
		&httpapi.CrashReportHandler{DataCollectionEnabled: cfg.DataCollection, Mailbox: metricsMailbox},
		&httpapi.SessionHandler{
			DataCollectionEnabled: cfg.DataCollection,
			Mailbox:               reportThread.Mailbox,
			StagingDir:            cfg.StagingPath,
			Device:                device,
			Producer:              producer,
		},
		&httpapi.ExportHandler{StagingDir: cfg.StagingPath},
	}

	server, err := httpapi.NewServer(cfg.HTTP.BindAddress, handlers, metricsRegistry)
	if err != nil {
		return fmt.Errorf("binding http api: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(); err != nil {
			errCh <- fmt.Errorf("http api: %w", err)
		}
	}()
	log.Logger.Info().Str("addr", server.Addr()).Msg("memfaultd: http api listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Logger.Info().Msg("memfaultd: shutting down")
	case err := <-errCh:
		log.Logger.Error().Err(err).Msg("memfaultd: fatal error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
