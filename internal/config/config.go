// Package config holds the daemon's typed configuration. Loading the file
// from disk, watching it for changes, and reload-on-SIGHUP are external
// collaborators (see spec §1); this package only defines the schema every
// in-scope component depends on and a thin yaml loader for it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CaptureStrategyKind selects how much memory a core-dump capture retains.
type CaptureStrategyKind string

const (
	// StrategyKernelSelection retains exactly what the kernel placed in the
	// core stream.
	StrategyKernelSelection CaptureStrategyKind = "kernel_selection"
	// StrategyThreads retains thread stacks (bounded) plus shared-object
	// headers.
	StrategyThreads CaptureStrategyKind = "threads"
)

// CoredumpCaptureStrategy is the parsed form of the `coredump.capture_strategy`
// config key.
type CoredumpCaptureStrategy struct {
	Kind           CaptureStrategyKind `yaml:"strategy"`
	MaxThreadSize  uint64              `yaml:"max_thread_size,omitempty"`
}

// DeviceInfo identifies the device for manifest and metadata purposes.
type DeviceInfo struct {
	DeviceID        string `yaml:"device_id"`
	HardwareVersion string `yaml:"hardware_version"`
}

// CoredumpConfig configures the core-dump capture pipeline (spec §4.3).
type CoredumpConfig struct {
	CaptureStrategy   CoredumpCaptureStrategy `yaml:"capture_strategy"`
	Compression       bool                    `yaml:"compression"`
	MaxSizeBytes       uint64                  `yaml:"max_size_bytes"`
	RateLimitCount     int                     `yaml:"rate_limit_count"`
	RateLimitWindow    time.Duration           `yaml:"rate_limit_window"`
	RateLimitStatePath string                  `yaml:"rate_limit_state_path"`
}

// MetricsConfig configures the report manager, StatsD listener, and dumper.
type MetricsConfig struct {
	MaxKeysPerReport    int           `yaml:"max_keys_per_report"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval"`
	StatsDBindAddress   string        `yaml:"statsd_bind_address"`
}

// HTTPConfig configures the loopback HTTP API (spec §4.5).
type HTTPConfig struct {
	BindAddress string `yaml:"bind_address"`
}

// RebootConfig configures the supplemented reboot-reason tracker.
type RebootConfig struct {
	// BootIDPath is read once per process start to tell one boot from the
	// next; it changes on every kernel boot.
	BootIDPath string `yaml:"boot_id_path"`
	// LastRebootReasonFile, when set, is read (and then removed) at startup
	// when a new boot is detected, and its contents parsed as a reboot
	// reason via internal/reboot.ParseReason.
	LastRebootReasonFile string `yaml:"last_reboot_reason_file"`
}

// Config is the full daemon configuration.
type Config struct {
	SoftwareType    string          `yaml:"software_type"`
	SoftwareVersion string          `yaml:"software_version"`
	SDKVersion      string          `yaml:"sdk_version"`
	DeviceInfo      DeviceInfo      `yaml:"device_info"`
	DataCollection  bool            `yaml:"data_collection_enabled"`
	StagingPath     string          `yaml:"staging_path"`
	Coredump        CoredumpConfig  `yaml:"coredump"`
	Metrics         MetricsConfig   `yaml:"metrics"`
	HTTP            HTTPConfig      `yaml:"http_server"`
	Reboot          RebootConfig    `yaml:"reboot"`
}

// Default returns a Config with sane defaults, mirroring the values the
// original daemon ships in its packaged config file.
func Default() Config {
	return Config{
		SoftwareType:    "main",
		SoftwareVersion: "1.0.0",
		SDKVersion:      "0.1.0",
		DataCollection:  true,
		StagingPath:     "/var/lib/memfaultd/mar-staging",
		Coredump: CoredumpConfig{
			CaptureStrategy: CoredumpCaptureStrategy{
				Kind:          StrategyThreads,
				MaxThreadSize: 32 * 1024,
			},
			Compression:        true,
			MaxSizeBytes:       10 * 1024 * 1024,
			RateLimitCount:     3,
			RateLimitWindow:    time.Hour,
			RateLimitStatePath: "/var/lib/memfaultd/coredump_rate_limiter",
		},
		Metrics: MetricsConfig{
			MaxKeysPerReport:  2000,
			HeartbeatInterval: time.Hour,
			StatsDBindAddress: "127.0.0.1:8125",
		},
		HTTP: HTTPConfig{
			BindAddress: "127.0.0.1:8787",
		},
		Reboot: RebootConfig{
			BootIDPath:           "/proc/sys/kernel/random/boot_id",
			LastRebootReasonFile: "/var/lib/memfaultd/last_reboot_reason",
		},
	}
}

// Load reads and parses a yaml config file, filling in unset fields with
// Default()'s values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
