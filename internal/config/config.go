// Package config loads and validates sniffd configuration from a
// YAML file with environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/sniffkit/sniffd/internal/core"
	"github.com/sniffkit/sniffd/internal/log"
)

const (
	DefaultSnaplen       = 1518
	DefaultRetentionDays = 7
	DefaultDataDir       = "./data"
	DefaultAnalysisDir   = "./analysis"
	DefaultProfile       = "balanced"
	DefaultWorkers       = 2
	DefaultBatchSize     = 100
	DefaultJobQueueSize  = 100

	minSnaplen = 64
	maxSnaplen = 262144
)

// Profile pairs a kernel ring buffer size with a userspace queue
// depth. Profiles trade memory for drop resistance.
type Profile struct {
	BufferSize int
	QueueSize  int
	Desc       string
}

var profiles = map[string]Profile{
	"low":      {BufferSize: 1 << 20, QueueSize: 5000, Desc: "Low memory"},
	"balanced": {BufferSize: 2 << 20, QueueSize: 10000, Desc: "Balanced (default)"},
	"fast":     {BufferSize: 4 << 20, QueueSize: 20000, Desc: "High throughput"},
	"max":      {BufferSize: 8 << 20, QueueSize: 50000, Desc: "Maximum buffering"},
}

// ProfileByName resolves a named buffer profile.
func ProfileByName(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile '%s': %w", name, core.ErrConfigInvalid)
	}
	return p, nil
}

// ProfileNames lists the known profiles.
func ProfileNames() []string { return []string{"low", "balanced", "fast", "max"} }

// CaptureConfig configures the live capture path.
type CaptureConfig struct {
	Interface   string `mapstructure:"interface"`
	BPFFilter   string `mapstructure:"bpf_filter"`
	Snaplen     uint32 `mapstructure:"snaplen"`
	Promiscuous bool   `mapstructure:"promiscuous"`
	Profile     string `mapstructure:"profile"`
}

// StorageConfig configures rotation and retention.
type StorageConfig struct {
	DataDir       string `mapstructure:"data_dir"`
	RetentionDays int    `mapstructure:"retention_days"`
	BatchSize     int    `mapstructure:"batch_size"`
}

// AnalysisConfig configures the offline analysis runner.
type AnalysisConfig struct {
	OutputDir      string   `mapstructure:"output_dir"`
	Workers        int      `mapstructure:"workers"`
	QueueSize      int      `mapstructure:"queue_size"`
	EnabledModules []string `mapstructure:"enabled_modules"`
}

// Config is the root sniffd configuration.
type Config struct {
	Capture  CaptureConfig  `mapstructure:"capture"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      log.Config     `mapstructure:"log"`
}

// Load reads configuration from path, applying env var overrides
// with the SNIFFD_ prefix (e.g. SNIFFD_CAPTURE_INTERFACE).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix("SNIFFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	// Validation cannot fail on the zero value plus defaults.
	_ = cfg.ValidateAndApplyDefaults()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capture.snaplen", DefaultSnaplen)
	v.SetDefault("capture.promiscuous", true)
	v.SetDefault("capture.profile", DefaultProfile)

	v.SetDefault("storage.data_dir", DefaultDataDir)
	v.SetDefault("storage.retention_days", DefaultRetentionDays)
	v.SetDefault("storage.batch_size", DefaultBatchSize)

	v.SetDefault("analysis.output_dir", DefaultAnalysisDir)
	v.SetDefault("analysis.workers", DefaultWorkers)
	v.SetDefault("analysis.queue_size", DefaultJobQueueSize)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// ValidateAndApplyDefaults fills zero values and rejects invalid
// settings.
func (c *Config) ValidateAndApplyDefaults() error {
	if c.Capture.Snaplen == 0 {
		c.Capture.Snaplen = DefaultSnaplen
	}
	if c.Capture.Snaplen < minSnaplen || c.Capture.Snaplen > maxSnaplen {
		return fmt.Errorf("snaplen %d out of range [%d, %d]: %w",
			c.Capture.Snaplen, minSnaplen, maxSnaplen, core.ErrConfigInvalid)
	}

	if c.Capture.Profile == "" {
		c.Capture.Profile = DefaultProfile
	}
	if _, err := ProfileByName(c.Capture.Profile); err != nil {
		return err
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = DefaultDataDir
	}
	if c.Storage.RetentionDays <= 0 {
		c.Storage.RetentionDays = DefaultRetentionDays
	}
	if c.Storage.BatchSize <= 0 {
		c.Storage.BatchSize = DefaultBatchSize
	}

	if c.Analysis.OutputDir == "" {
		c.Analysis.OutputDir = DefaultAnalysisDir
	}
	if c.Analysis.Workers <= 0 {
		c.Analysis.Workers = DefaultWorkers
	}
	if c.Analysis.QueueSize <= 0 {
		c.Analysis.QueueSize = DefaultJobQueueSize
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	return nil
}

// QueueSize resolves the packet queue depth from the profile.
func (c *Config) QueueSize() int {
	p, err := ProfileByName(c.Capture.Profile)
	if err != nil {
		return profiles[DefaultProfile].QueueSize
	}
	return p.QueueSize
}

// BufferSize resolves the kernel buffer size from the profile.
func (c *Config) BufferSize() int {
	p, err := ProfileByName(c.Capture.Profile)
	if err != nil {
		return profiles[DefaultProfile].BufferSize
	}
	return p.BufferSize
}
