package config

import (
	"fmt"

	"github.com/spf13/viper"

	"nvmenv/internal/arch"
)

const (
	DefaultHeapSize   = 256 << 20
	DefaultRegionSize = 4 << 20
	DefaultLogLevel   = "WARN"
)

// Config is the process-wide environment configuration, read from
// environment variables.
type Config struct {
	// PoolDir holds the object files of a file-backed pmem pool. Empty means
	// a volatile in-memory heap.
	PoolDir string `mapstructure:"pool_dir"`
	// HeapSize is the address space reserved for the volatile heap.
	HeapSize int `mapstructure:"heap_size"`
	// RegionSize is the fixed capacity of every region a writer allocates.
	RegionSize int `mapstructure:"region_size"`
	// MmapLimit bounds concurrent read-only mappings of filesystem files.
	MmapLimit int    `mapstructure:"mmap_limit"`
	LogLevel  string `mapstructure:"log_level"`
	// TestTmpDir overrides the directory handed to tests.
	TestTmpDir string `mapstructure:"test_tmpdir"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	bindEnvVars(v)

	v.SetDefault("heap_size", DefaultHeapSize)
	v.SetDefault("region_size", DefaultRegionSize)
	v.SetDefault("mmap_limit", arch.MaxMappings)
	v.SetDefault("log_level", DefaultLogLevel)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config from environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("pool_dir", "NVMENV_POOL_DIR")
	_ = v.BindEnv("heap_size", "NVMENV_HEAP_SIZE")
	_ = v.BindEnv("region_size", "NVMENV_REGION_SIZE")
	_ = v.BindEnv("mmap_limit", "NVMENV_MMAP_LIMIT")
	_ = v.BindEnv("log_level", "NVMENV_LOG_LEVEL")
	_ = v.BindEnv("test_tmpdir", "TEST_TMPDIR")
}

func (c *Config) validate() error {
	if c.HeapSize < 1 {
		return fmt.Errorf("config: heap size must be positive: %d", c.HeapSize)
	}
	if c.RegionSize < 1 {
		return fmt.Errorf("config: region size must be positive: %d", c.RegionSize)
	}
	if c.MmapLimit < 0 {
		return fmt.Errorf("config: mmap limit must not be negative: %d", c.MmapLimit)
	}
	return nil
}
