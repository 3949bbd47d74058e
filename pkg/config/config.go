// Package config loads LibEtude's runtime configuration from environment
// variables, with an optional YAML overlay for values that are awkward to
// express as a single env var (for example the compression policy).
//
// Configuration is organized into logical sections mirroring the
// components it configures. Use LoadFromEnv to build a Config from the
// process environment, then ApplyYAML to overlay a config file, then
// Validate before using it to construct a Runtime.
//
// Example:
//
//	cfg := config.LoadFromEnv()
//	if path := os.Getenv("LIBETUDE_CONFIG_FILE"); path != "" {
//		if err := cfg.ApplyYAMLFile(path); err != nil {
//			log.Fatalf("config: %v", err)
//		}
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// QualityMode is the passive quality-mode setpoint forwarded by the
// excluded high-level engine. The core never branches on it directly; it
// is carried so callers reading RuntimeConfig can pick kernel families.
type QualityMode string

const (
	QualityFast     QualityMode = "fast"
	QualityBalanced QualityMode = "balanced"
	QualityHigh     QualityMode = "high"
)

// CompressionKind selects the LEF writer's compression policy.
type CompressionKind string

const (
	CompressionNone CompressionKind = "none"
	// CompressionZstd uses klauspost/compress/zstd.
	CompressionZstd CompressionKind = "zstd"
	// CompressionLZ4Class uses klauspost/compress/s2, a block compressor in
	// the same speed/ratio class as LZ4 — see DESIGN.md for why the LEF
	// format's "LZ4" compression kind is served by S2 rather than a true
	// LZ4 implementation.
	CompressionLZ4Class CompressionKind = "lz4class"
)

// Config holds all LibEtude configuration loaded from the environment
// and/or a YAML overlay.
//
// Sections:
//   - Kernel: registry, benchmark-cache and dispatch behavior
//   - LEF: default compression/quantization policy for the writer
//   - Monitor: resource-monitoring sample interval
//   - Logging: log level/format
//   - Quality: the passive quality-mode setpoint
type Config struct {
	Kernel  KernelConfig
	LEF     LEFConfig
	Monitor MonitorConfig
	Logging LoggingConfig
	Quality QualityMode
}

// KernelConfig controls the kernel registry and dispatch façade.
type KernelConfig struct {
	// MaxKernels bounds the registry table (spec: MAX_KERNELS = 256).
	MaxKernels int
	// BenchmarkOnInit runs the self-benchmark routine during Init.
	BenchmarkOnInit bool
	// SelectionCacheSize bounds the in-memory select() memoization cache.
	SelectionCacheSize int64
	// ScoreCacheDir, if non-empty, persists measured performance scores
	// to an embedded badger store under this directory so a later process
	// on the same host can skip re-benchmarking.
	ScoreCacheDir string
}

// LEFConfig controls the LEF writer's default policy.
type LEFConfig struct {
	Compression      CompressionKind
	CompressionLevel int
	DefaultQuant     string
}

// MonitorConfig controls the optional resource-monitoring goroutine.
type MonitorConfig struct {
	Enabled  bool
	Interval time.Duration
}

// LoggingConfig controls the ambient logging facade.
type LoggingConfig struct {
	Level  string // debug|info|warn|error
	Format string // text|json
}

// LoadFromEnv builds a Config from LIBETUDE_* environment variables,
// falling back to conservative defaults when a variable is unset.
//
// Environment Variables:
//   - LIBETUDE_QUALITY_MODE=fast|balanced|high (default balanced)
//   - LIBETUDE_MAX_KERNELS=256
//   - LIBETUDE_BENCHMARK_ON_INIT=true
//   - LIBETUDE_SELECTION_CACHE_SIZE=4096
//   - LIBETUDE_SCORE_CACHE_DIR=""
//   - LIBETUDE_LEF_COMPRESSION=none|zstd|lz4class
//   - LIBETUDE_LEF_COMPRESSION_LEVEL=3
//   - LIBETUDE_LEF_DEFAULT_QUANT=none|fp16|bf16|int8|int4|mixed
//   - LIBETUDE_MONITOR_ENABLED=false
//   - LIBETUDE_MONITOR_INTERVAL=1s
//   - LIBETUDE_LOG_LEVEL=info
//   - LIBETUDE_LOG_FORMAT=text
func LoadFromEnv() *Config {
	return &Config{
		Quality: QualityMode(getEnv("LIBETUDE_QUALITY_MODE", string(QualityBalanced))),
		Kernel: KernelConfig{
			MaxKernels:         getEnvInt("LIBETUDE_MAX_KERNELS", 256),
			BenchmarkOnInit:    getEnvBool("LIBETUDE_BENCHMARK_ON_INIT", true),
			SelectionCacheSize: int64(getEnvInt("LIBETUDE_SELECTION_CACHE_SIZE", 4096)),
			ScoreCacheDir:      getEnv("LIBETUDE_SCORE_CACHE_DIR", ""),
		},
		LEF: LEFConfig{
			Compression:      CompressionKind(getEnv("LIBETUDE_LEF_COMPRESSION", string(CompressionNone))),
			CompressionLevel: getEnvInt("LIBETUDE_LEF_COMPRESSION_LEVEL", 3),
			DefaultQuant:     getEnv("LIBETUDE_LEF_DEFAULT_QUANT", "none"),
		},
		Monitor: MonitorConfig{
			Enabled:  getEnvBool("LIBETUDE_MONITOR_ENABLED", false),
			Interval: getEnvDuration("LIBETUDE_MONITOR_INTERVAL", time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LIBETUDE_LOG_LEVEL", "info"),
			Format: getEnv("LIBETUDE_LOG_FORMAT", "text"),
		},
	}
}

// ApplyYAMLFile overlays values from a YAML file onto c. Only fields
// present in the file are overwritten, including fields set to a zero
// value; fields absent from the file keep their current values.
func (c *Config) ApplyYAMLFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}
	return c.ApplyYAML(data)
}

// yamlOverlay mirrors Config's shape but with pointer/omitempty semantics
// so unset fields in the document do not clobber env-sourced defaults.
type yamlOverlay struct {
	Quality *string `yaml:"quality"`
	Kernel  *struct {
		MaxKernels         *int    `yaml:"max_kernels"`
		BenchmarkOnInit    *bool   `yaml:"benchmark_on_init"`
		SelectionCacheSize *int64  `yaml:"selection_cache_size"`
		ScoreCacheDir      *string `yaml:"score_cache_dir"`
	} `yaml:"kernel"`
	LEF *struct {
		Compression      *string `yaml:"compression"`
		CompressionLevel *int    `yaml:"compression_level"`
		DefaultQuant     *string `yaml:"default_quant"`
	} `yaml:"lef"`
	Monitor *struct {
		Enabled  *bool   `yaml:"enabled"`
		Interval *string `yaml:"interval"`
	} `yaml:"monitor"`
	Logging *struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"logging"`
}

// ApplyYAML overlays values decoded from YAML bytes onto c.
func (c *Config) ApplyYAML(data []byte) error {
	var overlay yamlOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	if overlay.Quality != nil {
		c.Quality = QualityMode(*overlay.Quality)
	}
	if k := overlay.Kernel; k != nil {
		if k.MaxKernels != nil {
			c.Kernel.MaxKernels = *k.MaxKernels
		}
		if k.BenchmarkOnInit != nil {
			c.Kernel.BenchmarkOnInit = *k.BenchmarkOnInit
		}
		if k.SelectionCacheSize != nil {
			c.Kernel.SelectionCacheSize = *k.SelectionCacheSize
		}
		if k.ScoreCacheDir != nil {
			c.Kernel.ScoreCacheDir = *k.ScoreCacheDir
		}
	}
	if l := overlay.LEF; l != nil {
		if l.Compression != nil {
			c.LEF.Compression = CompressionKind(*l.Compression)
		}
		if l.CompressionLevel != nil {
			c.LEF.CompressionLevel = *l.CompressionLevel
		}
		if l.DefaultQuant != nil {
			c.LEF.DefaultQuant = *l.DefaultQuant
		}
	}
	if m := overlay.Monitor; m != nil {
		if m.Enabled != nil {
			c.Monitor.Enabled = *m.Enabled
		}
		if m.Interval != nil {
			if d, err := time.ParseDuration(*m.Interval); err == nil {
				c.Monitor.Interval = d
			}
		}
	}
	if lg := overlay.Logging; lg != nil {
		if lg.Level != nil {
			c.Logging.Level = *lg.Level
		}
		if lg.Format != nil {
			c.Logging.Format = *lg.Format
		}
	}
	return nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Quality {
	case QualityFast, QualityBalanced, QualityHigh:
	default:
		return fmt.Errorf("config: unknown quality mode %q", c.Quality)
	}

	if c.Kernel.MaxKernels <= 0 {
		return fmt.Errorf("config: kernel.max_kernels must be positive, got %d", c.Kernel.MaxKernels)
	}

	switch c.LEF.Compression {
	case CompressionNone, CompressionZstd, CompressionLZ4Class:
	default:
		return fmt.Errorf("config: unknown lef.compression %q", c.LEF.Compression)
	}
	if c.LEF.CompressionLevel < 0 {
		return fmt.Errorf("config: lef.compression_level must be non-negative, got %d", c.LEF.CompressionLevel)
	}

	if c.Monitor.Enabled && c.Monitor.Interval <= 0 {
		return fmt.Errorf("config: monitor.interval must be positive when monitor is enabled")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
