// Package config loads ratecalc settings from an optional TOML file and
// RATECALC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Storage drivers accepted by StorageConfig.Driver.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Metrics exporters accepted by MetricsConfig.Exporter.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
)

// Config is the full runtime configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Blob    BlobConfig    `toml:"blob"`
	Log     LogConfig     `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
	Trace   TraceConfig   `toml:"trace"`
}

// StorageConfig selects the catalog persistence backend.
type StorageConfig struct {
	Driver      string `toml:"driver"`
	SQLitePath  string `toml:"sqlite_path"`
	PostgresDSN string `toml:"postgres_dsn"`
}

// BlobConfig selects the blob store used for catalog archives.
type BlobConfig struct {
	Driver string   `toml:"driver"`
	Root   string   `toml:"root"`
	S3     S3Config `toml:"s3"`
}

// S3Config configures the S3 / MinIO blob driver.
type S3Config struct {
	Bucket          string `toml:"bucket"`
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	PathStyle       bool   `toml:"path_style"`
}

// LogConfig controls the CLI logger.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

// MetricsConfig controls metric export. Textfile receives the Prometheus
// text format or, for the expvar exporter, a JSON document.
type MetricsConfig struct {
	Exporter  string `toml:"exporter"`
	Namespace string `toml:"namespace"`
	Textfile  string `toml:"textfile"`
}

// TraceConfig enables span output. File is appended to, one JSON line per
// service operation.
type TraceConfig struct {
	File string `toml:"file"`
}

// Default returns the configuration used when no file or overrides are given.
func Default() Config {
	return Config{
		Storage: StorageConfig{Driver: StorageSQLite, SQLitePath: "ratecalc.db"},
		Blob:    BlobConfig{Driver: "fs", Root: "./blobdata"},
		Log:     LogConfig{Level: "warn", Format: "text"},
		Metrics: MetricsConfig{Exporter: MetricsPrometheus, Namespace: "ratecalc"},
	}
}

// Load reads path over the defaults, then applies environment overrides. An
// empty path skips the file.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
		md, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("parsing config %s: unknown key %s", path, undecoded[0])
		}
	}
	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"RATECALC_STORAGE_DRIVER":        &cfg.Storage.Driver,
		"RATECALC_SQLITE_PATH":           &cfg.Storage.SQLitePath,
		"RATECALC_POSTGRES_DSN":          &cfg.Storage.PostgresDSN,
		"RATECALC_BLOB_DRIVER":           &cfg.Blob.Driver,
		"RATECALC_BLOB_FS_ROOT":          &cfg.Blob.Root,
		"RATECALC_BLOB_S3_BUCKET":        &cfg.Blob.S3.Bucket,
		"RATECALC_BLOB_S3_REGION":        &cfg.Blob.S3.Region,
		"RATECALC_BLOB_S3_ENDPOINT":      &cfg.Blob.S3.Endpoint,
		"RATECALC_BLOB_S3_ACCESS_KEY_ID": &cfg.Blob.S3.AccessKeyID,
		"RATECALC_BLOB_S3_SECRET_KEY":    &cfg.Blob.S3.SecretAccessKey,
		"RATECALC_LOG_LEVEL":             &cfg.Log.Level,
		"RATECALC_LOG_FORMAT":            &cfg.Log.Format,
		"RATECALC_METRICS_EXPORTER":      &cfg.Metrics.Exporter,
		"RATECALC_METRICS_NAMESPACE":     &cfg.Metrics.Namespace,
		"RATECALC_METRICS_TEXTFILE":      &cfg.Metrics.Textfile,
		"RATECALC_TRACE_FILE":            &cfg.Trace.File,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("RATECALC_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RATECALC_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	return nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch strings.ToLower(c.Storage.Driver) {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case "", "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch strings.ToLower(c.Metrics.Exporter) {
	case "", MetricsPrometheus, MetricsExpvar:
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Metrics.Exporter)
	}
	return nil
}
