package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ratecalc/internal/blob"
	"ratecalc/internal/config"
	"ratecalc/internal/core"
)

// runtime holds what a single invocation opened: configuration, the catalog
// store and the service wrapping it.
type runtime struct {
	cfg     config.Config
	logger  *slog.Logger
	store   core.PersistentStore
	svc     *core.Service
	archive *core.CatalogArchive

	// flushMetrics writes the configured exporter's output to a file.
	flushMetrics func(path string) error
	traceFile    *os.File
	tracer       *core.JSONTracer
}

var rt *runtime

func newLogger(w io.Writer, cfg config.LogConfig) (*slog.Logger, error) {
	var level slog.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func openRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}
	metrics, flush, err := newMetrics(cfg.Metrics)
	if err != nil {
		return err
	}
	store, err := core.OpenPersistentStore(cfg.Storage, nil)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Storage.Driver, err)
	}
	r := &runtime{cfg: cfg, logger: logger, store: store, flushMetrics: flush}
	opts := []core.Option{core.WithLogger(logger), core.WithMetricsRecorder(metrics)}
	if path := cfg.Trace.File; path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			_ = closeStore(store)
			return fmt.Errorf("opening trace file: %w", err)
		}
		r.traceFile = f
		r.tracer = core.NewJSONTracer(f, nil)
		opts = append(opts, core.WithTracer(r.tracer))
	}
	r.svc = core.NewService(store, opts...)
	rt = r
	logger.Debug("runtime opened", "storage", cfg.Storage.Driver, "metrics", cfg.Metrics.Exporter, "config", configPath)
	return nil
}

// newMetrics builds the recorder for the configured exporter and the function
// that writes its state to the metrics textfile.
func newMetrics(cfg config.MetricsConfig) (core.MetricsRecorder, func(string) error, error) {
	if strings.EqualFold(cfg.Exporter, config.MetricsExpvar) {
		rec := core.NewExpvarMetricsRecorder()
		return rec, rec.WriteFile, nil
	}
	registry := prometheus.NewRegistry()
	rec, err := core.NewPrometheusMetricsRecorder(registry, cfg.Namespace)
	if err != nil {
		return nil, nil, err
	}
	return rec, func(path string) error { return prometheus.WriteToTextfile(path, registry) }, nil
}

// catalogArchive opens the configured blob store on first use.
func (r *runtime) catalogArchive(ctx context.Context) (*core.CatalogArchive, error) {
	if r.archive != nil {
		return r.archive, nil
	}
	store, err := blob.Open(ctx, r.cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("opening blob store: %w", err)
	}
	r.archive = core.NewCatalogArchive(store, nil)
	return r.archive, nil
}

func closeStore(store core.PersistentStore) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// closeRuntime flushes metrics and traces and releases the store. It is safe
// to call when no runtime was opened.
func closeRuntime() error {
	if rt == nil {
		return nil
	}
	r := rt
	rt = nil
	var errs []error
	if path := r.cfg.Metrics.Textfile; path != "" && r.flushMetrics != nil {
		if err := r.flushMetrics(path); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	if r.traceFile != nil {
		if err := r.tracer.Err(); err != nil {
			errs = append(errs, fmt.Errorf("writing trace: %w", err))
		}
		if err := r.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing trace file: %w", err))
		}
	}
	if err := closeStore(r.store); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	return errors.Join(errs...)
}
