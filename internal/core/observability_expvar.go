package core

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ExpvarMetricsRecorder keeps per-operation counters in an expvar.Map keyed by
// operation. Each operation entry is a nested map with "success" and "error"
// counts and a "duration_ms" total.
type ExpvarMetricsRecorder struct {
	mu  sync.Mutex
	ops *expvar.Map
}

// OperationStats is the decoded form of one operation entry.
type OperationStats struct {
	Success    int64   `json:"success"`
	Error      int64   `json:"error"`
	DurationMS float64 `json:"duration_ms"`
}

// NewExpvarMetricsRecorder returns an empty recorder. It is not published;
// pass Var to expvar.Publish to serve it from /debug/vars.
func NewExpvarMetricsRecorder() *ExpvarMetricsRecorder {
	return &ExpvarMetricsRecorder{ops: new(expvar.Map).Init()}
}

// Var exposes the underlying map.
func (r *ExpvarMetricsRecorder) Var() expvar.Var { return r.ops }

// Observe implements MetricsRecorder.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	op := r.operation(operation)
	status := "success"
	if !success {
		status = "error"
	}
	op.Add(status, 1)
	op.AddFloat("duration_ms", float64(duration)/float64(time.Millisecond))
}

func (r *ExpvarMetricsRecorder) operation(name string) *expvar.Map {
	r.mu.Lock()
	defer r.mu.Unlock()
	if op, ok := r.ops.Get(name).(*expvar.Map); ok {
		return op
	}
	op := new(expvar.Map).Init()
	r.ops.Set(name, op)
	return op
}

// Snapshot decodes the current counters.
func (r *ExpvarMetricsRecorder) Snapshot() map[string]OperationStats {
	out := make(map[string]OperationStats)
	r.ops.Do(func(kv expvar.KeyValue) {
		op, ok := kv.Value.(*expvar.Map)
		if !ok {
			return
		}
		var st OperationStats
		if v, ok := op.Get("success").(*expvar.Int); ok {
			st.Success = v.Value()
		}
		if v, ok := op.Get("error").(*expvar.Int); ok {
			st.Error = v.Value()
		}
		if v, ok := op.Get("duration_ms").(*expvar.Float); ok {
			st.DurationMS = v.Value()
		}
		out[kv.Key] = st
	})
	return out
}

// WriteFile replaces path with the JSON form of the counters. The file is
// written next to path and renamed into place.
func (r *ExpvarMetricsRecorder) WriteFile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	if _, err := fmt.Fprintln(tmp, r.ops.String()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write metrics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close metrics file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
