package core

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"ratecalc/pkg/domain"
)

func in(ing Ingredient, count float64) IngredientWithCount {
	return IngredientWithCount{Ingredient: ing, Count: count}
}

// plankCatalog holds Plank <- 2 Log at 2s per plank.
func plankCatalog() *Catalog {
	cat := domain.NewCatalog()
	cat.PutRecipe("Plank", Recipe{CraftTime: 2, OutputNum: 1, Inputs: []IngredientWithCount{in("Log", 2)}})
	return cat
}

// diamondCatalog: Tool needs Plank and Stone, Plank needs Wood and Stone.
func diamondCatalog() *Catalog {
	cat := domain.NewCatalog()
	cat.PutRecipe("Plank", Recipe{CraftTime: 1, OutputNum: 1, Inputs: []IngredientWithCount{in("Wood", 2), in("Stone", 1)}})
	cat.PutRecipe("Tool", Recipe{CraftTime: 4, OutputNum: 1, Inputs: []IngredientWithCount{in("Plank", 1), in("Stone", 3)}})
	return cat
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewInMemoryService(nil, opts...)
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) has(level, msg, op string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level != level || e.msg != msg {
			continue
		}
		if op == "" {
			return true
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == "operation" && e.args[i+1] == op {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type spanRecord struct {
	op  string
	err error
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op && (record.err == nil) == success {
			return true
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

// stepClock advances by step on every call to Now.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
