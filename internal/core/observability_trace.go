package core

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TraceRecord is one finished span as written by JSONTracer.
type TraceRecord struct {
	SpanID     string    `json:"span_id"`
	Operation  string    `json:"operation"`
	Start      time.Time `json:"start"`
	DurationMS float64   `json:"duration_ms"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// JSONTracer writes one JSON line per finished span.
type JSONTracer struct {
	clock Clock
	newID func() string

	mu  sync.Mutex
	enc *json.Encoder
	err error
}

type spanIDKey struct{}

// NewJSONTracer writes spans to w. A nil clock uses UTC wall time.
func NewJSONTracer(w io.Writer, clock Clock) *JSONTracer {
	if w == nil {
		w = io.Discard
	}
	if clock == nil {
		clock = systemClock()
	}
	return &JSONTracer{clock: clock, newID: uuid.NewString, enc: json.NewEncoder(w)}
}

// Start implements Tracer. The span id is attached to the returned context.
func (t *JSONTracer) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	rec := TraceRecord{SpanID: t.newID(), Operation: operation, Start: t.clock.Now()}
	return context.WithValue(ctx, spanIDKey{}, rec.SpanID), &jsonSpan{tracer: t, rec: rec}
}

// Err returns the first write error, if any. Later spans are dropped once a
// write has failed.
func (t *JSONTracer) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *JSONTracer) write(rec TraceRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}
	t.err = t.enc.Encode(rec)
}

// SpanID returns the id JSONTracer attached to ctx, or "" outside a span.
func SpanID(ctx context.Context) string {
	id, _ := ctx.Value(spanIDKey{}).(string)
	return id
}

type jsonSpan struct {
	tracer *JSONTracer
	once   sync.Once
	rec    TraceRecord
}

func (s *jsonSpan) End(err error) {
	s.once.Do(func() {
		s.rec.DurationMS = float64(s.tracer.clock.Now().Sub(s.rec.Start)) / float64(time.Millisecond)
		s.rec.Status = "success"
		if err != nil {
			s.rec.Status = "error"
			s.rec.Error = err.Error()
		}
		s.tracer.write(s.rec)
	})
}
