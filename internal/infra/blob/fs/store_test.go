package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ratecalc/internal/blob/core"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestFilesystemStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	if s.Driver() != core.DriverFilesystem {
		t.Fatalf("unexpected driver %s", s.Driver())
	}

	info, err := s.Put(ctx, "catalogs/base/v1.json", strings.NewReader(`{"a":1}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"recipes": "1"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ETag == "" || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "catalogs/base/v1.json", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	got, rc, err := s.Get(ctx, "catalogs/base/v1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"a":1}` || got.Metadata["recipes"] != "1" {
		t.Fatalf("unexpected get %q %+v", body, got)
	}
	if !got.LastModified.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp %v", got.LastModified)
	}

	head, err := s.Head(ctx, "catalogs/base/v1.json")
	if err != nil || head.ETag != info.ETag {
		t.Fatalf("head mismatch %+v %v", head, err)
	}

	if _, err := s.Put(ctx, "catalogs/other/v1.json", strings.NewReader("{}"), core.PutOptions{}); err != nil {
		t.Fatalf("put other: %v", err)
	}
	list, err := s.List(ctx, "catalogs/base/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Key != "catalogs/base/v1.json" {
		t.Fatalf("unexpected list %+v", list)
	}
	all, err := s.List(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two blobs, got %+v %v", all, err)
	}

	existed, err := s.Delete(ctx, "catalogs/base/v1.json")
	if err != nil || !existed {
		t.Fatalf("delete: %v %v", existed, err)
	}
	existed, err = s.Delete(ctx, "catalogs/base/v1.json")
	if err != nil || existed {
		t.Fatalf("second delete: %v %v", existed, err)
	}
	if _, _, err := s.Get(ctx, "catalogs/base/v1.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Head(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
}

func TestFilesystemStoreRejectsInvalidKeys(t *testing.T) {
	s := newStore(t)
	for _, key := range []string{"", "  ", "../escape", "/abs", "a/../b", "x.meta", lockFileName} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %q, got %v", key, err)
		}
	}
}

func TestFilesystemStoreCorruptMeta(t *testing.T) {
	s := newStore(t)
	data := filepath.Join(s.Root(), "bad.json")
	if err := os.WriteFile(data, []byte("data"), 0o600); err != nil {
		t.Fatalf("write data: %v", err)
	}
	if err := os.WriteFile(data+metaSuffix, []byte("{"), 0o600); err != nil {
		t.Fatalf("write meta: %v", err)
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list error on corrupt meta")
	}
	if _, _, err := s.Get(context.Background(), "bad.json"); err == nil {
		t.Fatalf("expected get error on corrupt meta")
	}
}

func TestFilesystemStoreLockBusy(t *testing.T) {
	s := newStore(t)
	other, err := New(s.Root())
	if err != nil {
		t.Fatalf("second handle: %v", err)
	}
	if ok, err := other.lock.TryLock(); err != nil || !ok {
		t.Fatalf("hold lock: %v %v", ok, err)
	}
	defer func() { _ = other.lock.Unlock() }()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := s.Put(ctx, "k", strings.NewReader("v"), core.PutOptions{}); err == nil || !strings.Contains(err.Error(), "lock blob root") {
		t.Fatalf("expected lock error, got %v", err)
	}
}
