package blob

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"ratecalc/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "blobs")

	fsStore, err := Open(ctx, config.BlobConfig{Root: root})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("expected fs default, got %s", fsStore.Driver())
	}

	mem, err := Open(ctx, config.BlobConfig{Driver: "memory"})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("open memory: %v %v", mem, err)
	}

	s3, err := Open(ctx, config.BlobConfig{Driver: "s3", S3: config.S3Config{Bucket: "b", Endpoint: "http://localhost:9000", PathStyle: true}})
	if err != nil || s3.Driver() != DriverS3 {
		t.Fatalf("open s3: %v %v", s3, err)
	}

	if _, err := Open(ctx, config.BlobConfig{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	if _, err := Open(ctx, config.BlobConfig{Driver: "ftp"}); err == nil || !strings.Contains(err.Error(), "unknown blob driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestMockS3ForTests(t *testing.T) {
	store := NewMockS3ForTests()
	if _, err := store.Put(context.Background(), "k.json", strings.NewReader("{}"), PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	list, err := store.List(context.Background(), "")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}
}
