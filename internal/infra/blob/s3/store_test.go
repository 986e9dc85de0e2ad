package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"ratecalc/internal/blob/core"
)

func TestMockStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMockForTests()
	if s.Driver() != core.DriverS3 || s.Bucket() != "mock-bucket" {
		t.Fatalf("unexpected driver/bucket %s %s", s.Driver(), s.Bucket())
	}

	info, err := s.Put(ctx, "catalogs/base/1.json", strings.NewReader(`{"v":1}`), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"recipes": "3"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "application/json" || info.ETag == "" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Metadata["recipes"] != "3" {
		t.Fatalf("expected metadata round trip, got %+v", info.Metadata)
	}
	if _, err := s.Put(ctx, "catalogs/base/1.json", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}

	_, rc, err := s.Get(ctx, "catalogs/base/1.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != `{"v":1}` {
		t.Fatalf("unexpected body %q", body)
	}

	for _, k := range []string{"catalogs/base/2.json", "catalogs/base/3.json", "catalogs/other/1.json"} {
		if _, err := s.Put(ctx, k, strings.NewReader("{}"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := s.List(ctx, "catalogs/base/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[2].Key != "catalogs/base/3.json" {
		t.Fatalf("expected paged listing of three keys, got %+v", list)
	}

	existed, err := s.Delete(ctx, "catalogs/base/1.json")
	if err != nil || !existed {
		t.Fatalf("delete: %v %v", existed, err)
	}
	existed, err = s.Delete(ctx, "catalogs/base/1.json")
	if err != nil || existed {
		t.Fatalf("second delete: %v %v", existed, err)
	}
	if _, err := s.Head(ctx, "catalogs/base/1.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := s.Get(ctx, "catalogs/base/1.json"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
	s, err := New(context.Background(), Config{Bucket: "b", Endpoint: "http://localhost:9000", AccessKeyID: "k", SecretAccessKey: "s", PathStyle: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Bucket() != "b" {
		t.Fatalf("unexpected bucket %s", s.Bucket())
	}
}

func TestDecodeChunked(t *testing.T) {
	got, ok := decodeChunked([]byte("5;chunk-signature=abc\r\nhello\r\n0\r\nx-amz-checksum-crc32:AAAA\r\n\r\n"))
	if !ok || string(got) != "hello" {
		t.Fatalf("unexpected decode %q %v", got, ok)
	}
	if _, ok := decodeChunked([]byte(`{"plain":true}`)); ok {
		t.Fatalf("plain body must not decode")
	}
}

func TestInvalidKey(t *testing.T) {
	if _, err := NewMockForTests().Put(context.Background(), " ", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, core.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
