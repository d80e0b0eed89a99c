package s3

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/cognoma/genes/internal/blob/core"
)

func TestStore_MockedBasicFlow(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	info, err := store.Put(ctx, "out/genes.tsv", bytes.NewReader([]byte("hello")), core.PutOptions{ContentType: "text/tab-separated-values"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "out/genes.tsv" || info.ContentType != "text/tab-separated-values" || info.Size < 5 {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, err := store.Put(ctx, "out/genes.tsv", bytes.NewReader([]byte("ignored")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put error")
	}
	if _, err := store.Head(ctx, "out/genes.tsv"); err != nil {
		t.Fatalf("head: %v", err)
	}
	_, rc, err := store.Get(ctx, "out/genes.tsv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "hello" {
		t.Fatalf("get mismatch: %q", string(data))
	}
	list, err := store.List(ctx, "out/")
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %+v", err, list)
	}
	if ok, err := store.Delete(ctx, "out/genes.tsv"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "out/genes.tsv"); err == nil {
		t.Fatalf("expected head miss after delete")
	}
}

func TestStore_New(t *testing.T) {
	_ = os.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	_ = os.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	defer func() {
		_ = os.Unsetenv("AWS_ACCESS_KEY_ID")
		_ = os.Unsetenv("AWS_SECRET_ACCESS_KEY")
	}()
	s, err := New(context.Background(), Config{Bucket: "bkt", Region: "us-east-1", Endpoint: "https://mock.s3.local", PathStyle: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Driver() != core.DriverS3 {
		t.Fatalf("expected DriverS3")
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("expected error for missing bucket")
	}
}

func TestStore_OpenFromEnv(t *testing.T) {
	t.Setenv("GENES_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without bucket")
	}
	t.Setenv("GENES_BLOB_S3_BUCKET", "env-bucket")
	t.Setenv("GENES_BLOB_S3_REGION", "us-east-1")
	if _, err := OpenFromEnv(context.Background()); err != nil {
		t.Fatalf("OpenFromEnv: %v", err)
	}
}

func TestStore_ErrorPaths(t *testing.T) {
	store := NewMockForTests()
	ctx := context.Background()
	if _, err := store.Head(ctx, "nope"); err == nil {
		t.Fatalf("expected head error for missing key")
	}
	if _, _, err := store.Get(ctx, "nope"); err == nil {
		t.Fatalf("expected get error for missing key")
	}
}

func TestStore_FromHeadNilBranches(t *testing.T) {
	store := NewMockForTests()
	info := store.fromHead("k", 10, nil, aws.String("\"etagval\""), map[string]string{"x": "y"}, nil)
	if info.ETag != "etagval" || info.ContentType != "" || info.Key != "k" || info.Size != 10 {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestDecodeChunkedHelper(t *testing.T) {
	if _, ok := decodeChunked([]byte("not-chunked")); ok {
		t.Fatalf("expected fail for non-chunked payload")
	}
	if _, ok := decodeChunked([]byte("5\r\nabc\r\n0\r\n")); ok {
		t.Fatalf("size mismatch should fail")
	}
	if b, ok := decodeChunked([]byte("5\r\nhello\r\n0\r\n")); !ok || string(b) != "hello" {
		t.Fatalf("expected decode hello")
	}
}

func TestMockRoundTripperUnsupported(t *testing.T) {
	rt := &mockRoundTripper{state: make(map[string]mockObj)}
	req, _ := http.NewRequest(http.MethodPatch, "https://mock.s3.local/bucket/key", nil)
	resp, _ := rt.RoundTrip(req)
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", resp.StatusCode)
	}
}
