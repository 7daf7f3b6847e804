package blob

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tdfffffffff/bto-housing-management-system/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	fsStore, err := Open(ctx, config.Blob{FSRoot: filepath.Join(t.TempDir(), "blobs")})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("expected fs default, got %s", fsStore.Driver())
	}
	mem, err := Open(ctx, config.Blob{Driver: "memory"})
	if err != nil || mem.Driver() != DriverMemory {
		t.Fatalf("open memory: %v", err)
	}
	s3, err := Open(ctx, config.Blob{Driver: "s3", S3: config.S3{Bucket: "receipts", Region: "ap-southeast-1", AccessKeyID: "AKIA", SecretAccessKey: "SECRET"}})
	if err != nil || s3.Driver() != DriverS3 {
		t.Fatalf("open s3: %v", err)
	}
	if _, err := Open(ctx, config.Blob{Driver: "s3"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
	if _, err := Open(ctx, config.Blob{Driver: "tape"}); err == nil || !strings.Contains(err.Error(), "unknown blob driver") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}

func TestMockS3RoundTrip(t *testing.T) {
	store := NewMockS3ForTests()
	ctx := context.Background()
	if _, err := store.Put(ctx, "receipts/1/x.json", strings.NewReader("{}"), PutOptions{ContentType: "application/json"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	url, err := store.PresignURL(ctx, "receipts/1/x.json", SignedURLOptions{})
	if err != nil || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("presign: %v %s", err, url)
	}
}
