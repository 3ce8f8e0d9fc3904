package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/yungbote/pawclinic-backend/internal/platform/logger"
)

func TestLocalBucketRoundTrip(t *testing.T) {
	dir := t.TempDir()
	bs, err := NewLocalBucketService(logger.NewNop(), Config{LocalDir: dir, PublicBaseURL: "/media/"})
	if err != nil {
		t.Fatalf("NewLocalBucketService: %v", err)
	}
	ctx := context.Background()

	if err := bs.UploadFile(ctx, BucketCategoryPet, "p1/photo.png", bytes.NewReader([]byte("png"))); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	rc, err := bs.DownloadFile(ctx, BucketCategoryPet, "p1/photo.png")
	if err != nil {
		t.Fatalf("DownloadFile: %v", err)
	}
	raw, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(raw) != "png" {
		t.Fatalf("unexpected content %q", raw)
	}
	if got := bs.GetPublicURL(BucketCategoryPet, "p1/photo.png"); got != "/media/pet/p1/photo.png" {
		t.Fatalf("unexpected url %q", got)
	}
	if err := bs.DeleteFile(ctx, BucketCategoryPet, "p1/photo.png"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := bs.DeleteFile(ctx, BucketCategoryPet, "p1/photo.png"); err != nil {
		t.Fatalf("DeleteFile missing should be ignored: %v", err)
	}
}

func TestLocalBucketRejectsTraversal(t *testing.T) {
	bs, err := NewLocalBucketService(logger.NewNop(), Config{LocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewLocalBucketService: %v", err)
	}
	if err := bs.UploadFile(context.Background(), BucketCategoryProduct, "../../etc/passwd", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeLocal {
		t.Fatalf("empty mode: %v %v", m, err)
	}
	if m, err := ParseMode("GCS"); err != nil || m != ModeGCS {
		t.Fatalf("gcs mode: %v %v", m, err)
	}
	if _, err := ParseMode("s3"); err == nil {
		t.Fatalf("expected error")
	}
}
