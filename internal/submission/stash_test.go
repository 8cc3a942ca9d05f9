package submission

import (
	"context"
	"errors"
	"testing"
)

func TestStash_RecordsOnlySuccessfulUploads(t *testing.T) {
	next := &mockUploader{failOn: map[string]error{"left": errors.New("boom")}}
	s := NewStash(next)
	ctx := context.Background()

	if err := s.Upload(ctx, "s/front-1.jpg", jpeg, "image/jpeg"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := s.Upload(ctx, "s/left-1.jpg", jpeg, "image/jpeg"); err == nil {
		t.Fatal("expected forwarded error")
	}

	data, ct, ok := s.Image("s/front-1.jpg")
	if !ok || ct != "image/jpeg" || len(data) != len(jpeg) {
		t.Fatalf("Image(front) = %d bytes, %q, %v", len(data), ct, ok)
	}
	if _, _, ok := s.Image("s/left-1.jpg"); ok {
		t.Fatal("failed upload was stashed")
	}
	if len(next.calls) != 2 {
		t.Fatalf("forwarded %d uploads, want 2", len(next.calls))
	}
}

func TestStash_LocalOnly(t *testing.T) {
	s := NewStash(nil)
	if err := s.Upload(context.Background(), "p", []byte("x"), "image/png"); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if _, _, ok := s.Image("p"); !ok {
		t.Fatal("expected stashed object")
	}
}
