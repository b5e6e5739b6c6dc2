package blob_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Plan-for-tomorrow2013/plan-for-tomorrow-sub002/internal/blob"
)

func newStore(t *testing.T) *blob.Store {
	t.Helper()
	s, err := blob.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	payload := []byte("bushfire assessment report body")
	n, err := s.Put(ctx, "Bushfire/report.pdf", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("expected %d bytes written got %d", len(payload), n)
	}

	r, err := s.Get(ctx, "Bushfire/report.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer r.Close()
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q", got)
	}

	size, err := s.Stat(ctx, "Bushfire/report.pdf")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if size != int64(len(payload)) {
		t.Fatalf("expected size %d got %d", len(payload), size)
	}
}

func TestGetMissing(t *testing.T) {
	s := newStore(t)
	if _, err := s.Get(context.Background(), "nope/missing.pdf"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestExists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	ok, err := s.Exists(ctx, "a/b.txt")
	if err != nil || ok {
		t.Fatalf("expected absent, got ok=%v err=%v", ok, err)
	}
	if _, err := s.Put(ctx, "a/b.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err = s.Exists(ctx, "a/b.txt")
	if err != nil || !ok {
		t.Fatalf("expected present, got ok=%v err=%v", ok, err)
	}
}

func TestCopyLeavesSource(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	if _, err := s.Put(ctx, "Heritage/doc.pdf", strings.NewReader("heritage study")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	n, err := s.Copy(ctx, "Heritage/doc.pdf", "jobs/J1/documents/Heritage_1_doc.pdf")
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != int64(len("heritage study")) {
		t.Fatalf("unexpected copy size %d", n)
	}
	for _, p := range []string{"Heritage/doc.pdf", "jobs/J1/documents/Heritage_1_doc.pdf"} {
		ok, err := s.Exists(ctx, p)
		if err != nil || !ok {
			t.Fatalf("expected %s present, got ok=%v err=%v", p, ok, err)
		}
	}
}

func TestCopyMissingSource(t *testing.T) {
	s := newStore(t)
	if _, err := s.Copy(context.Background(), "gone.pdf", "dst.pdf"); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	s := newStore(t)
	if _, err := s.Put(context.Background(), "../escape.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

func TestCanceledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Put(ctx, "a.txt", strings.NewReader("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}
