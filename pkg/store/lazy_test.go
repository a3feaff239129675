package store

import (
	"context"
	"errors"
	"testing"
)

func TestLazy_BuildsOnce(t *testing.T) {
	builds := 0
	lazy := NewLazy(func(ctx context.Context) (int, error) {
		builds++
		return 42, nil
	})

	for i := 0; i < 3; i++ {
		v, err := lazy.Get(context.Background())
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if v != 42 {
			t.Fatalf("Get() = %d, want 42", v)
		}
	}

	if builds != 1 {
		t.Fatalf("expected 1 build, got %d", builds)
	}
}

func TestLazy_RetriesAfterFailure(t *testing.T) {
	builds := 0
	lazy := NewLazy(func(ctx context.Context) (string, error) {
		builds++
		if builds == 1 {
			return "", errors.New("backend unreachable")
		}
		return "ready", nil
	})

	if _, err := lazy.Get(context.Background()); err == nil {
		t.Fatal("expected first Get to fail")
	}

	v, err := lazy.Get(context.Background())
	if err != nil {
		t.Fatalf("second Get() error: %v", err)
	}
	if v != "ready" {
		t.Fatalf("Get() = %q, want %q", v, "ready")
	}
	if builds != 2 {
		t.Fatalf("expected 2 builds, got %d", builds)
	}
}
