package cache

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// runStoreTests exercises the Store contract against any implementation.
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("get set roundtrip", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if err := s.Set(ctx, "k1", []byte("v1"), 0); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !bytes.Equal(got, []byte("v1")) {
			t.Errorf("Get = %q, want %q", got, "v1")
		}
	})

	t.Run("missing key", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if _, err := s.Get(ctx, "absent"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_ = s.Set(ctx, "k", []byte("old"), 0)
		_ = s.Set(ctx, "k", []byte("new"), 0)
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "new" {
			t.Errorf("Get = %q, want %q", got, "new")
		}
	})

	t.Run("ttl expiry", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		if err := s.Set(ctx, "fleeting", []byte("v"), 20*time.Millisecond); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, err := s.Get(ctx, "fleeting"); err != nil {
			t.Fatalf("Get before expiry failed: %v", err)
		}

		time.Sleep(50 * time.Millisecond)
		if _, err := s.Get(ctx, "fleeting"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after expiry, got %v", err)
		}
	})

	t.Run("list range", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, v := range []string{"a", "b", "c", "d", "e"} {
			if err := s.ListAppend(ctx, "l", []byte(v)); err != nil {
				t.Fatalf("ListAppend failed: %v", err)
			}
		}

		tests := []struct {
			name        string
			start, stop int
			expected    []string
		}{
			{"full", 0, -1, []string{"a", "b", "c", "d", "e"}},
			{"last three", -3, -1, []string{"c", "d", "e"}},
			{"middle", 1, 3, []string{"b", "c", "d"}},
			{"stop past end clamps", 0, 100, []string{"a", "b", "c", "d", "e"}},
			{"window larger than list", -100, -1, []string{"a", "b", "c", "d", "e"}},
			{"inverted is empty", 3, 1, nil},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.ListRange(ctx, "l", tt.start, tt.stop)
				if err != nil {
					t.Fatalf("ListRange failed: %v", err)
				}
				if len(got) != len(tt.expected) {
					t.Fatalf("ListRange returned %d elements, want %d", len(got), len(tt.expected))
				}
				for i, v := range got {
					if string(v) != tt.expected[i] {
						t.Errorf("element %d = %q, want %q", i, v, tt.expected[i])
					}
				}
			})
		}
	})

	t.Run("list range absent list", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		got, err := s.ListRange(ctx, "nope", 0, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty range, got %d elements", len(got))
		}
	})

	t.Run("list trim keeps newest", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		for _, v := range []string{"a", "b", "c", "d", "e"} {
			_ = s.ListAppend(ctx, "l", []byte(v))
		}
		if err := s.ListTrim(ctx, "l", -2, -1); err != nil {
			t.Fatalf("ListTrim failed: %v", err)
		}

		got, err := s.ListRange(ctx, "l", 0, -1)
		if err != nil {
			t.Fatalf("ListRange failed: %v", err)
		}
		if len(got) != 2 || string(got[0]) != "d" || string(got[1]) != "e" {
			t.Errorf("after trim got %q, want [d e]", got)
		}
	})

	t.Run("len counts prefix", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_ = s.Set(ctx, "cache:exact:1", []byte("v"), 0)
		_ = s.Set(ctx, "cache:exact:2", []byte("v"), 0)
		_ = s.Set(ctx, "cache:emb:1", []byte("v"), 0)

		n, err := s.Len(ctx, "cache:exact:")
		if err != nil {
			t.Fatalf("Len failed: %v", err)
		}
		if n != 2 {
			t.Errorf("Len = %d, want 2", n)
		}
	})

	t.Run("clear", func(t *testing.T) {
		s := newStore(t)
		defer s.Close()

		_ = s.Set(ctx, "k", []byte("v"), 0)
		_ = s.ListAppend(ctx, "l", []byte("v"))

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound after clear, got %v", err)
		}
		got, _ := s.ListRange(ctx, "l", 0, -1)
		if len(got) != 0 {
			t.Errorf("list survived clear: %q", got)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
		if err != nil {
			t.Fatalf("failed to open sqlite store: %v", err)
		}
		return s
	})
}
