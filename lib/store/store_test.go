package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testStores(t *testing.T, limit int) map[string]Store {
	t.Helper()
	bs, err := OpenBolt(filepath.Join(t.TempDir(), "views.db"), limit)
	if err != nil {
		t.Fatalf("OpenBolt failed: %v", err)
	}
	t.Cleanup(func() { bs.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(limit),
		"bolt":   bs,
	}
}

func TestPutGetDelete(t *testing.T) {
	for name, s := range testStores(t, 0) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put("a", []byte("one")); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if err := s.Put("a", []byte("two")); err != nil {
				t.Fatalf("Put (overwrite) failed: %v", err)
			}
			got, err := s.Get("a")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if diff := cmp.Diff([]byte("two"), got); diff != "" {
				t.Errorf("Get mismatch (-want +got):\n%s", diff)
			}

			if err := s.Delete("a"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get after Delete = %v, want ErrNotFound", err)
			}
			if err := s.Delete("missing"); err != nil {
				t.Errorf("Delete(missing) = %v, want nil", err)
			}
		})
	}
}

func TestEviction(t *testing.T) {
	for name, s := range testStores(t, 2) {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"a", "b", "c"} {
				if err := s.Put(k, []byte(k)); err != nil {
					t.Fatalf("Put(%s) failed: %v", k, err)
				}
			}
			if _, err := s.Get("a"); !errors.Is(err, ErrNotFound) {
				t.Errorf("oldest entry not evicted: %v", err)
			}
			for _, k := range []string{"b", "c"} {
				if _, err := s.Get(k); err != nil {
					t.Errorf("Get(%s) failed: %v", k, err)
				}
			}
		})
	}
}

func TestMemoryStoreTouchOnGet(t *testing.T) {
	s := NewMemoryStore(2)
	s.Put("a", []byte("a"))
	s.Put("b", []byte("b"))
	if _, err := s.Get("a"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	s.Put("c", []byte("c"))

	if _, err := s.Get("b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("least recently used entry not evicted: %v", err)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore(0)
	data := []byte("abc")
	s.Put("k", data)
	data[0] = 'x'

	got, _ := s.Get("k")
	got[1] = 'y'
	again, _ := s.Get("k")
	if string(again) != "abc" {
		t.Errorf("stored data was aliased: %q", again)
	}
}

func TestMemoryStoreUnbounded(t *testing.T) {
	s := NewMemoryStore(0)
	for i := 0; i < 1000; i++ {
		s.Put(fmt.Sprint(i), []byte{byte(i)})
	}
	if s.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", s.Len())
	}
	if _, err := s.Get("0"); err != nil {
		t.Errorf("Get(0) failed: %v", err)
	}
}
