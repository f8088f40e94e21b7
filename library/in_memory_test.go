package library

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestInMemoryStore_SaveGetIsolation(t *testing.T) {
	s := NewInMemoryStore()
	data := []byte("hello")
	a, err := s.Save("code.png", data)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	data[0] = 'H'
	out, err := s.Get(a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(out) != "hello" {
		t.Fatalf("expected 'hello', got %q", string(out))
	}
	out[0] = 'x'
	out2, _ := s.Get(a.ID)
	if string(out2) != "hello" {
		t.Fatalf("expected isolation, got %q", string(out2))
	}
	if a.Size != 5 || a.Name != "code.png" {
		t.Fatalf("unexpected asset %+v", a)
	}
}

func TestInMemoryStore_ListRecentFirstAndDelete(t *testing.T) {
	s := NewInMemoryStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	old, _ := s.Save("old.png", []byte("1"))
	recent, _ := s.Save("recent.png", []byte("2"))

	list, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != recent.ID || list[1].ID != old.ID {
		t.Fatalf("expected recent first, got %+v", list)
	}

	if err := s.Delete(old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Get(old.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInMemoryStore_RejectsEmptyName(t *testing.T) {
	if _, err := NewInMemoryStore().Save("", []byte("x")); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestInMemoryStore_Concurrent(t *testing.T) {
	s := NewInMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := s.Save(fmt.Sprintf("img-%d.png", i), []byte{byte(i)})
			if err != nil {
				t.Errorf("save: %v", err)
				return
			}
			if _, err := s.Get(a.ID); err != nil {
				t.Errorf("get: %v", err)
			}
		}(i)
	}
	wg.Wait()
	list, _ := s.List()
	if len(list) != 50 {
		t.Fatalf("expected 50 assets, got %d", len(list))
	}
}
