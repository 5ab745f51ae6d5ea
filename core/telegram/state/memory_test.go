package state

import (
	"sync"
	"testing"
)

func TestMemoryStoreOverwrites(t *testing.T) {
	s := NewMemory[string]()
	if _, ok := s.Get(1); ok {
		t.Fatalf("empty store returned a state")
	}
	s.Put(1, "a")
	s.Put(1, "b")
	if got, ok := s.Get(1); !ok || got != "b" {
		t.Fatalf("expected b, got %q (%v)", got, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one session, got %d", s.Len())
	}
	if !s.Delete(1) || s.Delete(1) {
		t.Fatalf("delete should succeed once")
	}
}

func TestMemoryStoreConcurrentUsers(t *testing.T) {
	s := NewMemory[int]()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Put(id, int(id))
			if v, ok := s.Get(id); !ok || v != int(id) {
				t.Errorf("user %d: got %d (%v)", id, v, ok)
			}
		}(int64(i))
	}
	wg.Wait()
	if s.Len() != 50 {
		t.Fatalf("expected 50 sessions, got %d", s.Len())
	}
}
