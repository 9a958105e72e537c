package sessions

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestPutGetDelete(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	sess := Session{Token: "t1", Username: "admin", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	s.Put(sess)

	got, ok := s.Get("t1")
	if !ok || got.Username != "admin" {
		t.Fatalf("get after put: ok=%v got=%+v", ok, got)
	}
	if s.Len() != 1 {
		t.Fatalf("len: got %d", s.Len())
	}

	s.Delete("t1")
	if _, ok := s.Get("t1"); ok {
		t.Fatal("get after delete should miss")
	}
	// deleting again is a no-op
	s.Delete("t1")
	if s.Len() != 0 {
		t.Fatalf("len after delete: got %d", s.Len())
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now()
	s.Put(Session{Token: "live", ExpiresAt: now.Add(time.Hour)})
	s.Put(Session{Token: "dead", ExpiresAt: now.Add(-time.Second)})

	if n := s.Sweep(now); n != 1 {
		t.Fatalf("sweep removed %d, want 1", n)
	}
	if _, ok := s.Get("live"); !ok {
		t.Fatal("live session swept")
	}
	if _, ok := s.Get("dead"); ok {
		t.Fatal("expired session survived sweep")
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("t%d", i)
			s.Put(Session{Token: token, ExpiresAt: time.Now().Add(time.Hour)})
			s.Get(token)
			if i%2 == 0 {
				s.Delete(token)
			}
		}(i)
	}
	wg.Wait()
	if s.Len() != 8 {
		t.Fatalf("len after concurrent ops: got %d, want 8", s.Len())
	}
}
