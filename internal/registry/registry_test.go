package registry

import (
	"context"
	"sync"
	"testing"

	"active-session-gateway/internal/protocol"
)

type fakeConn struct {
	id string
}

func (f *fakeConn) Send(ctx context.Context, _ protocol.Frame) error { return nil }
func (f *fakeConn) Close(string)                                     {}

func TestRegistry_RegisterAndFind(t *testing.T) {
	r := New()
	c := &fakeConn{id: "a"}

	r.Register("u1", "s1", c)

	got, ok := r.Find("u1", "s1")
	if !ok {
		t.Fatal("Find should locate a registered connection")
	}
	if got != c {
		t.Error("Find returned a different connection")
	}
}

func TestRegistry_RegisterOverwrites(t *testing.T) {
	r := New()
	first := &fakeConn{id: "a"}
	second := &fakeConn{id: "b"}

	r.Register("u1", "s1", first)
	r.Register("u1", "s1", second)

	got, ok := r.Find("u1", "s1")
	if !ok {
		t.Fatal("Find should locate the connection")
	}
	if got != second {
		t.Error("re-registering the same sessionId should overwrite (last writer wins)")
	}
	if r.Count("u1") != 1 {
		t.Errorf("Count = %d, want 1", r.Count("u1"))
	}
}

func TestRegistry_UnregisterIdempotent(t *testing.T) {
	r := New()
	r.Register("u1", "s1", &fakeConn{})

	r.Unregister("u1", "s1")
	if _, ok := r.Find("u1", "s1"); ok {
		t.Fatal("connection should be gone after Unregister")
	}

	// Second removal races are expected from close events; must not panic
	// and must leave the registry unchanged.
	r.Unregister("u1", "s1")
	r.Unregister("u2", "s9")
	if r.Count("u1") != 0 {
		t.Errorf("Count = %d, want 0", r.Count("u1"))
	}
}

func TestRegistry_ListOthers(t *testing.T) {
	r := New()
	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	c := &fakeConn{id: "c"}
	r.Register("u1", "s1", a)
	r.Register("u1", "s2", b)
	r.Register("u1", "s3", c)
	r.Register("u2", "s4", &fakeConn{id: "d"})

	others := r.ListOthers("u1", "s2")
	if len(others) != 2 {
		t.Fatalf("ListOthers = %d connections, want 2", len(others))
	}
	for _, conn := range others {
		if conn == b {
			t.Error("ListOthers must exclude the given sessionId")
		}
	}
}

func TestRegistry_ListOthers_Empty(t *testing.T) {
	r := New()

	if others := r.ListOthers("u1", "s1"); len(others) != 0 {
		t.Errorf("ListOthers for an unknown user = %d connections, want 0", len(others))
	}

	r.Register("u1", "s1", &fakeConn{})
	if others := r.ListOthers("u1", "s1"); len(others) != 0 {
		t.Errorf("ListOthers excluding the only session = %d connections, want 0", len(others))
	}
}

func TestRegistry_InnerMapRemovedWhenEmpty(t *testing.T) {
	r := New()
	r.Register("u1", "s1", &fakeConn{})
	r.Unregister("u1", "s1")

	r.mu.RLock()
	_, ok := r.users["u1"]
	r.mu.RUnlock()
	if ok {
		t.Error("outer entry should be removed once the inner map is empty")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			sid := "s" + string(rune('0'+id))
			r.Register("u1", sid, &fakeConn{id: sid})
			r.ListOthers("u1", sid)
			r.Find("u1", sid)
			r.Unregister("u1", sid)
		}(i)
	}
	wg.Wait()

	if r.Count("u1") != 0 {
		t.Errorf("Count = %d, want 0 after all goroutines unregister", r.Count("u1"))
	}
}
