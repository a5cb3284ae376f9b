package assistant

import (
	"testing"
	"time"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(8, time.Minute, "Hello!")
	sess := store.Create()
	if sess.ID == "" {
		t.Fatal("session has no id")
	}
	if msgs := sess.Messages(); len(msgs) != 1 || msgs[0].Content != "Hello!" {
		t.Fatalf("greeting not seeded: %+v", msgs)
	}

	got, ok := store.Get(sess.ID)
	if !ok || got != sess {
		t.Fatalf("lookup returned (%v, %v)", got, ok)
	}
	if _, ok := store.Get("sess-unknown"); ok {
		t.Fatal("unknown id resolved")
	}
}

func TestStore_Delete(t *testing.T) {
	store := NewStore(8, time.Minute, "")
	sess := store.Create()
	store.Delete(sess.ID)
	if _, ok := store.Get(sess.ID); ok {
		t.Fatal("deleted session still live")
	}
	if store.Len() != 0 {
		t.Fatalf("store len = %d", store.Len())
	}
}

func TestStore_EvictsPastCapacity(t *testing.T) {
	store := NewStore(2, time.Minute, "")
	first := store.Create()
	store.Create()
	store.Create()
	if store.Len() != 2 {
		t.Fatalf("store len = %d", store.Len())
	}
	if _, ok := store.Get(first.ID); ok {
		t.Fatal("oldest session survived eviction")
	}
}
