package state

import (
	"sync"
	"testing"
)

type session struct {
	step string
}

func TestMemoryStoreLifecycle(t *testing.T) {
	st := NewMemoryStore[*session]()

	if _, ok := st.Get(1); ok {
		t.Fatal("expected no session for unknown user")
	}

	st.Put(1, &session{step: "first"})
	st.Put(1, &session{step: "second"})
	got, ok := st.Get(1)
	if !ok || got.step != "second" {
		t.Fatalf("expected overwritten session, got %+v (ok=%v)", got, ok)
	}

	st.Clear(1)
	st.Clear(1)
	if _, ok := st.Get(1); ok {
		t.Fatal("expected session to be cleared")
	}
	if st.Len() != 0 {
		t.Fatalf("len = %d, want 0", st.Len())
	}
}

func TestMemoryStoreUsersAreIndependent(t *testing.T) {
	st := NewMemoryStore[string]()

	var wg sync.WaitGroup
	for i := int64(1); i <= 32; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			st.Put(id, "active")
			if id%2 == 0 {
				st.Clear(id)
			}
		}(i)
	}
	wg.Wait()

	if st.Len() != 16 {
		t.Fatalf("len = %d, want 16", st.Len())
	}
	if _, ok := st.Get(3); !ok {
		t.Fatal("expected session for user 3")
	}
}
