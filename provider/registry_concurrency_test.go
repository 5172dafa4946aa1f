package provider_test

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/specshape/specshape/provider"
)

// TestConcurrentRegisterAndLookup verifies that Register/Lookup/IDs/Len are
// race-free and that lookups never observe a torn table under load.
func TestConcurrentRegisterAndLookup(t *testing.T) {
	reg := provider.NewRegistry()

	const n = 10
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p%d", i)
		ids = append(ids, id)
		if err := reg.Register(id, &stubProvider{name: id}); err != nil {
			t.Fatalf("register %s: %v", id, err)
		}
	}

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4

	// Readers
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				id := ids[i%len(ids)]
				p, err := reg.Lookup(id)
				if err != nil || p == nil {
					t.Errorf("lookup %s: p=%v err=%v", id, p, err)
					return
				}
				_ = reg.Len()
				_ = reg.IDs()
			}
		}()
	}

	// Writers (re-register, last write wins must stay safe)
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				j := (i + seed) % len(ids)
				_ = reg.Register(ids[j], &stubProvider{name: ids[j]})
			}
		}(w)
	}

	wg.Wait()

	if reg.Len() != n {
		t.Fatalf("len mismatch: got %d want %d", reg.Len(), n)
	}
	for _, id := range ids {
		if _, err := reg.Lookup(id); err != nil {
			t.Fatalf("lookup %s after hammer: %v", id, err)
		}
	}
}

// TestConcurrentResetStaysConsistent makes sure lookups racing a Reset either
// succeed or fail with the not-found error, never anything torn.
func TestConcurrentResetStaysConsistent(t *testing.T) {
	reg := provider.NewRegistry()
	_ = reg.Register("p0", &stubProvider{name: "p0"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			reg.Reset()
			_ = reg.Register("p0", &stubProvider{name: "p0"})
		}
	}()

	for i := 0; i < 5000; i++ {
		p, err := reg.Lookup("p0")
		if err != nil {
			if !errors.Is(err, provider.ErrNotFound) {
				t.Fatalf("unexpected lookup error: %v", err)
			}
			continue
		}
		if p == nil {
			t.Fatal("nil provider without error")
		}
	}
	<-done
}
