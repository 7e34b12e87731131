package finalizer

import (
	"errors"
	"sync"
	"testing"
)

func nop() Closure {
	return ClosureFunc(func() error { return nil })
}

func TestArena_PutTake(t *testing.T) {
	a := NewArena()

	tok, err := a.Put([]Closure{nop(), nop()})
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if tok == 0 {
		t.Fatal("Expected non-zero token")
	}

	n, ok := a.Count(tok)
	if !ok || n != 2 {
		t.Fatalf("Expected count 2, got %d (ok=%v)", n, ok)
	}

	closures, err := a.Take(tok, 2)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if len(closures) != 2 {
		t.Fatalf("Expected 2 closures, got %d", len(closures))
	}

	// Second take must fail
	if _, err := a.Take(tok, 2); !errors.Is(err, ErrBadToken) {
		t.Fatalf("Expected ErrBadToken, got %v", err)
	}
	if a.Len() != 0 {
		t.Fatalf("Expected empty arena, got %d", a.Len())
	}
}

func TestArena_Rejects(t *testing.T) {
	a := NewArena()

	tests := []struct {
		name     string
		closures []Closure
		want     error
	}{
		{"empty", nil, ErrEmptySet},
		{"nil closure", []Closure{nop(), nil}, ErrNilClosure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Put(tt.closures)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if _, err := a.Take(0, 1); !errors.Is(err, ErrBadToken) {
		t.Fatalf("Expected ErrBadToken for zero token, got %v", err)
	}
	if _, err := a.Take(99, 1); !errors.Is(err, ErrBadToken) {
		t.Fatalf("Expected ErrBadToken for unknown token, got %v", err)
	}
}

func TestArena_CountSkew(t *testing.T) {
	a := NewArena()

	tok, _ := a.Put([]Closure{nop(), nop(), nop()})

	if _, err := a.Take(tok, 2); !errors.Is(err, ErrCountSkew) {
		t.Fatalf("Expected ErrCountSkew, got %v", err)
	}

	// Slot survives a skewed take
	closures, err := a.Take(tok, 3)
	if err != nil {
		t.Fatalf("Take after skew failed: %v", err)
	}
	if len(closures) != 3 {
		t.Fatalf("Expected 3 closures, got %d", len(closures))
	}
}

func TestArena_TokenReuse(t *testing.T) {
	a := NewArena()

	t1, _ := a.Put([]Closure{nop()})
	t2, _ := a.Put([]Closure{nop()})

	a.Take(t1, 1)

	t3, _ := a.Put([]Closure{nop(), nop()})
	if t3 != t1 {
		t.Fatalf("Expected freed token %d to be reused, got %d", t1, t3)
	}

	if n, ok := a.Count(t3); !ok || n != 2 {
		t.Fatalf("Reused slot has count %d (ok=%v)", n, ok)
	}
	if _, ok := a.Count(t2); !ok {
		t.Fatal("t2 should still be valid")
	}
}

func TestArena_Drain(t *testing.T) {
	a := NewArena()

	a.Put([]Closure{nop()})
	a.Put([]Closure{nop(), nop()})

	sets := a.Drain()
	if len(sets) != 2 {
		t.Fatalf("Expected 2 drained sets, got %d", len(sets))
	}

	if _, err := a.Put([]Closure{nop()}); !errors.Is(err, ErrClosed) {
		t.Fatal("Expected ErrClosed after Drain")
	}
	if a.Drain() != nil {
		t.Fatal("Second Drain should return nil")
	}
}

func TestArena_Concurrent(t *testing.T) {
	a := NewArena()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := a.Put([]Closure{nop()})
			if err != nil {
				return
			}
			a.Take(tok, 1)
		}()
	}

	wg.Wait()

	if a.Len() != 0 {
		t.Fatalf("Expected empty arena, got %d", a.Len())
	}
}
