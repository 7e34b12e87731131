package finalizer

import (
	"errors"
	"sync"
)

var (
	ErrClosed     = errors.New("finalizer arena closed")
	ErrEmptySet   = errors.New("closure set is empty")
	ErrBadToken   = errors.New("unknown closure set token")
	ErrCountSkew  = errors.New("closure count does not match registration")
	ErrNilClosure = errors.New("nil closure in set")
)

// Arena stores closure sets in slots addressed by Token. Freed slots are
// reused through a free list.
type Arena struct {
	slots    []slot
	freeList []Token
	mu       sync.Mutex
	closed   bool
}

type slot struct {
	closures []Closure
	valid    bool
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{
		slots:    make([]slot, 0, 64),
		freeList: make([]Token, 0, 16),
	}
}

// Put stores a closure set and returns its token.
func (a *Arena) Put(closures []Closure) (Token, error) {
	if len(closures) == 0 {
		return 0, ErrEmptySet
	}
	for _, c := range closures {
		if c == nil {
			return 0, ErrNilClosure
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return 0, ErrClosed
	}

	s := slot{
		closures: closures,
		valid:    true,
	}

	if len(a.freeList) > 0 {
		tok := a.freeList[len(a.freeList)-1]
		a.freeList = a.freeList[:len(a.freeList)-1]
		a.slots[tok-1] = s
		return tok, nil
	}

	a.slots = append(a.slots, s)
	return Token(len(a.slots)), nil
}

// Take removes the set stored under tok. count must equal the number of
// closures stored at Put time; on mismatch the slot is left untouched.
func (a *Arena) Take(tok Token, count int) ([]Closure, error) {
	if tok == 0 {
		return nil, ErrBadToken
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := int(tok) - 1
	if idx >= len(a.slots) || !a.slots[idx].valid {
		return nil, ErrBadToken
	}

	s := &a.slots[idx]
	if len(s.closures) != count {
		return nil, ErrCountSkew
	}

	closures := s.closures
	s.closures = nil
	s.valid = false
	a.freeList = append(a.freeList, tok)

	return closures, nil
}

// Count reports how many closures are stored under tok.
func (a *Arena) Count(tok Token) (int, bool) {
	if tok == 0 {
		return 0, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	idx := int(tok) - 1
	if idx >= len(a.slots) || !a.slots[idx].valid {
		return 0, false
	}
	return len(a.slots[idx].closures), true
}

// Len returns the number of occupied slots.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	count := 0
	for _, s := range a.slots {
		if s.valid {
			count++
		}
	}
	return count
}

// Drain closes the arena and returns every set still stored, keyed by token.
func (a *Arena) Drain() map[Token][]Closure {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	out := make(map[Token][]Closure)
	for i := range a.slots {
		if a.slots[i].valid {
			out[Token(i+1)] = a.slots[i].closures
			a.slots[i].valid = false
			a.slots[i].closures = nil
		}
	}

	a.slots = nil
	a.freeList = nil
	return out
}
