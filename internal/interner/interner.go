// Package interner provides process-wide string interning with stable
// handles. Two inserts of equal strings return equal handles, and a handle
// returned once stays valid (and resolves to the same string) for the
// lifetime of the Interner.
//
// The fast path (lookup of an already-interned string) takes a shared read
// lock; only a miss promotes to a write lock. This mirrors the read-biased
// exclusion the original implementation built on parking_lot::RwLock.
package interner

import (
	"sync"

	"github.com/dolthub/swiss"
)

// Symbol is a stable handle to an interned string.
type Symbol uint32

// Interner is safe for concurrent use by multiple goroutines.
type Interner struct {
	mu      sync.RWMutex
	table   *swiss.Map[string, Symbol]
	strings []string
}

// New creates an empty interner.
func New() *Interner {
	return &Interner{
		table: swiss.NewMap[string, Symbol](64),
	}
}

// Intern inserts s if it is not already present and returns its handle.
// Concurrent calls with equal strings always return equal handles.
func (in *Interner) Intern(s string) Symbol {
	in.mu.RLock()
	if sym, ok := in.table.Get(s); ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()

	// Another writer may have inserted s while we waited for the lock.
	if sym, ok := in.table.Get(s); ok {
		return sym
	}

	sym := Symbol(len(in.strings))
	in.strings = append(in.strings, s)
	in.table.Put(s, sym)
	return sym
}

// Lookup resolves a handle back to its string. Panics if sym was never
// returned by Intern on this Interner, which indicates a programmer error.
func (in *Interner) Lookup(sym Symbol) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.strings[sym]
}

// Len returns the number of distinct strings interned so far.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings)
}
