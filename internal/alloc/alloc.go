// Package alloc implements the core's pluggable allocator (spec component
// C1): a small malloc/calloc/realloc/free bundle that every other
// component routes its allocations through, plus an atomic refcount so
// allocator-owned objects (chunks, palettes, output sinks, decoded
// surfaces) can share a lifecycle without a garbage-collected finalizer.
//
// The default implementation buckets allocations by size class and reuses
// them via sync.Pool, generalizing the byte-slice bucket ladder the
// teacher codec used purely for scratch buffers into a full Allocator.
package alloc

import (
	"sync"
	"sync/atomic"

	"github.com/deepteams/sixel/internal/status"
)

// Size classes for bucketed pools. Matches the ladder the teacher used for
// scratch-buffer reuse; retained here because SIXEL allocations (row
// buffers, band masks, RLE scratch) fall in the same 256B-1M range.
const (
	Size256B = 256
	Size1K   = 1024
	Size4K   = 4096
	Size16K  = 16384
	Size64K  = 65536
	Size256K = 262144
	Size1M   = 1048576
)

var bucketSizes = [7]int{Size256B, Size1K, Size4K, Size16K, Size64K, Size256K, Size1M}

func bucketIndex(size int) int {
	switch {
	case size <= Size256B:
		return 0
	case size <= Size1K:
		return 1
	case size <= Size4K:
		return 2
	case size <= Size16K:
		return 3
	case size <= Size64K:
		return 4
	case size <= Size256K:
		return 5
	default:
		return 6
	}
}

// Allocator is the pluggable allocation bundle. Any NULL-equivalent (a nil
// field on a Funcs struct passed to New) is replaced by the default pooled
// implementation at construction time, mirroring spec.md's "any NULL
// function pointer is replaced by its libc equivalent" rule.
type Allocator struct {
	refs    atomic.Int32
	malloc  func(n int) []byte
	calloc  func(n int) []byte
	realloc func(b []byte, n int) []byte
	free    func(b []byte)

	failAfter atomic.Int32 // fault injection: -1 disabled, else countdown
}

// Funcs lets an embedder override one or more operations; nil fields fall
// back to the pooled default.
type Funcs struct {
	Malloc  func(n int) []byte
	Calloc  func(n int) []byte
	Realloc func(b []byte, n int) []byte
	Free    func(b []byte)
}

// New constructs an Allocator with an initial refcount of 1. Nil entries in
// fns use the pooled default implementation.
func New(fns Funcs) *Allocator {
	a := &Allocator{
		malloc:  fns.Malloc,
		calloc:  fns.Calloc,
		realloc: fns.Realloc,
		free:    fns.Free,
	}
	if a.malloc == nil {
		a.malloc = pooledGet
	}
	if a.calloc == nil {
		a.calloc = pooledCalloc
	}
	if a.realloc == nil {
		a.realloc = pooledRealloc
	}
	if a.free == nil {
		a.free = pooledPut
	}
	a.failAfter.Store(-1)
	a.refs.Store(1)
	return a
}

// Default returns a fresh pooled-default Allocator, the equivalent of
// calling the platform heap allocator in the C implementation.
func Default() *Allocator { return New(Funcs{}) }

// Ref increments the refcount atomically and returns the allocator for
// chaining, e.g. `c.alloc = alloc.Ref()`.
func (a *Allocator) Ref() *Allocator {
	a.refs.Add(1)
	return a
}

// Unref decrements the refcount; the last unref is a no-op beyond the
// decrement since the pooled default has no teardown, but embedders with a
// Free callback may use the zero-crossing to release external resources.
func (a *Allocator) Unref() {
	a.refs.Add(-1)
}

// RefCount returns the current refcount, for tests and diagnostics.
func (a *Allocator) RefCount() int32 { return a.refs.Load() }

// FailAfter arms fault injection: after n more successful allocation calls
// the next one returns nil, simulating BAD_ALLOCATION, and later calls
// succeed again. n <= 0 disables injection.
func (a *Allocator) FailAfter(n int) {
	if n <= 0 {
		a.failAfter.Store(-1)
		return
	}
	a.failAfter.Store(int32(n))
}

// shouldFail consumes one unit of the fault-injection countdown and
// reports whether this call should fail.
func (a *Allocator) shouldFail() bool {
	for {
		n := a.failAfter.Load()
		if n < 0 {
			return false
		}
		if n == 0 {
			if a.failAfter.CompareAndSwap(0, -1) {
				return true
			}
			continue
		}
		if a.failAfter.CompareAndSwap(n, n-1) {
			return false
		}
	}
}

// Malloc returns an uninitialized buffer of length n, or nil on simulated
// or real allocation failure. Callers translate a nil result to
// status.BadAllocation.
func (a *Allocator) Malloc(n int) []byte {
	if a.shouldFail() {
		return nil
	}
	return a.malloc(n)
}

// Calloc returns a zero-filled buffer of length n, or nil on failure.
func (a *Allocator) Calloc(n int) []byte {
	if a.shouldFail() {
		return nil
	}
	return a.calloc(n)
}

// Realloc grows or shrinks b to length n, preserving the overlapping
// prefix, or nil on failure.
func (a *Allocator) Realloc(b []byte, n int) []byte {
	if a.shouldFail() {
		return nil
	}
	return a.realloc(b, n)
}

// Free returns b to the allocator.
func (a *Allocator) Free(b []byte) { a.free(b) }

// MallocOrErr is a convenience wrapper translating a nil Malloc result into
// a *status.Error with code BadAllocation.
func (a *Allocator) MallocOrErr(n int, what string) ([]byte, error) {
	b := a.Malloc(n)
	if b == nil {
		return nil, status.New(status.BadAllocation, "allocating %s (%d bytes)", what, n)
	}
	return b, nil
}

var pools [7]sync.Pool

func init() {
	for i := range pools {
		sz := bucketSizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

func pooledGet(size int) []byte {
	if size < 0 {
		return nil
	}
	idx := bucketIndex(size)
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, size)
		*bp = b
		return b
	}
	return b[:size]
}

func pooledCalloc(size int) []byte {
	b := pooledGet(size)
	for i := range b {
		b[i] = 0
	}
	return b
}

func pooledRealloc(b []byte, n int) []byte {
	if n <= cap(b) {
		if n > len(b) {
			grown := b[:n]
			for i := len(b); i < n; i++ {
				grown[i] = 0
			}
			return grown
		}
		return b[:n]
	}
	nb := pooledGet(n)
	copy(nb, b)
	return nb
}

func pooledPut(b []byte) {
	c := cap(b)
	if c < Size256B {
		return
	}
	idx := bucketIndex(c)
	b = b[:c]
	pools[idx].Put(&b)
}
