package alloc

import (
	"sync"
	"testing"
)

func TestMallocCalloc_ExactSize(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"256B", 256},
		{"1K", 1024},
		{"4K", 4096},
		{"500B", 500},
		{"3000B", 3000},
	}
	a := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := a.Malloc(tt.size)
			if len(b) != tt.size {
				t.Errorf("Malloc(%d): len = %d, want %d", tt.size, len(b), tt.size)
			}
			a.Free(b)
		})
	}
}

func TestCalloc_ZeroFilled(t *testing.T) {
	a := Default()
	b := a.Malloc(64)
	for i := range b {
		b[i] = 0xff
	}
	a.Free(b)

	z := a.Calloc(64)
	for i, v := range z {
		if v != 0 {
			t.Fatalf("Calloc byte %d = %#x, want 0", i, v)
		}
	}
}

func TestRealloc_PreservesPrefix(t *testing.T) {
	a := Default()
	b := a.Malloc(8)
	for i := range b {
		b[i] = byte(i)
	}
	grown := a.Realloc(b, 16)
	if len(grown) != 16 {
		t.Fatalf("Realloc: len = %d, want 16", len(grown))
	}
	for i := 0; i < 8; i++ {
		if grown[i] != byte(i) {
			t.Errorf("Realloc byte %d = %d, want %d", i, grown[i], i)
		}
	}
}

func TestBucketIndex(t *testing.T) {
	tests := []struct {
		size       int
		wantBucket int
	}{
		{1, 0}, {256, 0}, {257, 1}, {1024, 1}, {1025, 2},
		{4096, 2}, {4097, 3}, {16384, 3}, {16385, 4},
		{65536, 4}, {65537, 5}, {262144, 5}, {262145, 6},
	}
	for _, tt := range tests {
		if got := bucketIndex(tt.size); got != tt.wantBucket {
			t.Errorf("bucketIndex(%d) = %d, want %d", tt.size, got, tt.wantBucket)
		}
	}
}

func TestFailAfter_ReturnsNilThenRecovers(t *testing.T) {
	a := Default()
	a.FailAfter(2)
	if b := a.Malloc(16); b == nil {
		t.Fatalf("call 1: expected success before countdown expires")
	}
	if b := a.Malloc(16); b == nil {
		t.Fatalf("call 2: expected success before countdown expires")
	}
	if b := a.Malloc(16); b != nil {
		t.Fatalf("call 3: expected simulated allocation failure, got non-nil")
	}
	if b := a.Malloc(16); b == nil {
		t.Fatalf("call 4: fault injection should have been consumed")
	}
}

func TestMallocOrErr_WrapsFailure(t *testing.T) {
	a := Default()
	a.FailAfter(1)
	a.Malloc(1) // consume the one successful call before the fault fires
	_, err := a.MallocOrErr(16, "test buffer")
	if err == nil {
		t.Fatalf("expected an error from a simulated allocation failure")
	}
}

func TestRefcount_Atomic(t *testing.T) {
	a := Default()
	const goroutines = 32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			a.Ref()
			a.Unref()
		}()
	}
	wg.Wait()
	if got := a.RefCount(); got != 1 {
		t.Errorf("RefCount after balanced Ref/Unref = %d, want 1", got)
	}
}

func TestConcurrency(t *testing.T) {
	a := Default()
	const goroutines = 32
	const iterations = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				for _, size := range []int{128, 512, 2048, 8192, 32768} {
					b := a.Malloc(size)
					if len(b) != size {
						t.Errorf("concurrent Malloc(%d): len = %d", size, len(b))
						return
					}
					for j := range b {
						b[j] = byte(j)
					}
					a.Free(b)
				}
			}
		}()
	}
	wg.Wait()
}
