package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/deepteams/sixel/internal/status"
)

func TestPool_AllJobsProcessed(t *testing.T) {
	const n = 200
	var processed atomic.Int64
	p := New(4, 8, 0, func(job Job, userdata any, workspace []byte) error {
		processed.Add(1)
		return nil
	}, nil)
	for i := 0; i < n; i++ {
		if err := p.Push(Job(i)); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got := processed.Load(); got != n {
		t.Errorf("processed = %d, want %d", got, n)
	}
}

func TestPool_FirstErrorLatched(t *testing.T) {
	var calls atomic.Int64
	p := New(1, 4, 0, func(job Job, userdata any, workspace []byte) error {
		calls.Add(1)
		if job == 2 {
			return status.New(status.RuntimeError, "job 2 failed")
		}
		return nil
	}, nil)
	for i := 0; i < 5; i++ {
		p.Push(Job(i))
	}
	err := p.Finish()
	if err == nil {
		t.Fatalf("Finish: expected latched error, got nil")
	}
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.RuntimeError {
		t.Fatalf("Finish error = %v, want RuntimeError", err)
	}
}

func TestPool_NoErrorWhenAllSucceed(t *testing.T) {
	p := New(2, 4, 0, func(job Job, userdata any, workspace []byte) error {
		return nil
	}, nil)
	p.Push(Job(1))
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v, want nil", err)
	}
}

func TestPool_WorkspaceZeroInitialized(t *testing.T) {
	p := New(1, 1, 64, func(job Job, userdata any, workspace []byte) error {
		for _, b := range workspace {
			if b != 0 {
				return status.New(status.LogicError, "workspace not zero-initialized")
			}
		}
		return nil
	}, nil)
	p.Push(Job(0))
	if err := p.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
}

func TestPool_PushAfterFinishIsLogicError(t *testing.T) {
	p := New(1, 1, 0, func(job Job, userdata any, workspace []byte) error { return nil }, nil)
	p.Finish()
	err := p.Push(Job(0))
	se, ok := err.(*status.Error)
	if !ok || se.Code != status.LogicError {
		t.Fatalf("Push after Finish = %v, want LogicError", err)
	}
}
