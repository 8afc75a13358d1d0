package locks

import (
	"context"
	"sync"
)

// Lease guards work that must not overlap, such as a settlement sweep.
// TryAcquire never blocks; ok is false when another holder owns the lease.
type Lease interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

// LocalLease is a process-local Lease
type LocalLease struct {
	mu sync.Mutex
}

// NewLocalLease creates a LocalLease
func NewLocalLease() *LocalLease {
	return &LocalLease{}
}

// TryAcquire takes the lease if it is free
func (l *LocalLease) TryAcquire(_ context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, true, nil
}
