package service

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	t.Parallel()

	locks := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		active  atomic.Int32
		overlap atomic.Bool
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(1)
			defer unlock()

			if active.Add(1) > 1 {
				overlap.Store(true)
			}
			active.Add(-1)
		}()
	}
	wg.Wait()

	require.False(t, overlap.Load())
	require.Zero(t, locks.size())
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	t.Parallel()

	locks := newKeyedMutex()

	unlockA := locks.Lock(1)
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock(2)
		unlockB()
		close(done)
	}()
	<-done

	require.Equal(t, 1, locks.size())
	unlockA()
	require.Zero(t, locks.size())
}
