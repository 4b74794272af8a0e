/*
Copyright © 2025 EthosView contributors.

Released under MIT license.
*/

package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestCoalescer_Do(t *testing.T) {
	const callers = 10
	c := newCoalescer[string]()

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (string, error) {
		calls.Inc()
		<-release
		return "payload", nil
	}

	var wg sync.WaitGroup
	var sharedCount atomic.Int32
	results := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			val, shared, err := c.Do("key", fn)
			assert.NoError(t, err)
			if shared {
				sharedCount.Inc()
			}
			results[i] = val
		}(i)
	}

	require.Eventually(t, func() bool {
		running, dups := c.inFlight("key")
		return running && dups == callers-1
	}, time.Second, time.Millisecond)
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
	require.EqualValues(t, callers-1, sharedCount.Load())
	for _, r := range results {
		require.Equal(t, "payload", r)
	}
	running, _ := c.inFlight("key")
	require.False(t, running)
}

func TestCoalescer_ErrorIsShared(t *testing.T) {
	c := newCoalescer[int]()
	errUpstream := errors.New("HTTP 500 Internal Server Error")
	release := make(chan struct{})

	errs := make(chan error, 3)
	for i := 0; i < 3; i++ {
		go func() {
			_, _, err := c.Do("key", func() (int, error) {
				<-release
				return 0, errUpstream
			})
			errs <- err
		}()
	}
	require.Eventually(t, func() bool {
		_, dups := c.inFlight("key")
		return dups == 2
	}, time.Second, time.Millisecond)
	close(release)
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, <-errs, errUpstream)
	}

	// Settled keys start a fresh call.
	val, shared, err := c.Do("key", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.False(t, shared)
	require.Equal(t, 42, val)
}

func TestCoalescer_Panic(t *testing.T) {
	c := newCoalescer[int]()
	started := make(chan struct{})
	release := make(chan struct{})

	waiterErr := make(chan error, 1)
	ownerPanic := make(chan interface{}, 1)
	go func() {
		defer func() { ownerPanic <- recover() }()
		_, _, _ = c.Do("key", func() (int, error) {
			close(started)
			<-release
			panic("boom")
		})
	}()
	<-started
	go func() {
		_, _, err := c.Do("key", func() (int, error) { return 1, nil })
		waiterErr <- err
	}()
	require.Eventually(t, func() bool {
		_, dups := c.inFlight("key")
		return dups == 1
	}, time.Second, time.Millisecond)
	close(release)

	require.Equal(t, "boom", <-ownerPanic)
	var panicErr *PanicError
	require.ErrorAs(t, <-waiterErr, &panicErr)
	require.Equal(t, "boom", panicErr.Value)
	running, _ := c.inFlight("key")
	require.False(t, running)
}

func TestCoalescer_DoContext(t *testing.T) {
	c := newCoalescer[string]()
	release := make(chan struct{})
	ownerDone := make(chan string, 1)

	go func() {
		val, _, _ := c.Do("key", func() (string, error) {
			<-release
			return "late payload", nil
		})
		ownerDone <- val
	}()
	require.Eventually(t, func() bool {
		running, _ := c.inFlight("key")
		return running
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, shared, err := c.DoContext(ctx, "key", func() (string, error) { return "unused", nil })
	require.True(t, shared)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.Equal(t, "late payload", <-ownerDone)
}
