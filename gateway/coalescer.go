/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrGoexit is returned to waiters when the owner goroutine called runtime.Goexit.
var ErrGoexit = errors.New("runtime.Goexit was called")

// PanicError is returned to waiters when the owner panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v\n\n%s", p.Value, p.Stack)
}

// Unwrap returns the panic value if it is an error.
func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

func newPanicError(v interface{}) error {
	stack := debug.Stack()
	// Drop the "goroutine N [running]:" line, it describes a goroutine that may be gone by now.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}

type flight[V any] struct {
	done chan struct{}
	val  V
	err  error
	dups int
}

// coalescer makes concurrent calls for the same key share one execution.
type coalescer[V any] struct {
	mu      sync.Mutex
	flights map[string]*flight[V]
}

func newCoalescer[V any]() *coalescer[V] {
	return &coalescer[V]{flights: make(map[string]*flight[V])}
}

// Do runs fn once per key at a time. Callers arriving while fn runs wait for it
// and get the same result with shared set to true.
func (c *coalescer[V]) Do(key string, fn func() (V, error)) (val V, shared bool, err error) {
	return c.DoContext(context.Background(), key, fn)
}

// DoContext is like Do, but a waiter stops waiting when its ctx is done.
// The owner is not interrupted and its result is still delivered to the other waiters.
func (c *coalescer[V]) DoContext(ctx context.Context, key string, fn func() (V, error)) (val V, shared bool, err error) {
	c.mu.Lock()
	if f, ok := c.flights[key]; ok {
		f.dups++
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.val, true, f.err
		case <-ctx.Done():
			return val, true, ctx.Err()
		}
	}
	f := &flight[V]{done: make(chan struct{})}
	c.flights[key] = f
	c.mu.Unlock()

	val, err = c.run(f, key, fn)
	return val, false, err
}

func (c *coalescer[V]) run(f *flight[V], key string, fn func() (V, error)) (val V, err error) {
	normalReturn := false
	recovered := false

	// Double defer tells a panic from runtime.Goexit.
	defer func() {
		if !normalReturn && !recovered {
			f.err = ErrGoexit
		}

		c.mu.Lock()
		delete(c.flights, key)
		c.mu.Unlock()
		close(f.done)

		if recovered {
			panic(f.err.(*PanicError).Value)
		}
		val, err = f.val, f.err
	}()

	defer func() {
		if !normalReturn {
			if v := recover(); v != nil {
				f.err = newPanicError(v)
				recovered = true
			}
		}
	}()

	f.val, f.err = fn()
	normalReturn = true
	return f.val, f.err
}

// inFlight reports whether a call for the key is running and how many callers joined it.
func (c *coalescer[V]) inFlight(key string) (running bool, dups int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[key]; ok {
		return true, f.dups
	}
	return false, 0
}
