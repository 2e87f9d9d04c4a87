package testapi

import "sync"

// Disposable releases a subscription or a resource.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func()

func (f DisposeFunc) Dispose() { f() }

// Emitter delivers values to its listeners in subscription order.
type Emitter[T any] struct {
	mu        sync.Mutex
	listeners []*listener[T]
	disposed  bool
}

type listener[T any] struct {
	fn func(T)
}

// Event subscribes fn. Subscribing to a disposed emitter is a no-op.
func (e *Emitter[T]) Event(fn func(T)) Disposable {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return DisposeFunc(func() {})
	}

	l := &listener[T]{fn: fn}
	e.listeners = append(e.listeners, l)

	return DisposeFunc(func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, x := range e.listeners {
			if x == l {
				e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
				return
			}
		}
	})
}

func (e *Emitter[T]) Fire(v T) {
	e.mu.Lock()
	listeners := append([]*listener[T](nil), e.listeners...)
	e.mu.Unlock()

	for _, l := range listeners {
		l.fn(v)
	}
}

// Dispose drops every listener; later Fire calls do nothing.
func (e *Emitter[T]) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = nil
	e.disposed = true
}
