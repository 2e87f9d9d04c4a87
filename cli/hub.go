package cli

import (
	"sync"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// Hub is the CLI's test hub. It keeps the last loaded tree of every adapter
// and hands run events to the current listener.
type Hub struct {
	mu       sync.Mutex
	adapters []testapi.TestAdapter
	subs     map[testapi.TestAdapter][]testapi.Disposable
	loads    map[testapi.TestAdapter]testapi.TestLoadEvent
	onState  func(testapi.TestAdapter, testapi.TestRunEvent)
}

func NewHub() *Hub {
	return &Hub{
		subs:  map[testapi.TestAdapter][]testapi.Disposable{},
		loads: map[testapi.TestAdapter]testapi.TestLoadEvent{},
	}
}

func (h *Hub) RegisterTestAdapter(a testapi.TestAdapter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.adapters = append(h.adapters, a)
	h.subs[a] = []testapi.Disposable{
		a.Tests(func(e testapi.TestLoadEvent) {
			if e.Type != testapi.LoadFinished {
				return
			}
			h.mu.Lock()
			defer h.mu.Unlock()
			h.loads[a] = e
		}),
		a.TestStates(func(e testapi.TestRunEvent) {
			h.mu.Lock()
			fn := h.onState
			h.mu.Unlock()
			if fn != nil {
				fn(a, e)
			}
		}),
	}
}

func (h *Hub) UnregisterTestAdapter(a testapi.TestAdapter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range h.subs[a] {
		d.Dispose()
	}
	delete(h.subs, a)
	delete(h.loads, a)

	for i, x := range h.adapters {
		if x == a {
			h.adapters = append(h.adapters[:i:i], h.adapters[i+1:]...)
			break
		}
	}
}

// Adapters returns the registered adapters in registration order.
func (h *Hub) Adapters() []testapi.TestAdapter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]testapi.TestAdapter(nil), h.adapters...)
}

// Loaded returns the last finished load event of a.
func (h *Hub) Loaded(a testapi.TestAdapter) (testapi.TestLoadEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.loads[a]
	return e, ok
}

// OnState sets the listener for run events of every adapter.
func (h *Hub) OnState(fn func(testapi.TestAdapter, testapi.TestRunEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onState = fn
}
