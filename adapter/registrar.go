package adapter

import (
	"sync"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/config"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

// Factory creates the adapter of a workspace folder.
type Factory func(folder testapi.WorkspaceFolder) testapi.TestAdapter

// Registrar keeps one adapter per workspace folder registered with a hub.
type Registrar struct {
	hub     testapi.TestHub
	factory Factory
	log     *logging.Log

	mu       sync.Mutex
	adapters map[string]testapi.TestAdapter
}

func NewRegistrar(hub testapi.TestHub, folders []testapi.WorkspaceFolder, factory Factory, log *logging.Log) *Registrar {
	r := &Registrar{
		hub:      hub,
		factory:  factory,
		log:      log,
		adapters: map[string]testapi.TestAdapter{},
	}
	for _, f := range folders {
		r.Add(f)
	}
	return r
}

// Add registers an adapter for folder unless it already has one.
func (r *Registrar) Add(folder testapi.WorkspaceFolder) {
	r.mu.Lock()
	if _, ok := r.adapters[folder.Path]; ok {
		r.mu.Unlock()
		return
	}
	adapter := r.factory(folder)
	r.adapters[folder.Path] = adapter
	r.mu.Unlock()

	r.log.Info("Registering adapter for %s", folder.Path)
	r.hub.RegisterTestAdapter(adapter)
}

// Remove unregisters and disposes the adapter of folder.
func (r *Registrar) Remove(folder testapi.WorkspaceFolder) {
	r.mu.Lock()
	adapter, ok := r.adapters[folder.Path]
	delete(r.adapters, folder.Path)
	r.mu.Unlock()

	if !ok {
		return
	}

	r.log.Info("Removing adapter for %s", folder.Path)
	r.hub.UnregisterTestAdapter(adapter)
	adapter.Dispose()
}

// Adapters returns the registered adapters.
func (r *Registrar) Adapters() []testapi.TestAdapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	adapters := make([]testapi.TestAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	return adapters
}

func (r *Registrar) Dispose() {
	r.mu.Lock()
	adapters := r.adapters
	r.adapters = map[string]testapi.TestAdapter{}
	r.mu.Unlock()

	for _, a := range adapters {
		r.hub.UnregisterTestAdapter(a)
		a.Dispose()
	}
}

// Activate registers a Cucumber adapter for each folder with hub, reading
// every folder's settings from its settings file. Without a hub there is
// nothing to register with and nil is returned.
func Activate(hub testapi.TestHub, folders []testapi.WorkspaceFolder, channel testapi.OutputChannel, log *logging.Log) *Registrar {
	if hub == nil {
		log.Info("Test hub not found")
		return nil
	}
	log.Info("Test hub found")

	return NewRegistrar(hub, folders, func(folder testapi.WorkspaceFolder) testapi.TestAdapter {
		return New(folder, channel, log.With("adapter"), config.FileSettings{})
	}, log)
}
