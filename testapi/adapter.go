package testapi

import "context"

// WorkspaceFolder is a root directory a hub shows tests for.
type WorkspaceFolder struct {
	Name string
	Path string
}

// TestAdapter is what a hub drives: it loads the test tree, runs tests and
// reports both through its events.
type TestAdapter interface {
	Load(ctx context.Context) error
	Run(ctx context.Context, tests []string) error
	Cancel()
	Dispose()

	Tests(fn func(TestLoadEvent)) Disposable
	TestStates(fn func(TestRunEvent)) Disposable
	Autorun(fn func()) Disposable
}

// TestHub collects the adapters of every workspace folder.
type TestHub interface {
	RegisterTestAdapter(adapter TestAdapter)
	UnregisterTestAdapter(adapter TestAdapter)
}

// OutputChannel receives raw worker output for the user.
type OutputChannel interface {
	Append(text string)
}
