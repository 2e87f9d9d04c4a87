package cli

import (
	"context"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/testapi"
)

type stubAdapter struct {
	load   testapi.Emitter[testapi.TestLoadEvent]
	states testapi.Emitter[testapi.TestRunEvent]
}

func (s *stubAdapter) Load(context.Context) error {
	return nil
}

func (s *stubAdapter) Run(context.Context, []string) error {
	return nil
}

func (s *stubAdapter) Cancel() {}

func (s *stubAdapter) Dispose() {}

func (s *stubAdapter) Tests(fn func(testapi.TestLoadEvent)) testapi.Disposable {
	return s.load.Event(fn)
}

func (s *stubAdapter) TestStates(fn func(testapi.TestRunEvent)) testapi.Disposable {
	return s.states.Event(fn)
}

func (s *stubAdapter) Autorun(func()) testapi.Disposable {
	return testapi.DisposeFunc(func() {})
}
