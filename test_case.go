package cucumber

// TestCase is the per-scenario world shared by its hooks and steps.
type TestCase interface {
	Set(key string, value interface{})
	Get(key string) interface{}

	// Parameters returns the configured world parameters.
	Parameters() map[string]interface{}

	// Name returns the scenario name of the pickle being executed.
	Name() string
}

type testCase struct {
	name       string
	state      map[string]interface{}
	parameters map[string]interface{}
}

func newTestCase(name string, parameters map[string]interface{}) *testCase {
	return &testCase{
		name:       name,
		state:      map[string]interface{}{},
		parameters: parameters,
	}
}

func (tc *testCase) Set(key string, value interface{}) {
	tc.state[key] = value
}

func (tc *testCase) Get(key string) interface{} {
	return tc.state[key]
}

func (tc *testCase) Parameters() map[string]interface{} {
	return tc.parameters
}

func (tc *testCase) Name() string {
	return tc.name
}
