package cucumber

// OrderType selects the order in which the engine schedules pickles.
type OrderType uint8

const (
	OrderDefined OrderType = iota
	OrderRandom
)

// Config holds the options a Runtime hands to the engine.
type Config struct {
	// Directory the engine resolves relative paths against (default: working directory)
	BaseDirectory string

	// Absolute paths of the feature files to compile into pickles
	Paths []string

	// Language (default "en")
	Language string

	// Scenario order (default cucumber.OrderDefined)
	Order OrderType

	// Seed for cucumber.OrderRandom. By default a random seed will be
	// assigned, assign any other value to reproduce a particular order.
	Seed uint64

	// Number of lanes test cases are spread across.
	// 0 (default) or 1 runs every test case in a single lane.
	Parallel uint64

	// Stop on first failure
	FailFast bool

	// Do not execute steps
	DryRun bool

	// Fail on pending or undefined steps
	Strict bool

	// Keep only the panic value in step failure messages, without the stack
	FilterStacktraces bool

	// Exposed to every test case through TestCase.Parameters
	WorldParameters map[string]interface{}

	// Filter scenarios by tags
	TagExpression string

	// Filter scenarios by name, each entry is a regular expression
	Names []string

	// Restrict the listed absolute paths to pickles located at these lines
	Lines map[string][]uint64

	// By default the summary formatter writing to stdout
	Formatter Formatter
}
