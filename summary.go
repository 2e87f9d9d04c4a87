package cucumber

import (
	"fmt"
	"time"
)

// Summary aggregates the results of one run.
type Summary struct {
	Success  bool
	ExitCode int
	Duration time.Duration

	TestCasesTotal     int
	TestCasesPassed    int
	TestCasesFailed    int
	TestCasesPending   int
	TestCasesUndefined int
	TestCasesAmbiguous int

	StepsTotal     int
	StepsPassed    int
	StepsFailed    int
	StepsPending   int
	StepsUndefined int
	StepsSkipped   int
	StepsAmbiguous int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d scenarios (%d passed, %d failed), %d steps in %s",
		s.TestCasesTotal, s.TestCasesPassed, s.TestCasesFailed, s.StepsTotal, s.Duration.Round(time.Millisecond))
}
