package cucumber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cucumber/cucumber-engine/src/runner"
	messages "github.com/cucumber/cucumber-messages-go/v3"
)

var (
	ErrPending = errors.New("implementation pending")
)

// Listener receives every envelope the engine publishes, in order.
type Listener func(*messages.Envelope)

// Runtime executes pickles through cucumber-engine using the step and hook
// definitions of a support code library.
type Runtime struct {
	config    Config
	library   *SupportCodeLibrary
	listeners []Listener
	testCases sync.Map
	incoming  chan *messages.Envelope
	outgoing  chan *messages.Envelope
}

func NewRuntime(config Config, library *SupportCodeLibrary) *Runtime {
	if config.Language == "" {
		config.Language = "en"
	}

	if config.Order == OrderRandom && config.Seed == 0 {
		config.Seed = uint64(time.Now().Unix())
	}

	if config.Formatter == nil {
		config.Formatter = NewSummaryFormatter(os.Stdout)
	}

	if config.BaseDirectory == "" {
		config.BaseDirectory, _ = os.Getwd()
	}

	if library == nil {
		library = &SupportCodeLibrary{cwd: config.BaseDirectory}
	}

	return &Runtime{
		config:  config,
		library: library,
	}
}

// Subscribe adds a listener to the runtime event bus. Listeners must be added
// before Start and are called from a single goroutine.
func (r *Runtime) Subscribe(l Listener) {
	r.listeners = append(r.listeners, l)
}

// Start runs every accepted pickle and blocks until the engine reports the
// end of the run or ctx is done.
func (r *Runtime) Start(ctx context.Context) (Summary, error) {
	if len(r.config.Paths) == 0 {
		return Summary{Success: true}, nil
	}

	e := runner.NewRunner()
	r.incoming, r.outgoing = e.GetCommandChannels()

	resultCh := make(chan Summary, 1)
	errCh := make(chan error, 1)
	go r.listen(resultCh, errCh)

	started := time.Now()
	if err := r.respond(ctx, r.commandStart()); err != nil {
		return Summary{}, err
	}

	var result Summary
	select {
	case <-ctx.Done():
		return Summary{}, ctx.Err()
	case err := <-errCh:
		return Summary{}, err
	case result = <-resultCh:
	}

	result.Duration = time.Since(started)
	if !result.Success {
		result.ExitCode = 1
	}

	r.config.Formatter.DisplaySummary(result)

	return result, nil
}

func (r *Runtime) commandStart() *messages.Envelope {
	var stepDefinitionConfig []*messages.StepDefinitionConfig

	for i, sd := range r.library.steps {
		patternType := messages.StepDefinitionPatternType_CUCUMBER_EXPRESSION
		if sd.IsRegularExpression() {
			patternType = messages.StepDefinitionPatternType_REGULAR_EXPRESSION
		}
		stepDefinitionConfig = append(stepDefinitionConfig, &messages.StepDefinitionConfig{
			Id: strconv.Itoa(i),
			Pattern: &messages.StepDefinitionPattern{
				Source: sd.Pattern,
				Type:   patternType,
			},
		})
	}

	order := messages.SourcesOrderType_ORDER_OF_DEFINITION
	if r.config.Order == OrderRandom {
		order = messages.SourcesOrderType_RANDOM
	}

	lanes := r.config.Parallel
	if lanes == 0 {
		lanes = 1
	}

	return &messages.Envelope{
		Message: &messages.Envelope_CommandStart{
			CommandStart: &messages.CommandStart{
				BaseDirectory: r.config.BaseDirectory,
				RuntimeConfig: &messages.RuntimeConfig{
					IsFailFast:  r.config.FailFast,
					IsDryRun:    r.config.DryRun,
					IsStrict:    r.config.Strict,
					MaxParallel: lanes,
				},
				SupportCodeConfig: &messages.SupportCodeConfig{
					StepDefinitionConfigs: stepDefinitionConfig,
				},
				SourcesConfig: &messages.SourcesConfig{
					Language:      r.config.Language,
					AbsolutePaths: r.config.Paths,
					Filters: &messages.SourcesFilterConfig{
						TagExpression:          r.config.TagExpression,
						NameRegularExpressions: r.config.Names,
						UriToLinesMapping:      r.linesMapping(),
					},
					Order: &messages.SourcesOrder{
						Type: order,
						Seed: r.config.Seed,
					},
				},
			},
		},
	}
}

func (r *Runtime) linesMapping() []*messages.UriToLinesMapping {
	if len(r.config.Lines) == 0 {
		return nil
	}

	paths := make([]string, 0, len(r.config.Lines))
	for path := range r.config.Lines {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	mapping := make([]*messages.UriToLinesMapping, 0, len(paths))
	for _, path := range paths {
		mapping = append(mapping, &messages.UriToLinesMapping{
			AbsolutePath: path,
			Lines:        r.config.Lines[path],
		})
	}
	return mapping
}

func (r *Runtime) listen(resultCh chan<- Summary, errCh chan<- error) {
	summary := Summary{}
	finished := false

	for command := range r.outgoing {
		r.publish(command)

		if finished {
			continue
		}

		switch x := command.Message.(type) {
		case *messages.Envelope_CommandError:
			finished = true
			errCh <- fmt.Errorf("cucumber engine: %s", x.CommandError)
		case *messages.Envelope_TestRunFinished:
			finished = true
			summary.Success = x.TestRunFinished.Success
			resultCh <- summary
		case *messages.Envelope_CommandRunBeforeTestRunHooks:
			r.complete(x.CommandRunBeforeTestRunHooks.ActionId, passed())
		case *messages.Envelope_CommandRunAfterTestRunHooks:
			r.complete(x.CommandRunAfterTestRunHooks.ActionId, passed())
		case *messages.Envelope_CommandGenerateSnippet:
			go r.send(&messages.Envelope{
				Message: &messages.Envelope_CommandActionComplete{
					CommandActionComplete: &messages.CommandActionComplete{
						CompletedId: x.CommandGenerateSnippet.ActionId,
						Result: &messages.CommandActionComplete_Snippet{
							Snippet: "",
						},
					},
				},
			})
		case *messages.Envelope_CommandInitializeTestCase:
			summary.TestCasesTotal += 1
			go r.initializeTestCase(x.CommandInitializeTestCase)
		case *messages.Envelope_TestCaseFinished:
			r.finalizeTestCase(x.TestCaseFinished.PickleId)

			switch x.TestCaseFinished.TestResult.Status {
			case messages.TestResult_PASSED:
				summary.TestCasesPassed += 1
			case messages.TestResult_FAILED:
				summary.TestCasesFailed += 1
			case messages.TestResult_PENDING:
				summary.TestCasesPending += 1
			case messages.TestResult_UNDEFINED:
				summary.TestCasesUndefined += 1
			case messages.TestResult_AMBIGUOUS:
				summary.TestCasesAmbiguous += 1
			}
		case *messages.Envelope_TestStepFinished:
			summary.StepsTotal += 1

			switch x.TestStepFinished.TestResult.Status {
			case messages.TestResult_PASSED:
				summary.StepsPassed += 1
			case messages.TestResult_FAILED:
				summary.StepsFailed += 1
			case messages.TestResult_PENDING:
				summary.StepsPending += 1
			case messages.TestResult_UNDEFINED:
				summary.StepsUndefined += 1
			case messages.TestResult_SKIPPED:
				summary.StepsSkipped += 1
			case messages.TestResult_AMBIGUOUS:
				summary.StepsAmbiguous += 1
			}
		case *messages.Envelope_CommandRunTestStep:
			go r.runTestStep(x.CommandRunTestStep)
		}
	}
}

func (r *Runtime) publish(m *messages.Envelope) {
	r.config.Formatter.ProcessMessage(m)
	for _, l := range r.listeners {
		l(m)
	}
}

func (r *Runtime) respond(ctx context.Context, m *messages.Envelope) error {
	select {
	case r.incoming <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) send(m *messages.Envelope) {
	r.incoming <- m
}

func (r *Runtime) complete(actionID string, result *messages.TestResult) {
	go r.send(&messages.Envelope{
		Message: &messages.Envelope_CommandActionComplete{
			CommandActionComplete: &messages.CommandActionComplete{
				CompletedId: actionID,
				Result: &messages.CommandActionComplete_TestResult{
					TestResult: result,
				},
			},
		},
	})
}

func (r *Runtime) initializeTestCase(command *messages.CommandInitializeTestCase) {
	testResult := passed()

	tc := newTestCase(command.Pickle.Name, r.config.WorldParameters)
	r.testCases.Store(command.Pickle.Id, tc)

	for _, hook := range r.library.before {
		if err := r.guard(func() error { return hook(tc) }); err != nil {
			testResult = failed(err)
			break
		}
	}

	r.send(&messages.Envelope{
		Message: &messages.Envelope_CommandActionComplete{
			CommandActionComplete: &messages.CommandActionComplete{
				CompletedId: command.ActionId,
				Result: &messages.CommandActionComplete_TestResult{
					TestResult: testResult,
				},
			},
		},
	})
}

// finalizeTestCase runs the after hooks of a finished test case. Their errors
// cannot change a result the engine already published, so they go to stderr.
func (r *Runtime) finalizeTestCase(pickleID string) {
	v, ok := r.testCases.LoadAndDelete(pickleID)
	if !ok {
		return
	}
	tc := v.(*testCase)

	for _, hook := range r.library.after {
		if err := r.guard(func() error { return hook(tc) }); err != nil {
			fmt.Fprintf(os.Stderr, "after hook failed for %q: %v\n", tc.Name(), err)
		}
	}
}

func (r *Runtime) runTestStep(command *messages.CommandRunTestStep) {
	testResult := passed()

	err := r.callStepHandler(command)
	if errors.Is(err, ErrPending) {
		testResult.Status = messages.TestResult_PENDING
	} else if err != nil {
		testResult = failed(err)
	}

	r.send(&messages.Envelope{
		Message: &messages.Envelope_CommandActionComplete{
			CommandActionComplete: &messages.CommandActionComplete{
				CompletedId: command.ActionId,
				Result: &messages.CommandActionComplete_TestResult{
					TestResult: testResult,
				},
			},
		},
	})
}

func (r *Runtime) callStepHandler(command *messages.CommandRunTestStep) error {
	i, err := strconv.Atoi(command.StepDefinitionId)
	if err != nil {
		return err
	}

	sd, ok := r.library.stepDefinition(i)
	if !ok {
		return fmt.Errorf("unknown step definition %s", command.StepDefinitionId)
	}

	var captures []string

	for _, patternMatch := range command.PatternMatches {
		captures = append(captures, patternMatch.Captures...)
	}

	v, ok := r.testCases.Load(command.PickleId)
	if !ok {
		return fmt.Errorf("test case for pickle %s was not initialized", command.PickleId)
	}

	tc := v.(*testCase)
	return r.guard(func() error { return sd.Handler(tc, captures...) })
}

// guard turns a panic in user code into an error.
func (r *Runtime) guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			if !r.config.FilterStacktraces {
				err = fmt.Errorf("%w\n%s", err, debug.Stack())
			}
		}
	}()
	return fn()
}

func passed() *messages.TestResult {
	return &messages.TestResult{
		Status: messages.TestResult_PASSED,
	}
}

func failed(err error) *messages.TestResult {
	return &messages.TestResult{
		Status:  messages.TestResult_FAILED,
		Message: err.Error(),
	}
}
