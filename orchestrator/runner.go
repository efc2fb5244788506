// Package orchestrator drives a test run: it sequences test cases over the
// credential pool, executes each through a freshly built agent and collects
// the outcomes into a report.
package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/hairizuan-noorazman/helpdesk-pilot/agent"
	"github.com/hairizuan-noorazman/helpdesk-pilot/credential"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
	"github.com/hairizuan-noorazman/helpdesk-pilot/report"
	"github.com/hairizuan-noorazman/helpdesk-pilot/telemetry"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// DefaultPacing is the delay applied after every executed test case.
const DefaultPacing = 5 * time.Second

// Recorder receives per-test observations, typically Prometheus metrics.
type Recorder interface {
	ObserveTest(tc *testcase.TestCase)
	ObserveCredential(index int)
}

// TranscriptSink persists the execution log of one test case and returns
// its location.
type TranscriptSink interface {
	Write(ctx context.Context, t report.Transcript) (string, error)
}

// Runner executes test cases strictly sequentially.
type Runner struct {
	pool        *credential.Pool
	factory     agent.Factory
	tracker     *telemetry.Tracker
	logger      logger.Logger
	pacing      time.Duration
	sleep       func(time.Duration)
	now         func() time.Time
	newRunID    func() string
	transcripts TranscriptSink
	recorder    Recorder
	onResult    func(tc *testcase.TestCase)
}

// Option customizes a Runner.
type Option func(*Runner)

// WithPacing sets the inter-test delay. Zero disables pacing.
func WithPacing(d time.Duration) Option {
	return func(r *Runner) { r.pacing = d }
}

// WithSleeper replaces time.Sleep, mainly for tests.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithRunID fixes the run identifier generator.
func WithRunID(gen func() string) Option {
	return func(r *Runner) { r.newRunID = gen }
}

// WithTranscripts stores a transcript for every executed test.
func WithTranscripts(sink TranscriptSink) Option {
	return func(r *Runner) { r.transcripts = sink }
}

// WithRecorder registers a metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// OnResult registers a callback invoked once per test case after it reaches
// a final status.
func OnResult(fn func(tc *testcase.TestCase)) Option {
	return func(r *Runner) { r.onResult = fn }
}

// NewRunner creates a Runner. The tracker is reset before each test case.
func NewRunner(pool *credential.Pool, factory agent.Factory, tracker *telemetry.Tracker, log logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		pool:     pool,
		factory:  factory,
		tracker:  tracker,
		logger:   log,
		pacing:   DefaultPacing,
		sleep:    time.Sleep,
		now:      time.Now,
		newRunID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.tracker == nil {
		r.tracker = telemetry.NewTracker(telemetry.DefaultRates)
	}
	return r
}

// Run executes cases in the given order and returns the run report. Only an
// empty credential pool aborts the run; per-test failures never do. A
// cancelled context is honoured between test cases and the remaining cases
// are skipped.
func (r *Runner) Run(ctx context.Context, cases []*testcase.TestCase) (*report.Report, error) {
	if r.pool == nil || r.pool.Len() == 0 {
		r.logger.Error(ctx, "no agent credentials available", nil)
		return nil, credential.ErrPoolExhausted
	}

	runID := r.newRunID()
	log := r.logger.WithField("run_id", runID)
	started := r.now()
	transcripts := make(map[int]string)

	log.Info(ctx, "starting test run", map[string]interface{}{
		"tests":       len(cases),
		"credentials": r.pool.Len(),
	})

	// Every case gets exactly one final status per pass, whatever state it
	// arrived in.
	for _, tc := range cases {
		tc.Reset()
	}

	for i, tc := range cases {
		if err := ctx.Err(); err != nil {
			r.skip(ctx, log, tc, "run cancelled")
			continue
		}
		if !tc.Runnable() {
			r.skip(ctx, log, tc, skipReason(tc))
			continue
		}

		output, execErr := r.execute(ctx, log, tc)

		if r.transcripts != nil {
			loc, err := r.transcripts.Write(context.WithoutCancel(ctx), report.Transcript{
				RunID:     runID,
				Position:  i,
				Case:      tc,
				Timestamp: r.now(),
				Output:    output,
				Err:       execErr,
			})
			if err != nil {
				log.Warn(ctx, "failed to store transcript", map[string]interface{}{
					"test_key": tc.Key,
					"error":    err.Error(),
				})
			} else {
				transcripts[i] = loc
			}
		}
		r.finish(tc)

		// Pacing applies after every executed test, pass or fail.
		if r.pacing > 0 {
			r.sleep(r.pacing)
		}
	}

	rep := report.Build(runID, cases, started, r.now())
	rep.AttachTranscripts(transcripts)

	log.Info(ctx, "test run finished", map[string]interface{}{
		"total":     rep.Summary.TotalTests,
		"passed":    rep.Summary.Passed,
		"failed":    rep.Summary.Failed,
		"skipped":   rep.Summary.Skipped,
		"pass_rate": rep.Summary.PassRate,
	})
	return rep, nil
}

func skipReason(tc *testcase.TestCase) string {
	if !tc.Enabled {
		return "disabled"
	}
	return "no steps"
}

func (r *Runner) skip(ctx context.Context, log logger.Logger, tc *testcase.TestCase, reason string) {
	if err := tc.Skip(reason); err != nil {
		log.Warn(ctx, "cannot skip test case", map[string]interface{}{
			"test_key": tc.Key,
			"status":   string(tc.Status),
			"error":    err.Error(),
		})
	}
	log.Info(ctx, "test case skipped", map[string]interface{}{
		"test_key": tc.Key,
		"reason":   reason,
	})
	r.finish(tc)
}

func (r *Runner) finish(tc *testcase.TestCase) {
	if r.recorder != nil {
		r.recorder.ObserveTest(tc)
	}
	if r.onResult != nil {
		r.onResult(tc)
	}
}

// execute runs one test case to a final status and returns the agent
// output together with any execution error.
func (r *Runner) execute(ctx context.Context, log logger.Logger, tc *testcase.TestCase) (output string, execErr error) {
	log = log.WithFields(map[string]interface{}{
		"test_key": tc.Key,
		"test_id":  tc.ID,
	})

	// 1. Start before touching the pool so a rejected case costs no credential
	if err := tc.Start(); err != nil {
		execErr = fmt.Errorf("start test case: %w", err)
		r.fail(ctx, log, tc, "", execErr)
		return "", execErr
	}

	// 2. Acquire the next credential
	cred, err := r.pool.Next()
	if err != nil {
		execErr = err
		r.fail(ctx, log, tc, "", err)
		return "", execErr
	}
	log = log.WithField("credential", cred.String())
	if r.recorder != nil {
		r.recorder.ObserveCredential(cred.Index)
	}

	// 3. Fresh telemetry window
	r.tracker.Reset()
	log.Info(ctx, "running test case", nil)

	// 4. Build the agent and execute the steps
	output, execErr = r.invoke(ctx, log, cred, tc.Steps)

	// 5. Record the outcome
	usage := r.tracker.Snapshot()
	if execErr != nil {
		r.fail(ctx, log, tc, output, execErr)
	} else {
		outcome := ClassifyOutcome(output)
		if err := tc.Complete(outcome.Status, output); err != nil {
			log.Warn(ctx, "cannot complete test case", map[string]interface{}{"error": err.Error()})
		}
		tc.Reason = outcome.Reason
		if outcome.Status == testcase.StatusFailed {
			log.Warn(ctx, "test case failed", map[string]interface{}{"reason": outcome.Reason})
		}
	}
	tc.SetUsage(usage.TotalInputTokens, usage.TotalOutputTokens, usage.TotalCost)

	log.Info(ctx, "test case finished", map[string]interface{}{
		"status":        string(tc.Status),
		"duration":      tc.DurationSeconds(),
		"input_tokens":  tc.InputTokens,
		"output_tokens": tc.OutputTokens,
	})
	return output, execErr
}

// invoke builds a fresh agent and runs the steps, converting panics into
// errors so a single test can never abort the run.
func (r *Runner) invoke(ctx context.Context, log logger.Logger, cred credential.Credential, steps string) (output string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error(ctx, "agent panicked", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"stack": string(debug.Stack()),
			})
			err = fmt.Errorf("agent panicked: %v", rec)
		}
	}()

	a, err := r.factory.New(ctx, cred, r.tracker)
	if err != nil {
		return "", fmt.Errorf("build agent: %w", err)
	}
	return a.Execute(ctx, steps)
}

func (r *Runner) fail(ctx context.Context, log logger.Logger, tc *testcase.TestCase, output string, cause error) {
	if tc.Status != testcase.StatusRunning {
		tc.Reset()
		_ = tc.Start()
	}
	if err := tc.Complete(testcase.StatusFailed, output); err != nil {
		log.Warn(ctx, "cannot complete test case", map[string]interface{}{"error": err.Error()})
	}
	tc.Reason = cause.Error()
	log.Error(ctx, "test case execution failed", map[string]interface{}{
		"error": cause.Error(),
	})
}
