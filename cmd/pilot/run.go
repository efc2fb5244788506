package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/helpdesk-pilot/agent"
	"github.com/hairizuan-noorazman/helpdesk-pilot/credential"
	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/logger"
	"github.com/hairizuan-noorazman/helpdesk-pilot/metrics"
	"github.com/hairizuan-noorazman/helpdesk-pilot/orchestrator"
	"github.com/hairizuan-noorazman/helpdesk-pilot/report"
	"github.com/hairizuan-noorazman/helpdesk-pilot/telemetry"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// errTestsFailed makes the process exit non-zero when a test failed.
var errTestsFailed = errors.New("one or more test cases failed")

var (
	runOutPath     string
	runFailOnError bool
	runNoStore     bool
	runCasesFile   string
	runTag         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all test cases and print the report",
	RunE:  runTests,
}

func init() {
	runCmd.Flags().StringVarP(&runOutPath, "out", "o", "report.json", "write the JSON report to this path (empty to skip)")
	runCmd.Flags().BoolVar(&runFailOnError, "fail-on-error", true, "exit non-zero when any test fails")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "do not persist the run to the result store")
	runCmd.Flags().StringVarP(&runCasesFile, "cases", "f", "", "test case file (overrides run.cases_file)")
	runCmd.Flags().StringVar(&runTag, "tag", "", "remote source tag (overrides source.tag)")
	rootCmd.AddCommand(runCmd)
}

func runTests(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load and validate configuration
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if runCasesFile != "" {
		cfg.Run.CasesFile = runCasesFile
	}
	if runTag != "" {
		cfg.Source.Tag = runTag
	}
	if err := cfg.ValidateRun(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := newLogger(cfg)
	log.Info(ctx, "starting pilot", map[string]interface{}{
		"version": Version,
		"domain":  cfg.Helpdesk.Domain,
		"session": cfg.UsesSession(),
	})

	// 2. Metrics
	m := metrics.New()
	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(ctx, cfg.Metrics.Addr, m, log)
		defer shutdownMetrics(srv)
	}

	// 3. Helpdesk clients and capability registry
	registry, err := newRegistry(ctx, cfg, log, gateway.WithObserver(m))
	if err != nil {
		return err
	}

	// 4. Test cases
	cases, err := loadCases(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to load test cases: %w", err)
	}
	if cfg.Run.Sort != "none" {
		testcase.SortByKey(cases)
	}

	// 5. Agent factory
	prompt, err := agent.LoadSystemPrompt(cfg.Agent.SystemPromptFile)
	if err != nil {
		return fmt.Errorf("failed to load system prompt: %w", err)
	}
	factory := agent.BedrockFactory{
		Tools: registry,
		Config: agent.Config{
			Region:        cfg.Agent.Region,
			Model:         cfg.Agent.Model,
			MaxIterations: cfg.Agent.MaxIterations,
			MaxTokens:     cfg.Agent.MaxTokens,
			SystemPrompt:  prompt,
			TimeLimit:     cfg.Agent.TimeLimit,
		},
		Logger: log,
	}

	// 6. Transcript storage
	blobs, err := newBlobStorage(ctx, cfg)
	if err != nil {
		return err
	}

	// 7. Orchestrate
	out := cmd.OutOrStdout()
	runner := orchestrator.NewRunner(
		credential.New(cfg.Agent.Keys),
		factory,
		telemetry.NewTracker(telemetry.DefaultRates),
		log,
		orchestrator.WithPacing(cfg.Run.Pacing),
		orchestrator.WithTranscripts(report.NewTranscriptStore(blobs)),
		orchestrator.WithRecorder(m),
		orchestrator.OnResult(func(tc *testcase.TestCase) { printResult(out, tc) }),
	)
	rep, err := runner.Run(ctx, cases)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}

	// 8. Report
	fmt.Fprintln(out)
	report.WriteTable(out, rep)
	if runOutPath != "" {
		if err := writeReportFile(runOutPath, rep); err != nil {
			return err
		}
	}

	// 9. Persist
	if !runNoStore {
		if err := saveReport(context.WithoutCancel(ctx), cfg, log, rep); err != nil {
			log.Error(ctx, "failed to persist run", map[string]interface{}{"error": err.Error()})
		}
	}

	if runFailOnError && rep.HasFailures() {
		return errTestsFailed
	}
	return nil
}

func loadCases(ctx context.Context, cfg *Config, log logger.Logger) ([]*testcase.TestCase, error) {
	if cfg.Run.Source == "remote" {
		client, err := gateway.NewAPIKeyClient(gateway.Config{Timeout: cfg.Helpdesk.Timeout}, cfg.Source.APIKey, log,
			gateway.WithBaseURL(cfg.Source.URL),
			gateway.WithScheme(gateway.SchemeToken))
		if err != nil {
			return nil, err
		}
		return testcase.RemoteSource{
			Client:  client,
			Project: cfg.Source.Project,
			Tag:     cfg.Source.Tag,
			Logger:  log,
		}.Load(ctx)
	}
	return testcase.FileSource{Path: cfg.Run.CasesFile}.Load(ctx)
}

// printResult writes the one-line verdict of a finished test case.
func printResult(w io.Writer, tc *testcase.TestCase) {
	var mark string
	switch tc.Status {
	case testcase.StatusPassed:
		mark = text.FgGreen.Sprint("PASS")
	case testcase.StatusFailed:
		mark = text.FgRed.Sprint("FAIL")
	default:
		mark = text.FgYellow.Sprint("SKIP")
	}
	line := fmt.Sprintf("%s %s (%.2fs)", mark, tc.Key, tc.DurationSeconds())
	if tc.Reason != "" && tc.Status != testcase.StatusPassed {
		line += " - " + tc.Reason
	}
	fmt.Fprintln(w, line)
}

func writeReportFile(path string, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := report.WriteJSON(f, rep); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func saveReport(ctx context.Context, cfg *Config, log logger.Logger, rep *report.Report) error {
	db, closeDB, err := openDatabase(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()
	return report.NewGormStore(db, log).Save(ctx, rep)
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info(ctx, "metrics listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()
	return srv
}

func shutdownMetrics(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
