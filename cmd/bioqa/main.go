package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/biometriqa/harness/internal/anomaly"
	"github.com/biometriqa/harness/internal/client"
	"github.com/biometriqa/harness/internal/config"
	"github.com/biometriqa/harness/internal/report"
	"github.com/biometriqa/harness/internal/runner"
	"github.com/biometriqa/harness/internal/storage"
	"github.com/biometriqa/harness/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		scenario   = flag.String("scenario", "enrollment", "scenario to run: enrollment or authentication")
		testName   = flag.String("name", "", "test name recorded on the report")
		username   = flag.String("username", "", "existing username (authentication scenario)")
		expected   = flag.String("expected", "", "expected outcome recorded on the report")
		framesPath = flag.String("frames", "", "path to a JSON file with face frames")
		document   = flag.String("document", "", "path to a JSON file with the document OCR payload")
		listRuns   = flag.Bool("list-runs", false, "list archived runs and exit")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *listRuns {
		if err := printRuns(cfg.Archive.Path); err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		return
	}

	shutdown, err := telemetry.InitTracer("bioqa-harness", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx := context.Background()
	c := client.FromConfig(cfg, logger)

	if !c.Health(ctx) {
		log.Fatalf("Remote API at %s is not reachable", cfg.API.BaseURL)
	}

	run := runner.New(c, anomaly.PolicyFromConfig(cfg.Policy), logger)

	var rep *report.Report
	switch *scenario {
	case "enrollment":
		opts := runner.EnrollmentOptions{ExpectedOutcome: *expected}
		if opts.FaceFrames, err = loadFrames(*framesPath); err != nil {
			log.Fatalf("Failed to load frames: %v", err)
		}
		if *document != "" {
			if opts.DocumentPayload, err = loadJSONObject(*document); err != nil {
				log.Fatalf("Failed to load document payload: %v", err)
			}
		}
		rep, err = run.EnrollmentFlow(ctx, orDefault(*testName, "enrollment"), opts)
	case "authentication":
		if *username == "" {
			log.Fatalf("authentication scenario requires -username")
		}
		opts := runner.AuthenticationOptions{
			Username:       *username,
			ExpectedResult: *expected,
		}
		if opts.FaceFrames, err = loadFrames(*framesPath); err != nil {
			log.Fatalf("Failed to load frames: %v", err)
		}
		rep, err = run.AuthenticationFlow(ctx, orDefault(*testName, "authentication"), opts)
	default:
		log.Fatalf("Unknown scenario %q", *scenario)
	}
	if err != nil {
		log.Fatalf("Scenario failed: %v", err)
	}

	summary := report.Assemble(rep)

	if cfg.Archive.Enabled {
		store, err := storage.New(cfg.Archive.Path)
		if err != nil {
			log.Fatalf("Failed to open archive: %v", err)
		}
		defer store.Close()
		if err := store.SaveRun(ctx, rep, summary); err != nil {
			log.Fatalf("Failed to archive run: %v", err)
		}
	}

	out, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode report: %v", err)
	}
	fmt.Println(string(out))

	logger.Info("run complete",
		slog.String("run_id", rep.RunID),
		slog.Int("criticals", len(summary.Criticals)),
		slog.Int("warnings", len(summary.Warnings)),
		slog.Bool("passed", summary.Success),
	)
	if !summary.Success {
		os.Exit(1)
	}
}

func printRuns(dbPath string) error {
	store, err := storage.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRuns(context.Background(), 50)
	if err != nil {
		return err
	}
	for _, r := range runs {
		verdict := "PASS"
		if !r.Passed {
			verdict = "FAIL"
		}
		fmt.Printf("%s  %-30s  %s  criticals=%d warnings=%d  %dms\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.TestName, verdict,
			r.Criticals, r.Warnings, r.DurationMS)
	}

	totals, err := store.Aggregate(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("\n%d runs: %d passed, %d failed, %d criticals\n",
		totals.Runs, totals.Passed, totals.Failed, totals.Criticals)
	return nil
}

func loadFrames(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var frames []map[string]any
	if err := json.Unmarshal(raw, &frames); err != nil {
		return nil, err
	}
	return frames, nil
}

func loadJSONObject(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
