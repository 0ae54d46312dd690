package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/SirHooke/debias-batch-processor/internal/analytics"
	"github.com/SirHooke/debias-batch-processor/internal/batch"
	"github.com/SirHooke/debias-batch-processor/internal/config"
	"github.com/SirHooke/debias-batch-processor/internal/debias"
	"github.com/SirHooke/debias-batch-processor/internal/debias/gemini"
	"github.com/SirHooke/debias-batch-processor/internal/util"
	"github.com/SirHooke/debias-batch-processor/internal/version"
	"github.com/SirHooke/debias-batch-processor/internal/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "help", "-h", "--help":
		usage(os.Stdout)
		return
	case "version", "-version", "--version":
		fmt.Println(version.Current)
		return
	case "run":
		os.Exit(cmdRun(ctx, os.Args[2:]))
	case "watch":
		os.Exit(cmdWatch(ctx, os.Args[2:]))
	case "stats":
		os.Exit(cmdStats(ctx, os.Args[2:]))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func cmdRun(ctx context.Context, args []string) int {
	cfg, logger, code := loadConfig(args, "run")
	if code != 0 {
		return code
	}

	annotator, err := buildAnnotator(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "annotator error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	sum, code := runOnce(ctx, cfg, annotator, logger)
	if code != 0 {
		return code
	}
	if sum.Skipped > 0 {
		return 1
	}
	return 0
}

func cmdWatch(ctx context.Context, args []string) int {
	cfg, logger, code := loadConfig(args, "watch")
	if code != 0 {
		return code
	}

	annotator, err := buildAnnotator(ctx, cfg, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "annotator error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	triggers, err := watch.Triggers(ctx, cfg.Input.InputFolder, cfg.Watch.Debounce, logger)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "watch error: %s\n", util.RedactSecrets(err.Error()))
		return 2
	}

	// Process whatever is already there, then follow changes.
	if _, code := runOnce(ctx, cfg, annotator, logger); code != 0 {
		return code
	}
	for {
		select {
		case <-ctx.Done():
			return 0
		case _, ok := <-triggers:
			if !ok {
				return 0
			}
			if _, code := runOnce(ctx, cfg, annotator, logger); code != 0 {
				return code
			}
		}
	}
}

func cmdStats(ctx context.Context, args []string) int {
	cfg, _, code := loadConfig(args, "stats")
	if code != 0 {
		return code
	}

	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	xlsxPath := fs.String("xlsx", "", "Write the summary workbook to this path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	stats, err := analytics.ScanOutputs(cfg.Input.OutputFolder)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
		return 1
	}
	for _, f := range stats.Files {
		fmt.Printf("%-40s lang=%-3s records=%-5d tagged=%-5d tags=%d\n", f.File, f.Language, f.Records, f.Tagged, f.Tags)
	}
	if len(stats.Issues) > 0 {
		fmt.Println()
		for _, ic := range stats.Issues {
			fmt.Printf("%-3s %-40q %d\n", ic.Language, ic.Literal, ic.Count)
		}
	}

	if store, err := analytics.OpenStore(historyPath(cfg)); err == nil {
		if runs, err := store.Runs(ctx); err == nil && len(runs) > 0 {
			fmt.Println()
			for _, r := range runs {
				fmt.Printf("run %s at %s: files=%d succeeded=%d reported=%d skipped=%d\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Summary.Files, r.Summary.Succeeded, r.Summary.Reported, r.Summary.Skipped)
			}
		}
		_ = store.Close()
	}

	if *xlsxPath != "" {
		if err := analytics.ExportXLSX(stats, *xlsxPath); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "xlsx export error: %v\n", err)
			return 1
		}
		fmt.Printf("summary workbook written to %s\n", *xlsxPath)
	}
	return 0
}

func runOnce(ctx context.Context, cfg *config.Config, annotator debias.Annotator, logger *slog.Logger) (batch.Summary, int) {
	runID := uuid.New().String()

	var recorder batch.Observer
	store, err := analytics.OpenStore(historyPath(cfg))
	if err != nil {
		// History is advisory; the run proceeds without it.
		logger.Warn("history unavailable", "error", err)
	} else {
		defer func() {
			_ = store.Close()
		}()
		recorder = analytics.NewRecorder(store, runID, time.Now())
	}

	runner := batch.NewRunner(batch.Config{
		InputRoot:  cfg.Input.InputFolder,
		OutputRoot: cfg.Input.OutputFolder,
		Flags: debias.Flags{
			UseNER: cfg.Input.UseNER,
			UseLLM: cfg.Input.UseLLM,
		},
		MaxRetries:        cfg.Retry.MaxRetries,
		RequestTimeout:    cfg.API.RequestTimeout,
		BackoffInitial:    cfg.Retry.BackoffInitial,
		BackoffMax:        cfg.Retry.BackoffMax,
		BackoffJitterFrac: cfg.Retry.BackoffJitterFrac,
		RateLimitRPS:      cfg.API.RateLimitRPS,
	}, annotator, logger, consoleObserver(recorder))

	sum, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return sum, 0
		}
		_, _ = fmt.Fprintf(os.Stderr, "run failed: %s\n", util.RedactSecrets(err.Error()))
		return sum, 1
	}
	return sum, 0
}

// consoleObserver prints per-file progress lines for a live log view and
// chains into the optional history recorder.
func consoleObserver(next batch.Observer) batch.Observer {
	return func(ev batch.Event) {
		switch ev.Kind {
		case batch.EventFileStarted:
			fmt.Printf("[%s/%s] processing...\n", ev.Job.Language, ev.Job.BaseName)
		case batch.EventFileSucceeded:
			if ev.Report {
				fmt.Printf("[%s/%s] done, report written to %s\n", ev.Job.Language, ev.Job.BaseName, ev.ReportPath)
			} else if ev.Err != nil {
				fmt.Printf("[%s/%s] done, but report failed: %s\n", ev.Job.Language, ev.Job.BaseName, util.RedactSecrets(ev.Err.Error()))
			} else {
				fmt.Printf("[%s/%s] done, no flagged entries\n", ev.Job.Language, ev.Job.BaseName)
			}
		case batch.EventFileSkipped:
			fmt.Printf("[%s/%s] skipped: %s\n", ev.Job.Language, ev.Job.BaseName, util.RedactSecrets(ev.Err.Error()))
		case batch.EventRunCompleted:
			fmt.Printf("DONE. files=%d succeeded=%d reported=%d skipped=%d\n",
				ev.Summary.Files, ev.Summary.Succeeded, ev.Summary.Reported, ev.Summary.Skipped)
		}
		if next != nil {
			next(ev)
		}
	}
}

func buildAnnotator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (debias.Annotator, error) {
	switch cfg.API.Backend {
	case "gemini":
		return gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		})
	default:
		return debias.NewClient(debias.ClientConfig{
			URL:     cfg.API.URL,
			Timeout: cfg.API.RequestTimeout,
			Logger:  logger,
		})
	}
}

func loadConfig(args []string, cmd string) (*config.Config, *slog.Logger, int) {
	_ = args // flags beyond the shared config are parsed per subcommand
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s config error: %s\n", cmd, util.RedactSecrets(err.Error()))
		return nil, nil, 2
	}
	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, 0
}

func historyPath(cfg *config.Config) string {
	return filepath.Join(cfg.Input.OutputFolder, "history.db")
}

func usage(w *os.File) {
	_, _ = fmt.Fprintf(w, `debias: batch text annotation through the De-bias API

Usage:
  debias <command> [flags]

Commands:
  run      Process every file under the input folder once
  watch    Process continuously as the input folder changes
  stats    Summarize produced artifacts and run history
  version  Print the release version

Configuration is read from CONFIG_PATH (fallback ./config.yaml) with
environment overrides:
  INPUT_FOLDER   Input root with per-language subfolders (nl en de fr it)
  OUTPUT_FOLDER  Output root for .json and .pdf artifacts
  USE_NER        Forward the NER flag to the service
  USE_LLM        Forward the LLM flag to the service
  MAX_RETRIES    Extra attempts after the first per file
  API_URL        De-bias API endpoint (backend "http")
  API_BACKEND    "http" (default) or "gemini"

`)
}
