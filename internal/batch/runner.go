// Package batch orchestrates one processing run: discover input files per
// language folder, annotate each file through the retrying client, persist
// artifacts and report progress to an observer.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/SirHooke/debias-batch-processor/internal/debias"
	"github.com/SirHooke/debias-batch-processor/internal/report"
	"github.com/SirHooke/debias-batch-processor/internal/retry"
	"github.com/SirHooke/debias-batch-processor/internal/source"
)

// Config is the immutable per-run configuration snapshot. It is copied at
// run start; edits by an external caller never reach a running batch.
type Config struct {
	InputRoot  string
	OutputRoot string
	Flags      debias.Flags

	// MaxRetries is the number of extra attempts after the first.
	MaxRetries int

	RequestTimeout    time.Duration
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffJitterFrac float64

	// RateLimitRPS caps annotation calls across the whole run. <=0 disables.
	RateLimitRPS float64

	// Sleep overrides backoff waits between retry attempts. Tests use this;
	// nil means real timers.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Runner drives the per-file pipeline sequentially over all discovered jobs.
type Runner struct {
	cfg       Config
	annotator debias.Annotator
	logger    *slog.Logger
	observer  Observer
}

func NewRunner(cfg Config, annotator debias.Annotator, logger *slog.Logger, observer Observer) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if observer == nil {
		observer = func(Event) {}
	}
	return &Runner{cfg: cfg, annotator: annotator, logger: logger, observer: observer}
}

// Run processes every discovered file and returns the aggregate summary.
// Per-file failures become Skipped outcomes and never abort the run; only an
// inaccessible input or output root, or cancellation, is fatal.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.New().String()
	logger := r.logger.With("run_id", runID)
	start := time.Now()

	if _, err := os.Stat(r.cfg.InputRoot); err != nil {
		return Summary{}, fmt.Errorf("input folder not found: %w", err)
	}
	if err := os.MkdirAll(r.cfg.OutputRoot, 0o755); err != nil {
		return Summary{}, fmt.Errorf("create output folder: %w", err)
	}

	jobs, err := DiscoverJobs(r.cfg.InputRoot, logger)
	if err != nil {
		return Summary{}, err
	}
	logger.Info("run.start",
		"files", len(jobs),
		"input", r.cfg.InputRoot,
		"output", r.cfg.OutputRoot,
		"use_ner", r.cfg.Flags.UseNER,
		"use_llm", r.cfg.Flags.UseLLM,
		"max_retries", r.cfg.MaxRetries,
	)

	var limiter *rate.Limiter
	if r.cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.cfg.RateLimitRPS), 1)
	}

	var sum Summary
	sum.Files = len(jobs)
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		ev, err := r.processFile(ctx, logger, job, limiter)
		if err != nil {
			// Only cancellation propagates out of a file.
			return sum, err
		}
		switch ev.Kind {
		case EventFileSucceeded:
			sum.Succeeded++
			if ev.Report {
				sum.Reported++
			}
		case EventFileSkipped:
			sum.Skipped++
		}
		r.observer(ev)
	}

	logger.Info("run.complete",
		"files", sum.Files,
		"succeeded", sum.Succeeded,
		"reported", sum.Reported,
		"skipped", sum.Skipped,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	r.observer(Event{Kind: EventRunCompleted, Summary: sum})
	return sum, nil
}

func (r *Runner) processFile(ctx context.Context, logger *slog.Logger, job FileJob, limiter *rate.Limiter) (Event, error) {
	logger = logger.With("language", job.Language, "file", job.BaseName)
	logger.Info("file.start", "path", job.SourcePath)
	r.observer(Event{Kind: EventFileStarted, Job: job})

	records, err := source.ReadRecords(job.SourcePath)
	if err != nil {
		logger.Warn("file.read_error", "error", err)
		return Event{Kind: EventFileSkipped, Job: job, Err: err}, nil
	}

	var res debias.Result
	if len(records) == 0 {
		// Zero-record files are trivially successful: no remote call is
		// made and an empty result artifact is written.
		logger.Info("file.empty")
		res = debias.EmptyResult()
	} else {
		res, err = retry.Invoke(ctx, func(ctx context.Context) (debias.Result, error) {
			return r.annotator.Annotate(ctx, job.Language, records, r.cfg.Flags)
		}, retry.Options{
			MaxRetries:        r.cfg.MaxRetries,
			RequestTimeout:    r.cfg.RequestTimeout,
			BackoffInitial:    r.cfg.BackoffInitial,
			BackoffMax:        r.cfg.BackoffMax,
			BackoffJitterFrac: r.cfg.BackoffJitterFrac,
			Limiter:           limiter,
			Sleep:             r.cfg.Sleep,
		})
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			logger.Warn("file.skipped", "error", err)
			return Event{Kind: EventFileSkipped, Job: job, Err: err}, nil
		}
	}

	jsonPath, err := report.WriteResult(r.cfg.OutputRoot, job.BaseName, res)
	if err != nil {
		logger.Warn("file.write_error", "error", err)
		return Event{Kind: EventFileSkipped, Job: job, Err: err}, nil
	}
	logger.Info("file.result_written", "path", jsonPath, "entries", len(res.Entries), "tags", res.TagCount())

	pdfPath, built, err := report.BuildReport(r.cfg.OutputRoot, job.BaseName, res)
	if err != nil {
		// The JSON artifact stands; a rendering failure is reported but not
		// rolled back.
		logger.Warn("file.report_error", "error", err)
		return Event{Kind: EventFileSucceeded, Job: job, JSONPath: jsonPath, Err: err}, nil
	}
	if built {
		logger.Info("file.report_written", "path", pdfPath)
	} else {
		logger.Info("file.no_flagged_entries")
	}
	return Event{Kind: EventFileSucceeded, Job: job, JSONPath: jsonPath, ReportPath: pdfPath, Report: built}, nil
}
