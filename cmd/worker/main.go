package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sasbridge/internal/adapter/repo"
	"sasbridge/internal/db"
	"sasbridge/internal/domain"
	"sasbridge/internal/infra"
	"sasbridge/internal/infra/credentials"
	"sasbridge/internal/translator"
)

type taskWorker struct {
	tasks        domain.TaskRepository
	projects     domain.ProjectRepository
	pipeline     *translator.Pipeline
	logger       infra.Logger
	pollInterval time.Duration
	taskTimeout  time.Duration
	now          func() time.Time
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection failed")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	apiKey := strings.TrimSpace(cfg.LLMAPIKey)
	if apiKey == "" {
		store := credentials.NewStore(pool)
		keyFromStore, err := store.LLMAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load llm api key from store")
		} else {
			apiKey = keyFromStore
		}
	}

	client, err := translator.NewClient(translator.ClientOptions{
		APIKey:     apiKey,
		Model:      cfg.LLMModel,
		BaseURL:    cfg.LLMBaseURL,
		APIVersion: cfg.LLMAPIVersion,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("llm client not configured, set LLM_API_KEY or store a key with cmd/llmkey")
	}

	worker := &taskWorker{
		tasks:        repo.NewTaskRepository(pool),
		projects:     repo.NewProjectRepository(pool),
		pipeline:     &translator.Pipeline{Client: client, Logger: logger},
		logger:       logger,
		pollInterval: cfg.WorkerPollInterval,
		taskTimeout:  cfg.TaskTimeout,
		now:          time.Now,
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker stopped with error")
	}
	logger.Info().Msg("worker stopped")
}

// Run polls for claimable tasks until the context is cancelled. Each claim
// flips exactly one pending task to running; concurrent workers never grab
// the same row.
func (w *taskWorker) Run(ctx context.Context) error {
	w.logger.Info().Dur("poll_interval", w.pollInterval).Msg("worker started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		task, err := w.tasks.ClaimNext(ctx, w.now().UTC())
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("claim failed")
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.pollInterval):
			}
			continue
		}

		w.handle(ctx, task)
	}
}

func (w *taskWorker) handle(ctx context.Context, task *domain.ConversionTask) {
	w.logger.Info().Str("task_id", task.ID).Str("file", task.FileName).Msg("picked task")

	project, err := w.projects.Get(ctx, task.ProjectID)
	if err != nil {
		w.finalize(ctx, task.ID, failedOutcome("load project: "+err.Error()))
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, w.taskTimeout)
	outcome := w.pipeline.Run(runCtx, task, project.TargetType)
	cancel()

	w.finalize(ctx, task.ID, outcome)
	w.updateProjectProgress(ctx, project)
}

func failedOutcome(msg string) domain.TaskOutcome {
	return domain.TaskOutcome{Status: domain.TaskStatusFailed, ErrorMessage: &msg}
}

// finalize persists the terminal outcome. The repository guards the write
// on status = 'running', so losing a race (another finalize, an operator
// reset) surfaces as ErrNotFound rather than a silent overwrite.
func (w *taskWorker) finalize(ctx context.Context, taskID string, outcome domain.TaskOutcome) {
	if err := w.tasks.Finalize(ctx, taskID, outcome, w.now().UTC()); err != nil {
		w.logger.Error().Err(err).Str("task_id", taskID).Str("status", string(outcome.Status)).
			Msg("finalize failed")
		return
	}
	w.logger.Info().Str("task_id", taskID).Str("status", string(outcome.Status)).Msg("task finalized")
}

// updateProjectProgress recomputes a project's progress from its terminal
// task count and flips it to reviewing once everything has drained.
func (w *taskWorker) updateProjectProgress(ctx context.Context, project *domain.Project) {
	total, terminal, err := w.tasks.Progress(ctx, project.ID)
	if err != nil {
		w.logger.Error().Err(err).Str("project_id", project.ID).Msg("progress query failed")
		return
	}
	if total == 0 {
		return
	}
	progress := terminal * 100 / total
	status := domain.ProjectStatusConverting
	if terminal == total {
		status = domain.ProjectStatusReviewing
	}
	if err := w.projects.SetProgress(ctx, project.ID, status, progress); err != nil {
		w.logger.Error().Err(err).Str("project_id", project.ID).Msg("progress update failed")
	}
}
