package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio/internal/adapter/repo"
	"studio/internal/credentials"
	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/payments"
	"studio/internal/providers/genai"
	"studio/internal/providers/kling"
	"studio/internal/render"
	"studio/internal/storage"
)

const (
	claimPollInterval  = 2 * time.Second
	staleSweepInterval = time.Minute
)

type jobWorker struct {
	ctx          context.Context
	jobs         *repo.RenderJobRepositoryPG
	orchestrator *render.Orchestrator
	logger       infra.Logger

	// Jobs untouched for longer than this are presumed abandoned by a dead
	// worker and returned to the queue.
	staleAfter time.Duration
	lastSweep  time.Time
}

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}

	keySource := credentials.NewResolver(runner, cfg.GeminiAPIKey, logger)
	geminiClient, err := genai.NewClient(genai.Options{
		Keys:       keySource,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiModel,
		VideoModel: cfg.VeoModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure gemini client")
	}

	providers := map[domain.ProviderName]render.Provider{
		domain.ProviderGemini: render.NewGeminiProvider(geminiClient),
	}
	klingClient, err := kling.NewClient(kling.Options{
		AccessKey:  cfg.KlingAccessKey,
		SecretKey:  cfg.KlingSecretKey,
		BaseURL:    cfg.KlingBaseURL,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("worker: kling credentials missing, engine disabled")
	} else {
		providers[domain.ProviderKling] = render.NewKlingProvider(klingClient)
	}

	gateway, err := payments.NewRazorpay(payments.RazorpayOptions{
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		BaseURL:   cfg.RazorpayBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: payment gateway not configured")
	}

	transactions := repo.NewTransactionRepository(runner, logger)
	coordinator := payments.NewCoordinator(gateway, transactions, logger)
	poller := render.NewPoller(cfg.PollInterval, cfg.PollMaxAttempts, cfg.ArtifactGraceTicks, logger)
	orchestrator := render.NewOrchestrator(providers, coordinator, fileStore, poller, logger)

	worker := &jobWorker{
		ctx:          ctx,
		jobs:         repo.NewRenderJobRepository(runner),
		orchestrator: orchestrator,
		logger:       logger,
		staleAfter:   cfg.PollInterval*time.Duration(cfg.PollMaxAttempts) + 5*time.Minute,
	}

	if err := worker.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func (w *jobWorker) Run() error {
	w.logger.Info().Msg("worker: started")
	for {
		select {
		case <-w.ctx.Done():
			return w.ctx.Err()
		default:
		}

		w.sweepStale()

		job, err := w.jobs.Claim(w.ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				w.logger.Error().Err(err).Msg("worker: failed to claim job")
			}
			select {
			case <-w.ctx.Done():
				return w.ctx.Err()
			case <-time.After(claimPollInterval):
			}
			continue
		}

		w.handleJob(job)
	}
}

// sweepStale requeues claims left in submitted/polling past the poll budget,
// so a restart cannot strand a job with its payment hold unresolved.
func (w *jobWorker) sweepStale() {
	if time.Since(w.lastSweep) < staleSweepInterval {
		return
	}
	w.lastSweep = time.Now()
	n, err := w.jobs.RequeueStale(w.ctx, w.staleAfter)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: stale sweep failed")
		return
	}
	if n > 0 {
		w.logger.Warn().Int64("jobs", n).Msg("worker: requeued stale claims")
	}
}

func (w *jobWorker) handleJob(job *domain.GenerationJob) {
	w.logger.Info().
		Str("job_id", job.ID).
		Str("kind", string(job.Kind)).
		Str("provider", string(job.Provider)).
		Msg("worker: picked job")

	hooks := render.Hooks{
		OnSubmitted: func(taskID string) {
			if err := w.jobs.UpdateStatus(w.ctx, job.ID, domain.JobStatusPolling, taskID, "", ""); err != nil {
				w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: persist task id failed")
			}
		},
		OnProgress: func(percent int) {
			if err := w.jobs.UpdateProgress(w.ctx, job.ID, percent); err != nil {
				w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: persist progress failed")
			}
		},
	}

	outcome := w.orchestrator.Run(w.ctx, job, hooks)
	if outcome.Err != nil {
		w.logger.Error().Err(outcome.Err).
			Str("job_id", job.ID).
			Str("status", string(outcome.Status)).
			Msg("worker: job finished with error")
	}
	if !outcome.Status.Terminal() {
		// Shutdown mid-poll; the stale sweep requeues the claim once it ages
		// past the poll budget.
		return
	}
	if err := w.jobs.UpdateStatus(w.ctx, job.ID, outcome.Status, outcome.TaskID, outcome.ArtifactKey, outcome.UserMessage); err != nil {
		w.logger.Error().Err(err).Str("job_id", job.ID).Msg("worker: update status failed")
	}
}
