package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studio/internal/adapter/repo"
	"studio/internal/credentials"
	"studio/internal/http/handlers"
	httpapi "studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/infra/geoip"
	"studio/internal/middleware"
	"studio/internal/providers/genai"
	"studio/internal/session"
	"studio/internal/storage"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure storage")
	}

	keySource := credentials.NewResolver(runner, cfg.GeminiAPIKey, logger)
	geminiClient, err := genai.NewClient(genai.Options{
		Keys:       keySource,
		BaseURL:    cfg.GeminiBaseURL,
		ImageModel: cfg.GeminiModel,
		VideoModel: cfg.VeoModel,
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		Logger:     &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to configure gemini client")
	}

	var countryLookup middleware.CountryLookup
	if resolver, err := geoip.NewResolver(cfg.GeoIPDBPath); err != nil {
		logger.Warn().Err(err).Msg("api: geoip database unavailable")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Log:          logger,
		Styles:       geminiClient,
		Jobs:         repo.NewRenderJobRepository(runner),
		Transactions: repo.NewTransactionRepository(runner, logger),
		Coupons:      repo.NewCouponRepository(runner),
		Sessions:     session.NewPGStore(runner),
		Artifacts:    fileStore,
		BasePrice:    cfg.VideoBasePrice,
		Currency:     cfg.Currency,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CountryLookup:   countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
