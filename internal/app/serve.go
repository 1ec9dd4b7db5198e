package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"oldprague.photos/fotoatlas/internal/cli"
	"oldprague.photos/fotoatlas/internal/config"
	"oldprague.photos/fotoatlas/internal/db"
	"oldprague.photos/fotoatlas/internal/gateway"
	"oldprague.photos/fotoatlas/internal/httpapi"
	"oldprague.photos/fotoatlas/internal/logging"
	"oldprague.photos/fotoatlas/internal/turnstile"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8080, "HTTP port")
	datasetPath := fs.String("dataset", "", "GeoJSON corpus path (defaults to DATASET_PATH)")
	hintsPath := fs.String("hints", "", "Similarity hints path (defaults to SIMILARITY_HINTS_PATH)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 30*time.Second, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	records, hints, loadStats, err := loadCorpus(cfg, *datasetPath, *hintsPath)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to load corpus")
		fmt.Fprintf(os.Stderr, "Failed to load corpus: %v\n", err)
		return 1
	}
	logger.Info().
		Int("features", loadStats.Features).
		Int("loaded", loadStats.Loaded).
		Int("skipped", loadStats.Skipped).
		Msg("corpus loaded")

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	verifier := turnstile.NewVerifier(cfg.TurnstileSecretKey, nil)
	gate := turnstile.NewGate(verifier, cfg.TurnstileBypass)
	signer := turnstile.NewSessionSigner(
		cfg.SessionSigningSecret(),
		time.Duration(cfg.SessionTTLHours)*time.Hour,
	)
	gw := gateway.New(pool, gate, logger)

	server := httpapi.NewServer(pool, records, hints, gw, verifier, signer, logger, httpapi.Options{
		Host:             *host,
		Port:             *port,
		ReadTimeout:      *readTimeout,
		WriteTimeout:     *writeTimeout,
		ShutdownTimeout:  *shutdownTimeout,
		SessionCookie:    cfg.SessionCookieName,
		SessionSecure:    cfg.SessionCookieSecure,
		TurnstileSiteKey: cfg.TurnstileSiteKey,
		TurnstileBypass:  cfg.TurnstileBypass,
		ArchiveBaseURL:   cfg.ArchiveBaseURL,
		AllowedOrigins:   cfg.CORSAllowedOriginsList(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}
