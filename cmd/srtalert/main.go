package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"srtalert/pkg/config"
	"srtalert/pkg/logger"
	"srtalert/pkg/tracing"

	"go.uber.org/zap"
)

const version = "1.0.0"

// FatalExitDelay keeps the console open long enough to read the error
const FatalExitDelay = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file (.yaml or legacy .json)")
	flag.Parse()

	fmt.Printf("srtalert v%s\n", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(logger.New("info", "console"), "failed to load configuration", err)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	tp, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "srtalert",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	}, version)
	if err != nil {
		fatal(zapLogger, "failed to initialize tracing", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Errorw("error shutting down tracer", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Infow("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := newApp(ctx, cfg, zapLogger)
	if err != nil {
		fatal(zapLogger, "failed to start", err)
	}

	log.Infow("starting srtalert",
		"version", version,
		"stats_url", cfg.Stats.URL,
		"publisher", cfg.Stats.Publisher,
		"obs", cfg.OBSAddress(),
		"scene", cfg.Overlay.SceneName,
		"source", cfg.Overlay.SourceName,
	)

	err = a.run(ctx)
	a.close()
	if err != nil {
		fatal(zapLogger, "monitor stopped", err)
	}

	log.Info("srtalert stopped")
}

func fatal(zapLogger *zap.Logger, msg string, err error) {
	zapLogger.Error(msg, zap.Error(err), zap.Duration("exit_in", FatalExitDelay))
	zapLogger.Sync()
	time.Sleep(FatalExitDelay)
	os.Exit(1)
}
