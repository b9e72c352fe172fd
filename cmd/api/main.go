package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hamed0406/resourcewatch/internal/app"
	"github.com/hamed0406/resourcewatch/internal/config"
	"github.com/hamed0406/resourcewatch/internal/httpapi"
	apimw "github.com/hamed0406/resourcewatch/internal/httpapi/middleware"
	"github.com/hamed0406/resourcewatch/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to resourcewatch.yaml")
	flag.Parse()

	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(logging.Options{Dir: cfg.Log.Dir, Level: cfg.Log.Level, Stderr: cfg.Log.Stderr})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup_failed", zap.Error(err))
	}
	defer a.Close()

	api := httpapi.NewServer(logger, a.Resources, a.Runner, a.Codes)
	srv := &http.Server{
		Addr: cfg.API.Addr,
		Handler: api.Router(httpapi.Options{
			Keys:           apimw.Keys{Public: cfg.Auth.PublicKeys, Admin: cfg.Auth.AdminKeys},
			AllowedOrigins: cfg.API.AllowedOrigins,
			CheckPerMin:    cfg.API.CheckPerMin,
			CheckBurst:     cfg.API.CheckBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := a.Runner.Start(ctx); err != nil {
			logger.Error("scheduler_failed", zap.Error(err))
			stop()
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.API.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_failed", zap.Error(err))
	}
	logger.Info("api_stopped")
}
