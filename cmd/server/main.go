package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ocrgateway/internal/bootstrap"
	"ocrgateway/internal/config"
	"ocrgateway/internal/logger"
	"ocrgateway/internal/server"
)

func main() {
	configFile := flag.String("config", "", "path to config.yml")
	envFile := flag.String("env", "", "path to .env")
	flag.Parse()

	cfg, err := config.Load(config.WithConfigFile(*configFile), config.WithEnvFile(*envFile))
	if err != nil {
		logger.Get("main").Error("load config", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
	logger.Init(cfg.Log)
	log := logger.Get("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := bootstrap.InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		log.Error("init metrics", logger.Fields(logger.FieldError, err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownMetrics(context.Background()); err != nil {
			log.Warn("metrics shutdown", logger.Fields(logger.FieldError, err.Error()))
		}
	}()

	if err := server.Run(ctx, cfg); err != nil {
		log.Error("server stopped", logger.Fields(logger.FieldError, err.Error()))
		stop()
		os.Exit(1)
	}
}
