package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ocrgateway/internal/bootstrap"
	"ocrgateway/internal/config"
	"ocrgateway/internal/logger"
	"ocrgateway/internal/server/handler"
	"ocrgateway/internal/server/router"
	"ocrgateway/internal/server/service"
)

// NewHandler builds the dependency chain and returns the HTTP handler.
func NewHandler(cfg *config.Config, rec service.Recognizer) http.Handler {
	ocrService := service.NewOCRService(rec, service.Options{
		MaxUploadBytes:       cfg.MaxUploadBytes(),
		FetchTimeout:         cfg.Fetch.Timeout,
		MaxFetchBytes:        cfg.Fetch.MaxBytes,
		AllowPrivateNetworks: cfg.Fetch.AllowPrivate,
	})
	ocrHandler := handler.NewOCRHandler(ocrService, cfg.MaxUploadBytes())
	return router.New(cfg.Server.APIKey, ocrHandler)
}

// Run starts the HTTP server and blocks until ctx is cancelled, then shuts
// down gracefully.
func Run(ctx context.Context, cfg *config.Config) error {
	switch cfg.Server.Mode {
	case "prod", "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	manager, err := bootstrap.NewManager(cfg)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", ":"+cfg.Server.Port)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, ln, NewHandler(cfg, manager), cfg.Server.ShutdownTimeout)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, shutdownTimeout time.Duration) error {
	log := logger.Get("server").WithFields(logger.Fields("addr", ln.Addr().String()))
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
