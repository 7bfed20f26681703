package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ventanaops/ventana/internal/api"
	"github.com/ventanaops/ventana/internal/config"
	"github.com/ventanaops/ventana/internal/logger"
	"github.com/ventanaops/ventana/internal/repository"
	"github.com/ventanaops/ventana/internal/service"
	"github.com/ventanaops/ventana/internal/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	log := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config: %v", err)
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database: %v", err)
	}

	store, err := storage.New(&cfg.Storage)
	if err != nil {
		logger.Fatal("failed to initialize storage: %v", err)
	}

	completer := service.NewCompletionClient(&cfg.LLM)
	extractor := service.NewExtractor(completer)
	notices := service.NewNoticeService(cfg.Notice, store)
	pipeline := service.NewPipeline(
		repository.NewTaskRepository(db),
		repository.NewServiceRepository(db),
		repository.NewCatalogRepository(db),
		extractor,
		notices,
	)

	router := api.NewRouter(&cfg.Server, db, pipeline)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown: %v", err)
	}
	logger.Info("server stopped")
}
