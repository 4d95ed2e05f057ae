package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"careassist/careassist/config"
	"careassist/careassist/controllers"
	"careassist/careassist/routes"
	"careassist/careassist/services/llm"
	"careassist/careassist/services/sessions"
	"careassist/careassist/sources/psql"
	"careassist/careassist/sources/psql/dao"
	"careassist/careassist/sources/storage"
	"careassist/careassist/utils/logging"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	store := sessions.NewStore(dao.NewStateDAO(db.DB))
	if err := store.Load(ctx); err != nil {
		// partial state is usable; details are in the error log
		logging.AppLogger.Warn("session store loaded with warnings", zap.Error(err))
	}

	persona, err := llm.LoadPersona(cfg.PersonaFile)
	if err != nil {
		logging.ErrorLogger.Error("persona load error", zap.Error(err))
		os.Exit(1)
	}
	gen, err := llm.NewGenerator(cfg)
	if err != nil {
		logging.ErrorLogger.Error("llm provider error", zap.Error(err))
		os.Exit(1)
	}
	gateway := llm.NewGateway(gen, persona)

	var archiver controllers.Archiver
	if cfg.ArchiveEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			// exports still work without the archive
			logging.ErrorLogger.Warn("minio connection error, export archive disabled", zap.Error(err))
		} else {
			archiver = minioClient
		}
	}

	handler := routes.NewRouter(routes.Controllers{
		Health:     controllers.NewHealthController(gateway.Model()),
		Completion: controllers.NewCompletionController(gateway),
		Chat:       controllers.NewChatController(store, gateway),
		Sessions:   controllers.NewSessionController(store, archiver),
	}, cfg.RequestTimeout, cfg.WSOrigins...)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: handler,
	}
	go func() {
		logging.AppLogger.Info("server listening",
			zap.String("addr", cfg.Addr),
			zap.String("provider", string(cfg.LLMProvider)),
			zap.String("model", gateway.Model()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
