package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"careflow/careflow/config"
	"careflow/careflow/controllers"
	"careflow/careflow/middlewares"
	"careflow/careflow/routes"
	"careflow/careflow/services/intent"
	"careflow/careflow/services/llm"
	"careflow/careflow/services/notify"
	"careflow/careflow/services/router"
	"careflow/careflow/sources/psql"
	"careflow/careflow/sources/psql/dao"
	"careflow/careflow/sources/storage"
	"careflow/careflow/utils/logging"
)

func main() {
	logging.InitLogger()
	cfg := config.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := psql.NewDatabase(ctx, cfg)
	if err != nil {
		logging.ErrorLogger.Error("database connection error", zap.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	userDAO := dao.NewUserDAO(db.DB)
	sessionDAO := dao.NewSessionDAO(db.DB)
	chatDAO := dao.NewChatMessageDAO(db.DB)
	notifDAO := dao.NewNotificationDAO(db.DB)

	intentCfg := intent.LoadClassifierConfig(cfg.IntentConfigPath)
	intentModel := intent.NewLLMModel(llm.NewClient(cfg.IntentModelURL), cfg.IntentModel, intentCfg)
	classifier := intent.NewClassifier(intentCfg, intentModel, cfg.IntentThreshold, cfg.IntentTimeout)

	primary := router.NewIntakeEngine(llm.NewClient(cfg.PrimaryEngineURL), cfg.EngineModel)
	secondary := router.NewContinuationEngine(llm.NewClient(cfg.SecondaryEngineURL), cfg.EngineModel)
	chatRouter := router.NewRouter(primary, secondary, cfg.EngineTimeout)

	templates := notify.LoadTemplates(cfg.TemplatePath)

	var archiver controllers.TranscriptArchiver
	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		logging.AppLogger.Warn("minio unavailable, transcript archiving disabled", zap.Error(err))
	} else {
		archiver = minioClient
	}

	authCtrl := controllers.NewAuthController(userDAO, cfg)
	userCtrl := controllers.NewUserController(userDAO)
	chatCtrl := controllers.NewChatController(sessionDAO, chatDAO, notifDAO, classifier, chatRouter, templates, archiver)
	notifCtrl := controllers.NewNotificationController(notifDAO, templates)
	healthCtrl := controllers.NewHealthController()

	providers := notify.NewProviderSet(cfg.ProviderBaseURL)
	dispatcher := notify.NewDispatcher(notifDAO, providers, cfg.DispatchInterval, cfg.DeliveryTimeout, cfg.RetryBackoff, cfg.DispatchWorkers)
	dispatcher.Start()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogging)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/auth", routes.AuthRoutes(authCtrl))
	r.Mount("/users", routes.UserRoutes(userCtrl, cfg))
	r.Mount("/chat", routes.ChatRoutes(chatCtrl, cfg))
	r.Mount("/notifications", routes.NotificationRoutes(notifCtrl, cfg))
	r.Mount("/health", routes.HealthRoutes(healthCtrl))

	srv := &http.Server{
		Addr:    ":8000",
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	logging.AppLogger.Info("careflow listening", zap.String("addr", srv.Addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	dispatcher.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
