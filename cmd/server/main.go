package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TegaJeremy/Take-Am-Platform/internal/config"
	cronrunner "github.com/TegaJeremy/Take-Am-Platform/internal/cron"
	"github.com/TegaJeremy/Take-Am-Platform/internal/db"
	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/directory"
	"github.com/TegaJeremy/Take-Am-Platform/internal/gateway/sms"
	"github.com/TegaJeremy/Take-Am-Platform/internal/handler"
	"github.com/TegaJeremy/Take-Am-Platform/internal/logger"
	gormrepository "github.com/TegaJeremy/Take-Am-Platform/internal/repository/gorm"
	"github.com/TegaJeremy/Take-Am-Platform/internal/service"
)

func main() {
	cfgPath := os.Getenv("INTAKE_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if raw := os.Getenv("INTAKE_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	store := gormrepository.New(dbConn.Gorm)

	defaultBRP, err := decimal.NewFromString(cfg.Pricing.DefaultBasePrice)
	if err != nil {
		logger.Warn("invalid default base price, using 100",
			zap.String("value", cfg.Pricing.DefaultBasePrice))
		defaultBRP = decimal.NewFromInt(100)
	}
	pricingSvc := &service.PricingService{Repo: store, Default: defaultBRP, Logger: logger}
	if err := pricingSvc.EnsureDefaults(context.Background()); err != nil {
		logger.Warn("seed base reference price failed", zap.Error(err))
	}

	dirClient := directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout)
	smsClient := sms.NewClient(cfg.SMS.APIURL, cfg.SMS.APIKey, cfg.SMS.SenderID, cfg.SMS.Timeout, logger)
	notifier := &service.Notifier{Sender: smsClient, Logger: logger}

	traderSvc := &service.TraderRequestService{Repo: store, Directory: dirClient, Logger: logger}
	agentSvc := &service.AgentRequestService{
		Repo:      store,
		Directory: dirClient,
		Pricing:   pricingSvc,
		Notifier:  notifier,
		Logger:    logger,
	}
	gradingSvc := &service.GradingService{
		Repo:      store,
		Directory: dirClient,
		Pricing:   pricingSvc,
		Notifier:  notifier,
		Logger:    logger,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)

	secret := cfg.Auth.Secret
	traderHandler := &handler.TraderRequestHandler{Svc: traderSvc, Logger: logger}
	traderHandler.Register(engine, secret)
	agentHandler := &handler.AgentRequestHandler{Svc: agentSvc, Logger: logger}
	agentHandler.Register(engine, secret)
	gradingHandler := &handler.GradingHandler{Svc: gradingSvc, Logger: logger}
	gradingHandler.Register(engine, secret)
	adminHandler := &handler.AdminHandler{Requests: agentSvc, Pricing: pricingSvc, Logger: logger}
	adminHandler.Register(engine, secret)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Cron.Enabled {
		runner := cronrunner.New(logger, ctx)
		reminder := &service.SettlementReminder{Repo: store, Logger: logger}
		if _, err := runner.Add(cfg.Cron.SettlementReminder, func(ctx context.Context) {
			if err := reminder.Run(ctx); err != nil {
				logger.Warn("settlement reminder failed", zap.Error(err))
			}
		}); err != nil {
			logger.Warn("cron register settlement reminder failed", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
