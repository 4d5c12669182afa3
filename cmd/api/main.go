package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/agenda-scheduler/internal/audit"
	"github.com/BruksfildServices01/agenda-scheduler/internal/config"
	dbpkg "github.com/BruksfildServices01/agenda-scheduler/internal/db"
	"github.com/BruksfildServices01/agenda-scheduler/internal/infra/cache"
	"github.com/BruksfildServices01/agenda-scheduler/internal/infra/notifier"
	infraRepo "github.com/BruksfildServices01/agenda-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/agenda-scheduler/internal/jobs"
	"github.com/BruksfildServices01/agenda-scheduler/internal/logger"
	"github.com/BruksfildServices01/agenda-scheduler/internal/middleware"
	"github.com/BruksfildServices01/agenda-scheduler/internal/routes"
	"github.com/BruksfildServices01/agenda-scheduler/internal/usecase/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog := logger.New(cfg.Env)
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := dbpkg.NewDB(cfg, zlog)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}

	// ======================================================
	// INFRA (SINGLETONS)
	// ======================================================
	auditStore := audit.NewGormStore(db)
	auditDispatcher := audit.NewDispatcher(auditStore, zlog.Named("audit"))
	defer auditDispatcher.Close()

	var slotCache scheduling.SlotCache = scheduling.NopCache{}
	redisClient, err := cache.NewClient(cfg)
	switch {
	case err != nil:
		zlog.Warn("slot cache disabled", zap.Error(err))
	case redisClient != nil:
		defer redisClient.Close()
		slotCache = cache.NewRedisSlotCache(redisClient, cfg.SlotCacheTTL)
		zlog.Info("slot cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	repo := infraRepo.NewBookingGormRepository(db)
	deps := scheduling.Deps{
		Repo:  repo,
		Audit: auditDispatcher,
		Cache: slotCache,
		Log:   zlog.Named("scheduling"),
	}

	sendReminders := scheduling.NewSendReminders(deps, notifier.New(cfg, zlog))

	reminderJob := jobs.NewReminderJob(repo, sendReminders, cfg.ReminderDaysAhead, zlog)
	if err := reminderJob.Start(cfg.ReminderCron); err != nil {
		zlog.Fatal("reminder job", zap.Error(err))
	}
	defer reminderJob.Stop()

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog.Named("http")))
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	routes.RegisterRoutes(r, routes.Deps{
		DB:         db,
		Config:     cfg,
		Log:        zlog,
		Scheduling: deps,
		AuditStore: auditStore,
		Reminders:  sendReminders,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zlog.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}
