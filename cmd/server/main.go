package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"pmtctportal/internal/cache"
	"pmtctportal/internal/config"
	"pmtctportal/internal/mail"
	"pmtctportal/internal/repository"
	"pmtctportal/internal/report"
	"pmtctportal/internal/scoring"
	"pmtctportal/internal/service"
	"pmtctportal/internal/spec"
	"pmtctportal/internal/transport/rest"
	"pmtctportal/internal/transport/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	// Assessment document
	doc, err := spec.Load(cfg.SpecPath)
	if err != nil {
		logger.Fatal("assessment document load failed", zap.Error(err))
	}
	logger.Info("assessment document loaded",
		zap.String("title", doc.Title),
		zap.Int("sections", len(doc.Sections)))

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("mongodb connect failed", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("mongodb ping failed", zap.Error(err))
	}
	logger.Info("connected to mongodb")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	redisAddr := cfg.RedisURL
	if len(redisAddr) > 8 && redisAddr[:8] == "redis://" {
		redisAddr = redisAddr[8:]
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("redis ping failed", zap.Error(err))
	}
	logger.Info("connected to redis")

	// WebSocket hub
	wsHub := ws.NewHub(logger)

	// Repositories
	participantRepo := repository.NewParticipantRepo(db)
	assessmentRepo := repository.NewAssessmentRepo(db)
	userRepo := repository.NewUserRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	// Caches
	summaryCache := cache.NewSummaryCache(rdb)
	rateLimits := cache.NewRateLimitCache(rdb, cfg.LoginRateWindow)

	// Report renderers and mailer
	excelRenderer := report.NewExcelRenderer(doc)
	pdfRenderer := report.NewPDFRenderer(doc)
	mailer := mail.NewMailer(cfg.SMTP)
	if !mailer.Enabled() {
		logger.Warn("smtp not configured, report emailing disabled")
	}

	// Services
	policy := scoring.Policy{OptionalUnanswered: cfg.OptionalUnanswered}
	authSvc := service.NewAuthService(userRepo, activityRepo, cfg.JWTSecret, cfg.TokenTTL)
	participantSvc := service.NewParticipantService(participantRepo, activityRepo, wsHub)
	assessmentSvc := service.NewAssessmentService(doc, policy, assessmentRepo, participantRepo, activityRepo, summaryCache, wsHub, logger)
	reportSvc := service.NewReportService(assessmentRepo, participantRepo, activityRepo, excelRenderer, pdfRenderer, mailer, cfg.SpoolDir, cfg.ReportTTL, logger)
	activitySvc := service.NewActivityService(activityRepo)

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	reportSvc.StartJanitor(janitorCtx)

	// Router
	container := &rest.Container{
		Config:             cfg,
		AuthService:        authSvc,
		ParticipantService: participantSvc,
		AssessmentService:  assessmentSvc,
		ReportService:      reportSvc,
		ActivityService:    activitySvc,
		RateLimits:         rateLimits,
		WSHub:              wsHub,
		Logger:             logger,
	}
	router := rest.NewRouter(container)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
