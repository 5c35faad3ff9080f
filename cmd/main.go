package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/practicetrack/practicetrack-backend/internal/clients/redis"
	"github.com/practicetrack/practicetrack-backend/internal/db"
	"github.com/practicetrack/practicetrack-backend/internal/handlers"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/media"
	"github.com/practicetrack/practicetrack-backend/internal/middleware"
	"github.com/practicetrack/practicetrack-backend/internal/observability"
	"github.com/practicetrack/practicetrack-backend/internal/policy"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/server"
	"github.com/practicetrack/practicetrack-backend/internal/services"
	"github.com/practicetrack/practicetrack-backend/internal/sse"
	"github.com/practicetrack/practicetrack-backend/internal/utils"
)

func main() {
	log, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: utils.GetEnv("SERVICE_NAME", "practicetrack", log),
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Failed to connect to postgres", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("Failed to migrate postgres tables", "error", err)
	}
	gormDB := pg.DB()

	pol := policy.Default()
	if path := utils.GetEnv("SUPERVISION_POLICY_PATH", "", log); path != "" {
		pol, err = policy.Load(path)
		if err != nil {
			log.Fatal("Failed to load supervision policy", "error", err, "path", path)
		}
	}

	store, err := media.NewLocalStore(log)
	if err != nil {
		log.Fatal("Failed to init media store", "error", err)
	}

	userRepo := repos.NewUserRepo(gormDB, log)
	tokenRepo := repos.NewUserTokenRepo(gormDB, log)
	entryRepo := repos.NewSupervisionEntryRepo(gormDB, log)
	obsRepo := repos.NewSupervisionObservationRepo(gormDB, log)
	reportRepo := repos.NewComplianceReportRepo(gormDB, log)
	logbookRepo := repos.NewWeeklyLogbookRepo(gormDB, log)
	logbookEntryRepo := repos.NewLogbookEntryRepo(gormDB, log)
	reviewRequestRepo := repos.NewReviewRequestRepo(gormDB, log)
	pdEntryRepo := repos.NewPDEntryRepo(gormDB, log)
	referenceRepo := repos.NewReferenceRepo(gormDB, log)
	inviteRepo := repos.NewInviteRepo(gormDB, log)
	notificationRepo := repos.NewNotificationRepo(gormDB, log)
	supportRepo := repos.NewSupportTicketRepo(gormDB, log)

	hub := sse.NewSSEHub(log)

	// With REDIS_ADDR set, events fan out through Redis so every replica's
	// hub sees them; otherwise emission is hub-local.
	var emitter services.SSEEmitter = &services.HubEmitter{Hub: hub}
	if os.Getenv("REDIS_ADDR") != "" {
		bus, err := redis.NewSSEBus(log)
		if err != nil {
			log.Fatal("Failed to connect to redis", "error", err)
		}
		defer bus.Close()
		if err := bus.StartForwarder(ctx, hub.Broadcast); err != nil {
			log.Fatal("Failed to start redis SSE forwarder", "error", err)
		}
		emitter = &services.RedisEmitter{Bus: bus}
	}

	avatarService, err := services.NewAvatarService(log, store)
	if err != nil {
		log.Fatal("Failed to init avatar service", "error", err)
	}

	accessTTL := time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second
	refreshTTL := time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 30*86400, log)) * time.Second
	authService := services.NewAuthService(gormDB, log, userRepo, tokenRepo, avatarService,
		utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log), accessTTL, refreshTTL)

	notifier := services.NewNotifier(log, notificationRepo, emitter)
	userService := services.NewUserService(gormDB, log, userRepo, avatarService, emitter)
	complianceService := services.NewComplianceService(gormDB, log, pol, entryRepo, obsRepo, reportRepo)
	supervisionService := services.NewSupervisionService(gormDB, log, entryRepo, obsRepo, complianceService)
	logbookService := services.NewLogbookService(gormDB, log, logbookRepo, logbookEntryRepo, reviewRequestRepo, notifier)
	pdEntryService := services.NewPDEntryService(gormDB, log, pdEntryRepo, referenceRepo)
	referenceService := services.NewReferenceService(gormDB, log, referenceRepo)
	inviteService := services.NewInviteService(gormDB, log, inviteRepo, userRepo)
	notificationService := services.NewNotificationService(gormDB, log, notificationRepo)
	supportService := services.NewSupportService(gormDB, log, supportRepo, emitter)

	if _, err := referenceService.SeedIfEmpty(ctx); err != nil {
		log.Fatal("Failed to seed reference data", "error", err)
	}

	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:      middleware.NewAuthMiddleware(log, authService),
		AuthHandler:         handlers.NewAuthHandler(authService),
		UserHandler:         handlers.NewUserHandler(userService),
		SupervisionHandler:  handlers.NewSupervisionHandler(supervisionService),
		ComplianceHandler:   handlers.NewComplianceHandler(complianceService),
		LogbookHandler:      handlers.NewLogbookHandler(logbookService),
		PDEntryHandler:      handlers.NewPDEntryHandler(pdEntryService),
		InviteHandler:       handlers.NewInviteHandler(inviteService),
		ReferenceHandler:    handlers.NewReferenceHandler(referenceService),
		NotificationHandler: handlers.NewNotificationHandler(notificationService),
		SupportHandler:      handlers.NewSupportHandler(supportService),
		SSEHandler:          handlers.NewSSEHandler(hub),
		MediaHandler:        handlers.NewMediaHandler(store),
	})

	srv := &http.Server{
		Addr:    ":" + utils.GetEnv("PORT", "8080", log),
		Handler: router,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if shutdownOtel != nil {
		if err := shutdownOtel(shutdownCtx); err != nil {
			log.Error("Otel shutdown failed", "error", err)
		}
	}
}
