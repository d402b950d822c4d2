package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"winnersfit-data/internal/config"
	httpapi "winnersfit-data/internal/http"
	"winnersfit-data/internal/repository"
	"winnersfit-data/internal/service"
	"winnersfit-data/internal/store"
	"winnersfit-data/pkg/database"
	"winnersfit-data/pkg/logger"
	"winnersfit-data/pkg/redisx"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "winnersfit-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer database.Close(db)

	redisClient := redisx.NewClient(&cfg.Redis)
	defer redisx.Close(redisClient)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisx.Ping(ctx, redisClient); err != nil {
			// 本地缓存不可用时仍可启动：名册走远端直达，令牌轮换不可用
			log.Warn("Redis unreachable, roster cache and kiosk tokens degraded", zap.Error(err))
		}
		cancel()
	}
	kv := store.NewRedisKV(redisClient)
	cache := store.NewRosterCache(kv, cfg.Sync.FreshWindow)

	membersRepo := repository.NewPostgresMembersRepository(db)
	plansRepo := repository.NewPostgresPlansRepository(db)
	staffRepo := repository.NewPostgresStaffRepository(db)
	attendanceRepo := repository.NewPostgresAttendanceRepository(db)
	checkinsRepo := repository.NewPostgresCheckInsRepository(db)

	events := service.NewEventPublisher(redisClient, log)
	mail := service.NewMailClient(cfg.Mail, log)

	plans := service.NewPlanService(plansRepo, cache, log)
	members := service.NewMemberService(membersRepo, plans, cache, events, cfg.Sync.WriteTimeout, log)
	tokens := service.NewTokenService(kv, cfg.Attendance.RotatePeriod, cfg.Attendance.TokenTTL, cfg.Attendance.DeepLinkBase, log)
	attendance := service.NewAttendanceService(staffRepo, attendanceRepo, tokens, events, cfg.Attendance.Policy, log)
	checkins := service.NewCheckInService(members, checkinsRepo, membersRepo, events, log)
	auth := service.NewAuthService(staffRepo, mail, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, cfg.Attendance.DeepLinkBase, log)
	reports := service.NewReportService(membersRepo, plans, checkinsRepo, attendanceRepo, log)

	// 启动时预热套餐目录（首次访问会落默认套餐）
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := plans.ListPlans(ctx); err != nil {
			log.Warn("Plan catalog warm-up failed", zap.Error(err))
		}
		cancel()
	}

	authHandler := httpapi.NewAuthHandler(auth, log)
	memberHandler := httpapi.NewMemberHandler(members, plans, mail, log)
	checkinHandler := httpapi.NewCheckInHandler(checkins, log)
	attendanceHandler := httpapi.NewAttendanceHandler(attendance, tokens, log)
	reportHandler := httpapi.NewReportHandler(reports, log)

	router := httpapi.NewRouter(log)
	router.RegisterAuthRoutes(authHandler)
	router.RegisterMemberRoutes(memberHandler, authHandler)
	router.RegisterCheckInRoutes(checkinHandler, authHandler)
	router.RegisterAttendanceRoutes(attendanceHandler, authHandler)
	router.RegisterReportRoutes(reportHandler, authHandler)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
