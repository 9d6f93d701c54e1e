package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"daily-report-bot/internal/api"
	"daily-report-bot/internal/config"
	"daily-report-bot/internal/database"
	"daily-report-bot/internal/handler"
	"daily-report-bot/internal/logging"
	"daily-report-bot/internal/repository"
	"daily-report-bot/internal/service"
	"daily-report-bot/pkg/calendar"
	"daily-report-bot/pkg/telegram"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetBotConfig()

	logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	logrus.Info("Config initialized...")

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logrus.Infof("Error closing database: %v", err)
		}
	}()

	cal, err := calendar.NewFromZone(clockwork.NewRealClock(), cfg.Timezone)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load timezone")
	}

	userRepo, err := repository.NewGormUserRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create user repository")
	}

	recordRepo, err := repository.NewGormDailyRecordRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create daily record repository")
	}

	cursorRepo, err := repository.NewGormRolloverCursorRepository(db, cal)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create rollover cursor repository")
	}

	executionRepo, err := repository.NewGormRolloverExecutionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create rollover execution repository")
	}

	absenceRepo, err := repository.NewGormAbsencePeriodRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create absence period repository")
	}

	nonWorkingRepo, err := repository.NewGormNonWorkingDayRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create non-working day repository")
	}

	userService := service.NewUserService(userRepo)
	attendanceService := service.NewAttendanceService(recordRepo, cal)
	absenceService := service.NewAbsenceService(absenceRepo, recordRepo, cal)
	rolloverService := service.NewRolloverService(recordRepo, cursorRepo, cal, cfg.RolloverLookbackDays)
	taskService := service.NewTaskService(recordRepo).WithRollover(rolloverService)
	nonWorkingService := service.NewNonWorkingDayService(nonWorkingRepo)
	reportService := service.NewReportService(recordRepo, rolloverService).WithNonWorkingDays(nonWorkingService)

	if cfg.NonWorkingDaysFile != "" {
		loaded, err := nonWorkingService.LoadFromFile(context.Background(), cfg.NonWorkingDaysFile)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load production calendar, weekends only")
		} else {
			logrus.Infof("Loaded %d non-working days", loaded)
		}
	}

	scheduler := service.NewRolloverScheduler(rolloverService, userService, executionRepo, service.SchedulerConfig{
		Schedule:  cfg.RolloverCron,
		Workers:   cfg.RolloverWorkers,
		Retries:   cfg.RolloverRetries,
		RetryBase: cfg.RolloverRetryBase,
	})

	// Инициализируем администратора из конфига
	if err := userService.InitializeAdmin(cfg.BaseAdminChatID); err != nil {
		logrus.Infof("Warning: Failed to initialize admin: %v", err)
	} else if cfg.BaseAdminChatID != 0 {
		logrus.Infof("Admin initialized with chat ID: %d", cfg.BaseAdminChatID)
	}

	if err := scheduler.Start(); err != nil {
		logrus.WithError(err).Fatal("Failed to start rollover scheduler")
	}
	defer scheduler.Stop()

	// Обработка сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.BotEnabled() {
		client, err := telegram.NewClient(cfg.TelegramToken, cfg.TelegramDebug)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to create Telegram client")
		}
		defer client.Stop()

		logrus.Infof("Authorized on account %s", client.Bot.Self.UserName)

		botHandler := handler.NewHandler(
			client,
			userService,
			taskService,
			attendanceService,
			absenceService,
			reportService,
			nonWorkingService,
			rolloverService,
			scheduler,
			cfg,
		)

		go botHandler.HandleUpdates(ctx, client.Updates())
	} else {
		logrus.Warn("TELEGRAM_BOT_TOKEN is not set, bot is disabled")
	}

	var server *http.Server
	if cfg.HTTPAddr != "" {
		apiHandler := api.NewHandler(userService, taskService, reportService, rolloverService, scheduler)
		server = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewRouter(apiHandler, cfg.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			logrus.Infof("HTTP API listening on %s", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("HTTP server failed")
				stop()
			}
		}()
	}

	logrus.Info("Service started. Press Ctrl+C to stop.")
	<-ctx.Done()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("HTTP server shutdown failed")
		}
	}

	logrus.Info("Service stopped gracefully")
}
