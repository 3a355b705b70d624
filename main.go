package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"roulette-bot/config"
	"roulette-bot/database"
	"roulette-bot/job"
	"roulette-bot/logger"
	"roulette-bot/service"
	"roulette-bot/util/common"

	"github.com/joho/godotenv"
	"github.com/op/go-logging"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	if config.IsDebug() {
		logger.InitLogger(logging.DEBUG)
	} else {
		logger.InitLogger(logging.INFO)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load config:", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Error("Invalid TIME_ZONE:", err)
		os.Exit(1)
	}

	if err := database.InitDB(cfg.DBPath); err != nil {
		logger.Error("Failed to initialize database:", err)
		os.Exit(1)
	}

	policy, err := service.NewWindowPolicy(cfg.WindowPolicy, cfg.RollingDays)
	if err != nil {
		logger.Error("Failed to configure window policy:", err)
		os.Exit(1)
	}

	eligibility := service.NewEligibilityService(policy, service.NewRealClock(loc), cfg.LossMarker)
	tgbot := service.NewTgbot(cfg, eligibility)

	if err := tgbot.Start(); err != nil {
		logger.Error("Failed to start Telegram bot:", err)
		os.Exit(1)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddJob(cfg.StatsCron, job.NewStatsNotifyJob(tgbot)); err != nil {
		logger.Warning("Add stats digest job failed:", err)
	}
	if cfg.BackupCron != "" {
		if _, err := c.AddJob(cfg.BackupCron, job.NewBackupJob(tgbot)); err != nil {
			logger.Warning("Add backup job failed:", err)
		}
	}
	c.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	c.Stop()
	tgbot.Stop()
	// Flush the WAL before closing so the file on disk is complete.
	if err := common.Combine(database.Checkpoint(), database.CloseDB()); err != nil {
		logger.Warning("Close database:", err)
	}
}
