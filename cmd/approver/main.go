package main

import (
	"context"
	"time"

	"critical-approve/internal/app"
	"critical-approve/internal/config"
	"critical-approve/internal/logging"
	"critical-approve/pkg/db/postgres"
	"critical-approve/pkg/db/redis"
	"critical-approve/pkg/vkbot"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)
	logrus.Info("Starting approval engine...")

	db, err := postgres.Open(cfg.Postgres)
	if err != nil {
		logrus.Fatalf("Failed to postgres init: %v", err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	cache, err := redis.Connect(connectCtx, cfg.Redis)
	cancel()
	if err != nil {
		logrus.Fatalf("Failed to redis init: %v", err)
	}

	bot, err := vkbot.New(cfg.Bot, cfg.LogLevel == "debug")
	if err != nil {
		logrus.Fatalf("Failed to VK bot init: %v", err)
	}
	if bot == nil {
		logrus.Warn("VK_BOT_TOKEN not set, notifications go to the log only")
	}

	a, err := app.New(cfg, app.Deps{DB: db, Redis: cache, Bot: bot})
	if err != nil {
		logrus.Fatalf("Failed to build app: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}
