package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"voicescribe/internal/bootstrap"
	"voicescribe/internal/chat"
	"voicescribe/internal/config"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env, err := config.EnvFromOS()
	if err != nil {
		logrus.Fatalf("configuration: %v", err)
	}

	transport, err := chat.NewTelegram(env.BotToken)
	if err != nil {
		logrus.Fatalf("telegram: %v", err)
	}
	logrus.Infof("authorized as @%s", transport.BotUsername())

	app, err := bootstrap.New(env, transport)
	if err != nil {
		logrus.Fatalf("startup: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, transport.Updates(ctx)); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("run: %v", err)
	}
	logrus.Info("shutdown complete")
}
