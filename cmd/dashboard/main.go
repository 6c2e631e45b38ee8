package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"turtle_dash/internal/modules/config"
	"turtle_dash/internal/modules/dashboard"
	"turtle_dash/internal/modules/health"
	"turtle_dash/internal/modules/kiwoom"
	"turtle_dash/internal/modules/postgres"
	"turtle_dash/internal/modules/scanner"
	"turtle_dash/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName("turtle_dash")

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		health.Module(),
		postgres.Module(),
		kiwoom.Module(),
		scanner.Module(),
		dashboard.Module(),
	)
	app.Run()
}
