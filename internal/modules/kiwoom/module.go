package kiwoom

import (
	"go.uber.org/fx"

	"turtle_dash/internal/modules/kiwoom/service"
)

func Module() fx.Option {
	return fx.Module("kiwoom",
		fx.Provide(
			service.NewClient,
		),
	)
}
