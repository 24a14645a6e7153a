package janitor

import (
	"context"

	"github.com/smallbiznis/revbox/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("janitor",
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg config.Config, j *Janitor) {
	if !cfg.Janitor.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return j.Start(ctx)
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			j.Stop(stopCtx)
			return nil
		},
	})
}
