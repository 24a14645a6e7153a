package conflict

import (
	"github.com/smallbiznis/revbox/internal/conflict/detector"
	"github.com/smallbiznis/revbox/internal/conflict/repository"
	"github.com/smallbiznis/revbox/internal/conflict/service"
	"go.uber.org/fx"
)

var Module = fx.Module("conflict.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(detector.New),
)
