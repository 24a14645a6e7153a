package record

import (
	"github.com/smallbiznis/revbox/internal/record/repository"
	"github.com/smallbiznis/revbox/internal/record/service"
	"go.uber.org/fx"
)

var Module = fx.Module("record.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
