package customfield

import (
	"github.com/smallbiznis/revbox/internal/customfield/repository"
	"github.com/smallbiznis/revbox/internal/customfield/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customfield.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
