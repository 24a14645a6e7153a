package carrier

import (
	"github.com/smallbiznis/revbox/internal/carrier/repository"
	"github.com/smallbiznis/revbox/internal/carrier/service"
	"go.uber.org/fx"
)

var Module = fx.Module("carrier.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
