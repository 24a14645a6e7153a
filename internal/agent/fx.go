package agent

import (
	"github.com/smallbiznis/revbox/internal/agent/repository"
	"github.com/smallbiznis/revbox/internal/agent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
