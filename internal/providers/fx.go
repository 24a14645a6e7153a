package providers

import (
	"github.com/smallbiznis/revbox/internal/providers/llm"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	llm.Module,
)
