package upload

import (
	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/extraction"
	"github.com/smallbiznis/revbox/internal/upload/repository"
	"github.com/smallbiznis/revbox/internal/upload/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("upload.service",
	fx.Provide(repository.Provide),
	fx.Provide(NewExtractor),
	fx.Provide(service.New),
)

type ExtractorParams struct {
	fx.In

	Cfg  config.Config
	Log  *zap.Logger
	Docs extraction.DocumentExtractor `optional:"true"`
}

// NewExtractor bounds document extraction by the configured AI timeout.
func NewExtractor(p ExtractorParams) *extraction.Extractor {
	return extraction.NewExtractor(p.Docs, p.Cfg.AI.Timeout, p.Log)
}
