package llm

import (
	"context"

	"github.com/smallbiznis/revbox/internal/config"
	"github.com/smallbiznis/revbox/internal/extraction"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.llm",
	fx.Provide(NewFromConfig),
	fx.Provide(func(c *Client) MappingSuggester { return c }),
	fx.Provide(NewDocumentExtractor),
)

// MappingSuggester proposes a carrier mapping from a sample of source fields.
type MappingSuggester interface {
	SuggestMappings(ctx context.Context, carrierName string, sampleFields []string) (Suggestion, error)
	Enabled() bool
}

func NewFromConfig(cfg config.Config, log *zap.Logger) *Client {
	c := NewClient(Config{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
	}, nil, log)
	return c
}

// Enabled reports whether an API key is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// NewDocumentExtractor returns the client, or extraction.Disabled without a key.
func NewDocumentExtractor(c *Client) extraction.DocumentExtractor {
	if !c.Enabled() {
		return extraction.Disabled{}
	}
	return c
}
