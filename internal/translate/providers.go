package translate

import (
	"context"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/config"
)

// NewService registers every provider that can be built from cfg. DeepSeek
// is always available since its key lives in the settings store; Gemini
// needs an API key and Bedrock an AWS config.
func NewService(ctx context.Context, cfg config.TranslateConfig, settings SettingsReader, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	providers := map[string]Completer{
		ProviderDeepSeek: NewDeepSeek(cfg.DeepSeekURL, cfg.DeepSeekModel, cfg.Timeout(), settings),
	}

	if cfg.GeminiAPIKey != "" {
		g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "")
		if err != nil {
			logger.Warn("gemini translation disabled", zap.Error(err))
		} else {
			providers[ProviderGemini] = g
		}
	}

	if cfg.Provider == ProviderBedrock {
		b, err := NewBedrock(ctx, cfg.BedrockRegion, cfg.BedrockModelID)
		if err != nil {
			logger.Warn("bedrock translation disabled", zap.Error(err))
		} else {
			providers[ProviderBedrock] = b
		}
	}

	return &Service{
		Providers: providers,
		Default:   cfg.Provider,
		Settings:  settings,
		Logger:    logger,
	}
}
