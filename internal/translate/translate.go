// Package translate provides the AI-assisted Arabic/Swedish translation helper.
package translate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/model"
)

// Provider names.
const (
	ProviderDeepSeek = "deepseek"
	ProviderGemini   = "gemini"
	ProviderBedrock  = "bedrock"
)

type Request struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Mode           string `json:"mode,omitempty"`
}

// Result never carries a Go error; failures are reported in Error with
// Success false.
type Result struct {
	Success        bool   `json:"success"`
	TranslatedText string `json:"translatedText,omitempty"`
	Error          string `json:"error,omitempty"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) Result
}

// Completer sends one prompt to a language model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// SettingsReader reads stored settings; missing keys read as "".
type SettingsReader interface {
	Get(ctx context.Context, key string) (string, error)
}

// Service picks a provider and turns its reply or error into a Result.
// The translation_provider setting overrides Default when set.
type Service struct {
	Providers map[string]Completer
	Default   string
	Settings  SettingsReader
	Logger    *zap.Logger
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) provider(ctx context.Context) (string, Completer, error) {
	name := s.Default
	if s.Settings != nil {
		v, err := s.Settings.Get(ctx, model.SettingTranslationProvider)
		if err != nil {
			return "", nil, fmt.Errorf("read translation provider: %w", err)
		}
		if v = strings.TrimSpace(v); v != "" {
			name = strings.ToLower(v)
		}
	}
	if name == "" {
		name = ProviderDeepSeek
	}
	p, ok := s.Providers[name]
	if !ok || p == nil {
		return name, nil, fmt.Errorf("translation provider %q is not configured", name)
	}
	return name, p, nil
}

func (s *Service) Translate(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.Text) == "" {
		return Result{Success: false, Error: "Text to translate is required"}
	}
	name, p, err := s.provider(ctx)
	if err != nil {
		s.logger().Warn("translation unavailable", zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}

	out, err := p.Complete(ctx, BuildPrompt(req))
	if err != nil {
		s.logger().Error("translation failed", zap.String("provider", name), zap.Error(err))
		return Result{Success: false, Error: err.Error()}
	}
	return Result{Success: true, TranslatedText: strings.TrimSpace(out)}
}

var _ Translator = (*Service)(nil)
