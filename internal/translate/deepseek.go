package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unclebandit/membercast/internal/model"
)

const (
	DefaultDeepSeekURL   = "https://api.deepseek.com/v1/chat/completions"
	DefaultDeepSeekModel = "deepseek-chat"
)

var (
	errDeepSeekNoKey    = errors.New("DeepSeek API key not configured. Please set it in Settings.")
	errDeepSeekResponse = errors.New("Invalid response format from DeepSeek API")
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message *chatMessage `json:"message"`
	} `json:"choices"`
}

// DeepSeek calls the DeepSeek chat completions API. The API key is read
// from the deepseek_api_key setting on every call.
type DeepSeek struct {
	httpClient *resty.Client
	url        string
	model      string
	keys       SettingsReader
}

func NewDeepSeek(url, model string, timeout time.Duration, keys SettingsReader) *DeepSeek {
	if url == "" {
		url = DefaultDeepSeekURL
	}
	if model == "" {
		model = DefaultDeepSeekModel
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	return &DeepSeek{httpClient: client, url: url, model: model, keys: keys}
}

func (d *DeepSeek) Complete(ctx context.Context, prompt string) (string, error) {
	key, err := d.keys.Get(ctx, model.SettingDeepSeekAPIKey)
	if err != nil {
		return "", fmt.Errorf("read deepseek key: %w", err)
	}
	if key == "" {
		return "", errDeepSeekNoKey
	}

	var out chatResponse
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetAuthToken(key).
		SetBody(chatRequest{
			Model:       d.model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			Temperature: 0.1,
			MaxTokens:   2000,
		}).
		SetResult(&out).
		Post(d.url)
	if err != nil {
		return "", fmt.Errorf("deepseek request: %w", err)
	}
	if resp.IsError() {
		code := resp.StatusCode()
		return "", fmt.Errorf("DeepSeek API error: %d %s", code, http.StatusText(code))
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil {
		return "", errDeepSeekResponse
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var _ Completer = (*DeepSeek)(nil)
