package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"trades-director/internal/config"
)

// Client 封装 OpenAI 调用逻辑。
type Client struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
	sdk    *openai.Client
}

// NewClient 使用给定配置创建 AI 客户端。
func NewClient(cfg config.OpenAIConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, config.Errorf("openai api_key 不能为空")
	}
	if cfg.Model == "" {
		return nil, config.Errorf("openai model 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sdkConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkConfig.BaseURL = cfg.BaseURL
	}
	sdkConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout + 5*time.Second,
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		sdk:    openai.NewClientWithConfig(sdkConfig),
	}, nil
}

// Advise 请求模型给出方向建议。
func (c *Client) Advise(ctx context.Context, req Request) (Advice, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return Advice{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	response, err := c.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		c.logger.Error("调用OpenAI失败", zap.String("symbol", req.Symbol), zap.Error(err))
		return Advice{}, fmt.Errorf("ai: 调用OpenAI失败: %w", err)
	}

	if len(response.Choices) == 0 {
		return Advice{}, errors.New("ai: OpenAI 返回结果为空")
	}

	rawContent := strings.TrimSpace(response.Choices[0].Message.Content)
	if rawContent == "" {
		return Advice{}, errors.New("ai: OpenAI 返回内容为空")
	}

	advice, err := parseAdvice(rawContent)
	if err != nil {
		c.logger.Error("解析模型建议失败",
			zap.Error(err),
			zap.String("raw_content", rawContent),
		)
		return Advice{}, fmt.Errorf("ai: %w", err)
	}

	if err := advice.Validate(); err != nil {
		return Advice{}, fmt.Errorf("ai: %w", err)
	}

	c.logger.Info("AI 建议生成成功",
		zap.String("symbol", req.Symbol),
		zap.String("action", string(advice.Action)),
		zap.Float64("confidence", advice.Confidence),
		zap.Float64("stop_loss", advice.StopLoss),
		zap.Float64("take_profit", advice.TakeProfit),
	)

	return advice, nil
}
