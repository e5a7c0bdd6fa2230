package generation

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"TianHe-LiveSim/config"
	"TianHe-LiveSim/utils"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

// OpenAIGenerator 基于 OpenAI 兼容接口的生成协作方
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int64
	limiter     *rate.Limiter
}

func NewOpenAIGenerator(cfg config.GenerationConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation api key is empty")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 2 * time.Minute}),
		option.WithMaxRetries(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	qpm := cfg.QPM
	if qpm <= 0 {
		qpm = 20
	}
	burst := qpm / 2
	if burst < 1 {
		burst = 1
	}

	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     rate.NewLimiter(rate.Limit(float64(qpm)/60), burst),
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	startAt := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if wait := time.Since(startAt); wait > time.Second {
		utils.Logger.Infof("生成请求被限流 %s", wait)
	}

	system, user := BuildPrompt(req)
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(g.maxTokens)
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	utils.Logger.Debugf("生成完成，耗时 %s", time.Since(startAt))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
