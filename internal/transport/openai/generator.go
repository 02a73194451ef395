package openai

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/metrics"
)

// Generator is a generation provider using OpenAI-compatible chat
// completions, with a vision content part when an image is attached.
// Failures surface as an in-band "[Model error: ...]" marker so the answer
// pipeline never faults.
type Generator struct {
	client      *openai.Client
	model       string
	visionModel string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float64
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewGenerator creates an OpenAI-compatible generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		visionModel: visionModel,
		temperature: float32(cfg.Temperature),
		timeout:     timeout,
		logger:      cfg.Logger,
	}
}

// Generate runs a chat completion for the prompt, conditioned on the image
// when one is given. Always returns text.
func (g *Generator) Generate(ctx context.Context, prompt string, image []byte) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.model
	var message openai.ChatCompletionMessage
	if len(image) > 0 {
		model = g.visionModel
		message = openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{
					Type: openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{
						URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(image),
					},
				},
			},
		}
	} else {
		message = openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}
	}

	start := time.Now()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    []openai.ChatCompletionMessage{message},
		Temperature: g.temperature,
	})

	metrics.GenerationRequestDuration.WithLabelValues(providerName, model).
		Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		g.logger.Warn("generation failed", zap.String("model", model), zap.Error(err))
		return fmt.Sprintf("[Model error: %v]", err)
	}
	if len(resp.Choices) == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		return "[Model error: empty completion]"
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
