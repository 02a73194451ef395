package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/metrics"
)

// Generator is a generation provider backed by Ollama's /api/generate
// endpoint. Failures and timeouts never propagate: the answer pipeline must
// stay alive, so they surface as an in-band "[Model error: ...]" marker.
type Generator struct {
	baseURL     string
	model       string
	visionModel string
	temperature float64
	numCtx      int
	client      *http.Client
	logger      *zap.Logger
}

// GeneratorConfig holds the generation provider settings.
type GeneratorConfig struct {
	BaseURL     string
	Model       string
	VisionModel string
	Temperature float64
	NumCtx      int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewGenerator creates an Ollama generation provider.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &Generator{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		model:       cfg.Model,
		visionModel: visionModel,
		temperature: cfg.Temperature,
		numCtx:      cfg.NumCtx,
		client:      &http.Client{Timeout: timeout},
		logger:      cfg.Logger,
	}
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
	Images  []string        `json:"images,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumCtx      int     `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate runs a completion for the prompt, conditioned on the image when
// one is given (vision model). Always returns text: backend errors and
// timeouts come back as a "[Model error: ...]" marker.
func (g *Generator) Generate(ctx context.Context, prompt string, image []byte) string {
	model := g.model
	reqBody := generateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: generateOptions{Temperature: g.temperature, NumCtx: g.numCtx},
	}
	if len(image) > 0 {
		model = g.visionModel
		reqBody.Model = model
		reqBody.Images = []string{base64.StdEncoding.EncodeToString(image)}
	}

	out, err := g.complete(ctx, &reqBody)
	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(providerName, model, "error").Inc()
		g.logger.Warn("generation failed", zap.String("model", model), zap.Error(err))
		return fmt.Sprintf("[Model error: %v]", err)
	}

	metrics.GenerationRequestsTotal.WithLabelValues(providerName, model, "success").Inc()
	return out
}

func (g *Generator) complete(ctx context.Context, reqBody *generateRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.GenerationRequestDuration.WithLabelValues(providerName, reqBody.Model).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate API status %d: %s", resp.StatusCode, string(msg))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}

	return strings.TrimSpace(parsed.Response), nil
}
