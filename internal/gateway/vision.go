package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/llm"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

// ErrInvalidImage is returned for input that is not a base64 image data URI.
var ErrInvalidImage = errors.New("image must be a base64 data URI")

// ImageAnalyzer produces an English technical reading of a report image.
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageDataURI string) (string, error)
}

// VisionAnalyzer runs the reportVision prompt on a vision-capable model.
type VisionAnalyzer struct {
	client   llm.Client
	registry *Registry
	model    string
	timeout  time.Duration
	log      *logger.Logger
}

// NewVisionAnalyzer creates an analyzer. client must accept image input.
func NewVisionAnalyzer(client llm.Client, registry *Registry, model string, timeout time.Duration, log *logger.Logger) *VisionAnalyzer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &VisionAnalyzer{
		client:   client,
		registry: registry,
		model:    model,
		timeout:  timeout,
		log:      log.Component("vision"),
	}
}

// AnalyzeImage returns the model's technical analysis.
func (v *VisionAnalyzer) AnalyzeImage(ctx context.Context, imageDataURI string) (string, error) {
	if err := ValidateImageDataURI(imageDataURI); err != nil {
		return "", err
	}

	rendered, err := v.registry.Render(PromptReportVision, struct{}{})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	start := time.Now()
	resp, err := v.client.Complete(ctx, &llm.CompletionRequest{
		Model:       v.model,
		MaxTokens:   rendered.MaxTokens,
		Temperature: rendered.Temperature,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: rendered.User, ImageURL: imageDataURI},
		},
	})
	if err != nil {
		metrics.RecordGatewayCall(string(PromptReportVision), "error", time.Since(start).Seconds())
		v.log.Warn("Vision model call failed", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	metrics.RecordTokens(resp.Model, resp.TokensIn, resp.TokensOut)

	if strings.TrimSpace(resp.Content) == "" {
		metrics.RecordGatewayCall(string(PromptReportVision), "invalid", time.Since(start).Seconds())
		return "", fmt.Errorf("%w: vision model returned no analysis", ErrInvalidOutput)
	}

	metrics.RecordGatewayCall(string(PromptReportVision), "success", time.Since(start).Seconds())
	return resp.Content, nil
}

// ValidateImageDataURI checks for the data:<mime>;base64,<payload> form.
func ValidateImageDataURI(uri string) error {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ErrInvalidImage
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok || payload == "" {
		return ErrInvalidImage
	}
	if !strings.HasPrefix(header, "image/") || !strings.HasSuffix(header, ";base64") {
		return ErrInvalidImage
	}
	return nil
}
