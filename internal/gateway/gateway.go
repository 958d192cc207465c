// Package gateway invokes named prompt templates against an LLM and returns
// validated structured output.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/niramoy/health-assistant/internal/llm"
	"github.com/niramoy/health-assistant/pkg/logger"
	"github.com/niramoy/health-assistant/pkg/metrics"
	"github.com/niramoy/health-assistant/pkg/tracing"
)

var (
	// ErrUnavailable means the model could not be reached or kept failing.
	ErrUnavailable = errors.New("ai gateway unavailable")
	// ErrInvalidOutput means the model answered but the result failed validation.
	ErrInvalidOutput = errors.New("ai gateway returned invalid output")
	// ErrUnknownPrompt is returned for a prompt missing from the registry.
	ErrUnknownPrompt = errors.New("unknown prompt")
)

// Gateway runs prompts. Implementations must be safe to retry.
type Gateway interface {
	Invoke(ctx context.Context, prompt Prompt, input any, output Output) error
}

// Streamer streams a plain-text answer for a prompt.
type Streamer interface {
	Stream(ctx context.Context, prompt Prompt, input any, onToken llm.StreamCallback) (string, error)
}

// Config configures an LLMGateway.
type Config struct {
	Model   string
	Retries int
	Timeout time.Duration
}

// LLMGateway is the Gateway backed by an llm.Client.
type LLMGateway struct {
	client   llm.Client
	registry *Registry
	cfg      Config
	log      *logger.Logger
	tracer   trace.Tracer
}

// New creates an LLM-backed gateway.
func New(client llm.Client, registry *Registry, cfg Config, log *logger.Logger) *LLMGateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &LLMGateway{
		client:   client,
		registry: registry,
		cfg:      cfg,
		log:      log.Component("gateway"),
		tracer:   tracing.Tracer("gateway"),
	}
}

// Invoke renders the prompt, calls the model with transport retries and
// decodes the JSON answer into output. Validation failures are not retried.
func (g *LLMGateway) Invoke(ctx context.Context, prompt Prompt, input any, output Output) error {
	ctx, span := g.tracer.Start(ctx, "gateway.Invoke", trace.WithAttributes(
		attribute.String("prompt", string(prompt)),
		attribute.String("provider", g.client.Name()),
	))
	defer span.End()

	start := time.Now()
	err := g.invoke(ctx, prompt, input, output)
	metrics.RecordGatewayCall(string(prompt), callStatus(err), time.Since(start).Seconds())

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.log.Warn("Prompt invocation failed",
			zap.String("prompt", string(prompt)),
			zap.Error(err),
		)
	}
	return err
}

func (g *LLMGateway) invoke(ctx context.Context, prompt Prompt, input any, output Output) error {
	rendered, err := g.registry.Render(prompt, input)
	if err != nil {
		return err
	}

	req := &llm.CompletionRequest{
		Model:       g.cfg.Model,
		System:      rendered.System,
		MaxTokens:   rendered.MaxTokens,
		Temperature: rendered.Temperature,
		JSONMode:    true,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: rendered.User + "\n\n" + rendered.Output},
		},
	}

	attempt := 0
	op := func() error {
		attempt++

		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()

		resp, err := g.client.Complete(callCtx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			g.log.Debug("Model call failed, retrying",
				zap.String("prompt", string(prompt)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		metrics.RecordTokens(resp.Model, resp.TokensIn, resp.TokensOut)

		if err := decodeOutput(resp.Content, output); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.cfg.Retries)),
		ctx,
	)

	if err := backoff.Retry(op, policy); err != nil {
		if errors.Is(err, ErrInvalidOutput) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Stream renders the prompt without the JSON output contract and streams
// the model's plain-text answer.
func (g *LLMGateway) Stream(ctx context.Context, prompt Prompt, input any, onToken llm.StreamCallback) (string, error) {
	ctx, span := g.tracer.Start(ctx, "gateway.Stream", trace.WithAttributes(
		attribute.String("prompt", string(prompt)),
	))
	defer span.End()

	start := time.Now()

	rendered, err := g.registry.Render(prompt, input)
	if err != nil {
		return "", err
	}

	resp, err := g.client.CompleteStream(ctx, &llm.CompletionRequest{
		Model:       g.cfg.Model,
		System:      rendered.System,
		MaxTokens:   rendered.MaxTokens,
		Temperature: rendered.Temperature,
		Stream:      true,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: rendered.User},
		},
	}, onToken)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		metrics.RecordGatewayCall(string(prompt), callStatus(err), time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	metrics.RecordGatewayCall(string(prompt), "success", time.Since(start).Seconds())
	metrics.RecordTokens(resp.Model, resp.TokensIn, resp.TokensOut)

	if strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("%w: empty answer", ErrInvalidOutput)
	}
	return resp.Content, nil
}

func decodeOutput(content string, output Output) error {
	raw := llm.ExtractJSON(content)
	if err := json.Unmarshal([]byte(raw), output); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := output.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}

func callStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidOutput):
		return "invalid"
	default:
		return "error"
	}
}
