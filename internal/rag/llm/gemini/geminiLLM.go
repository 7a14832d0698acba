package gemini

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

type llmClient struct {
	client    *genai.Client
	modelName string
}

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return geminiClient
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
		return
	}
	geminiClient = &llmClient{client: c, modelName: modelName}
	logger.Info("Gemini client created", "model", modelName)
}

// Generate streams the completion and re-assembles the chunks into one
// answer, so slow generations keep the connection warm without callers
// having to care.
func (c *llmClient) Generate(ctx context.Context, system, user string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	temperature := config.ModelTemperature
	contentConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		},
		Temperature: &temperature,
	}

	var b strings.Builder
	for chunk, err := range c.client.Models.GenerateContentStream(ctx, c.modelName, genai.Text(user), contentConfig) {
		if err != nil {
			log.Error("Error streaming from Gemini", "error", err.Error())
			return "", err
		}
		b.WriteString(chunk.Text())
	}
	return b.String(), nil
}

func (c *llmClient) Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429 || apiErr.Code >= 500
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded:
			return true
		}
	}
	return false
}
