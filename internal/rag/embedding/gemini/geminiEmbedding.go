package gemini

import (
	"context"
	"errors"
	"sync"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var logger *logger_i.Logger
var once sync.Once
var remote *client
var dimension int32 = config.EmbeddingDimension

type client struct {
	genAi *genai.Client
	model string
}

func GetGeminiRemote(ctx context.Context, modelName string, apikey string) embedding.Remote {
	once.Do(func() {
		logger = logger_i.NewLogger("gemini_embedding")
		newGeminiRemote(ctx, modelName, apikey)
	})

	//if init still fails
	if remote == nil {
		return nil
	}
	return remote
}

func newGeminiRemote(ctx context.Context, modelName string, apikey string) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini embedding client:", "error", err)
		return
	}
	remote = &client{genAi: c, model: modelName}
	logger.Info("Gemini embedding client created", "model", modelName)
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, getContent(texts),
		&genai.EmbedContentConfig{OutputDimensionality: &dimension, TaskType: "RETRIEVAL_DOCUMENT"})
	if err != nil {
		log.Error("Error getting embeddings from Gemini", "error", err.Error())
		return nil, err
	}

	vectors := make([][]float32, 0, len(result.Embeddings))
	for _, e := range result.Embeddings {
		vectors = append(vectors, e.Values)
	}
	return vectors, nil
}

// Retryable classifies rate-limit and availability failures as transient.
func (c *client) Retryable(err error) bool {
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

func getContent(texts []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: t}},
		})
	}
	return contentsToSend
}
