package openaiembed

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var remote *client

type client struct {
	openAi openai.Client
	model  string
}

func GetOpenAIRemote(modelName string, apikey string) embedding.Remote {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		remote = &client{
			openAi: openai.NewClient(option.WithAPIKey(apikey)),
			model:  modelName,
		}
		logger.Info("OpenAI embedding client created", "model", modelName)
	})
	return remote
}

func (c *client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	res, err := c.openAi.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingDimension)),
	})
	if err != nil {
		log.Error("Error getting embeddings from OpenAI", "error", err.Error())
		return nil, err
	}

	// the API does not promise response order, so realign by Index
	data := append([]openai.Embedding(nil), res.Data...)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, 0, len(data))
	for _, d := range data {
		v := make([]float32, len(d.Embedding))
		for i, f := range d.Embedding {
			v[i] = float32(f)
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (c *client) Retryable(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return errors.Is(err, context.DeadlineExceeded)
}
