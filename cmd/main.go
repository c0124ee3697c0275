package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xhad/pdfqa/internal/types"
	cfgPkg "github.com/xhad/pdfqa/pkg/config"
	"github.com/xhad/pdfqa/pkg/extractor"
	"github.com/xhad/pdfqa/pkg/llm"
	"github.com/xhad/pdfqa/pkg/pipeline"
	"github.com/xhad/pdfqa/pkg/processor"
	"github.com/xhad/pdfqa/pkg/store"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Ask questions about your documents",
	Long: `pdfqa extracts text from uploaded PDF, HTML and text documents,
stores embeddings of their chunks in a vector index and answers questions
from the chunks closest to each question.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

// app holds everything built from the configuration.
type app struct {
	config    *cfgPkg.Config
	store     types.VectorStore
	extractor *extractor.Extractor
	ingestor  *pipeline.Ingestor
	answerer  *pipeline.Answerer
}

func (a *app) Close() {
	a.store.Close()
}

func loadConfig() (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("  %s", e.Error())
		}
		return nil, fmt.Errorf("invalid configuration: %d error(s)", len(errs))
	}
	return config, nil
}

// newApp wires the providers, the vector index and both pipelines.
// onProgress may be nil.
func newApp(ctx context.Context, config *cfgPkg.Config, onProgress func(done, total int)) (*app, error) {
	chatModel, embedClient, err := llm.NewModels(ctx, llm.ProviderConfig{
		Provider:       config.LLM.Provider,
		BaseURL:        config.LLM.BaseURL,
		APIKey:         config.LLM.APIKey,
		Model:          config.LLM.Model,
		EmbeddingModel: config.LLM.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize models: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(embedClient, llm.EmbedderConfig{
		MaxInputChars: config.LLM.MaxInputChars,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %v", err)
	}

	chatEngine, err := llm.NewWithConfig(chatModel, llm.ChatConfig{
		Temperature: config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	vectorStore, err := store.New(ctx, store.VectorStoreConfig{
		Backend:       config.Index.Backend,
		VectorDim:     config.Index.VectorDim,
		ConnString:    config.Index.URL,
		TableName:     config.Index.TableName,
		RedisAddr:     config.Index.RedisAddr,
		RedisPassword: config.Index.RedisPassword,
		RedisDB:       config.Index.RedisDB,
		IndexName:     config.Index.IndexName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %v", err)
	}

	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize: config.Processor.ChunkSize,
	})

	logger := log.Default()

	ingestor := pipeline.NewIngestor(&chunker, embedder, vectorStore, pipeline.IngestorConfig{
		Workers:      config.Ingest.Workers,
		RateLimit:    config.Ingest.RateLimit,
		EmbedTimeout: config.Timeouts.Embedding,
		WriteTimeout: config.Timeouts.IndexWrite,
		Logger:       logger,
		OnProgress:   onProgress,
	})

	answerer := pipeline.NewAnswerer(embedder, vectorStore, chatEngine, chatEngine, pipeline.AnswererConfig{
		TopK:            config.Answer.TopK,
		RequireContext:  config.Answer.RequireContext,
		EmbedTimeout:    config.Timeouts.Embedding,
		QueryTimeout:    config.Timeouts.IndexQuery,
		GenerateTimeout: config.Timeouts.Generation,
		Logger:          logger,
	})

	return &app{
		config:    config,
		store:     vectorStore,
		extractor: extractor.New(),
		ingestor:  ingestor,
		answerer:  answerer,
	}, nil
}
