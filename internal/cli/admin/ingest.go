package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/askdsa/internal/config"
	"github.com/cloo-solutions/askdsa/internal/database"
	"github.com/cloo-solutions/askdsa/internal/ingest"
	"github.com/cloo-solutions/askdsa/internal/llm"
	"github.com/cloo-solutions/askdsa/internal/repository"
	"github.com/cloo-solutions/askdsa/internal/storage"
)

// IngestCmd returns the ingest command
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [path]",
		Short: "Index a source document",
		Long: `Load a document (local file or s3://bucket/key), split it into
overlapping chunks, embed each chunk, and upsert the results into the vector
store. Re-running on the same document replaces its chunks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runIngest,
	}

	cmd.Flags().Int("chunk-size", 0, "Maximum chunk size in characters (default from config)")
	cmd.Flags().Int("overlap", -1, "Overlap between consecutive chunks (default from config)")
	cmd.Flags().Int("concurrency", 0, "Parallel embedding calls (default from config)")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("ASKDSA_OPENAI_API_KEY is required to ingest")
	}

	source := cfg.DocumentPath
	if len(args) == 1 {
		source = args[0]
	}

	chunkCfg := ingest.ChunkConfig{MaxSize: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
	if v, _ := cmd.Flags().GetInt("chunk-size"); v > 0 {
		chunkCfg.MaxSize = v
	}
	if v, _ := cmd.Flags().GetInt("overlap"); v >= 0 {
		chunkCfg.Overlap = v
	}
	concurrency := cfg.IngestConcurrency
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		concurrency = v
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	var fetcher ingest.ObjectFetcher
	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		fetcher = s3Client
	}

	loader := ingest.NewLoader(fetcher)
	doc, err := loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}
	log.Printf("loaded %s (%d pages)", doc.Source, len(doc.Pages))

	chunks := ingest.SplitDocument(doc, chunkCfg)
	log.Printf("split into %d chunks (max %d, overlap %d)", len(chunks), chunkCfg.MaxSize, chunkCfg.Overlap)

	llmClient := llm.NewClientWithConfig(llm.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      openai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:           cfg.ChatModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
	})

	indexer := ingest.NewIndexer(llmClient, repository.NewChunkRepository(pool), concurrency)

	start := time.Now()
	if err := indexer.Index(ctx, doc.Source, chunks); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	log.Printf("ingestion finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}
