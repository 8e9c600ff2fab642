package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/askdsa/internal/api/handlers"
	"github.com/cloo-solutions/askdsa/internal/config"
	"github.com/cloo-solutions/askdsa/internal/database"
	"github.com/cloo-solutions/askdsa/internal/jobs"
	"github.com/cloo-solutions/askdsa/internal/llm"
	"github.com/cloo-solutions/askdsa/internal/repository"
	"github.com/cloo-solutions/askdsa/internal/server"
	"github.com/cloo-solutions/askdsa/internal/service"
	"github.com/cloo-solutions/askdsa/internal/session"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

const sweepInterval = time.Minute

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the askdsa API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnv,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("ASKDSA_OPENAI_API_KEY is required to serve queries")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)

	llmClient := llm.NewClientWithConfig(llm.Config{
		APIKey:              cfg.OpenAIAPIKey,
		EmbeddingModel:      openai.EmbeddingModel(cfg.EmbeddingModel),
		ChatModel:           cfg.ChatModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
	})

	sessions, sweeper, err := buildSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	var sweepWorker *jobs.Worker
	if sweeper != nil {
		sweepWorker = jobs.NewWorker(sweeper, sweepInterval)
		go sweepWorker.Start(ctx)
		log.Println("session sweeper started")
	}

	chatSvc := service.NewChatService(
		service.NewRewriter(llmClient),
		service.NewRetriever(llmClient, chunkRepo, cfg.TopK),
		service.NewSynthesizer(llmClient),
		sessions,
		cfg.CollaboratorTimeout,
	)

	router := server.NewRouter(server.RouterConfig{
		ChatHandler: handlers.NewChatHandler(chatSvc),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if sweepWorker != nil {
		sweepWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// buildSessionStore wires the configured session backend. The in-memory
// backend gets a sweeper when a TTL is set; Redis expires keys itself.
func buildSessionStore(ctx context.Context, cfg *config.Config) (session.Store, *jobs.SessionSweeper, error) {
	switch cfg.SessionBackend {
	case "redis":
		if !cfg.HasRedis() {
			return nil, nil, fmt.Errorf("ASKDSA_REDIS_ADDR is required for the redis session backend")
		}
		client, err := newRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("using redis session store at %s", cfg.RedisAddr)
		return session.NewRedisStore(client, cfg.SessionTTL), nil, nil
	case "memory", "":
		store := session.NewMemoryStore()
		if cfg.SessionTTL > 0 {
			return store, jobs.NewSessionSweeper(store, cfg.SessionTTL), nil
		}
		return store, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
