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
	sdk "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/goalsight/internal/api/handlers"
	"github.com/cloo-solutions/goalsight/internal/config"
	"github.com/cloo-solutions/goalsight/internal/database"
	"github.com/cloo-solutions/goalsight/internal/keyword"
	"github.com/cloo-solutions/goalsight/internal/openai"
	"github.com/cloo-solutions/goalsight/internal/rag"
	"github.com/cloo-solutions/goalsight/internal/ranker"
	"github.com/cloo-solutions/goalsight/internal/repository"
	"github.com/cloo-solutions/goalsight/internal/semantic"
	"github.com/cloo-solutions/goalsight/internal/server"
	"github.com/cloo-solutions/goalsight/internal/service"
	"github.com/cloo-solutions/goalsight/internal/store"
	"github.com/cloo-solutions/goalsight/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Load the records dataset, build the search index and serve the HTTP API",
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
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      environment,
			TracesSampleRate: sampleRate,
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

	st, err := store.LoadFile(cfg.RecordsPath)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}
	log.Printf("loaded %d records from %s", st.Len(), cfg.RecordsPath)

	var index semantic.VectorIndex = semantic.NewMemoryIndex()
	var searchLog service.SearchLogRepository

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Println("connected to database")

		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			if err := runMigrations(cfg.DatabaseURL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		index = repository.NewRecordIndexRepository(pool)
		searchLog = repository.NewSearchLogRepository(pool)
	}

	var embedder semantic.Embedder
	if cfg.HasOpenAI() {
		embedder = openai.NewClientWithConfig(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			EmbeddingModel:      sdk.EmbeddingModel(cfg.EmbeddingModel),
			EmbeddingDimensions: cfg.EmbeddingDimensions,
		})
	}

	adapter := semantic.NewAdapter(embedder, index, cfg.RequestTimeout())
	if embedder != nil {
		log.Println("building search index...")
		if err := adapter.Initialize(ctx, st); err != nil {
			return fmt.Errorf("failed to build search index: %w", err)
		}
		log.Println("search index ready")
	} else if cfg.AllowKeywordFallback {
		log.Println("no embedding provider configured; serving keyword-only search")
	} else {
		return fmt.Errorf("no embedding provider configured: set GOALSIGHT_OPENAI_API_KEY or GOALSIGHT_ALLOW_KEYWORD_FALLBACK=true")
	}

	rankerCfg := ranker.DefaultConfig()
	rankerCfg.SemanticWeight = cfg.SemanticWeight
	rankerCfg.KeywordWeight = cfg.KeywordWeight
	rankerCfg.MinScoreThreshold = cfg.MinScoreThreshold
	rankerCfg.OversampleFactor = cfg.OversampleFactor
	rankerCfg.AllowKeywordFallback = cfg.AllowKeywordFallback
	rnk := ranker.New(st, adapter, keyword.NewScorer(st), rankerCfg)

	var llm rag.ChatClient
	if cfg.HasLLM() {
		llm = openai.NewClientWithConfig(openai.Config{
			APIKey:  cfg.LLMAPIKey,
			BaseURL: cfg.LLMBaseURL,
		})
	} else {
		log.Println("no LLM API key configured; ask requests will fail fast")
	}

	ragCfg := rag.DefaultConfig()
	ragCfg.RetryCount = cfg.RetryCount
	ragCfg.RetryBackoffBase = cfg.RetryBackoffBase()
	ragCfg.PrimaryModel = cfg.PrimaryModel
	ragCfg.FallbackModel = cfg.FallbackModel
	ragCfg.RequestTimeout = cfg.RequestTimeout()
	orchestrator := rag.New(rnk, llm, st, ragCfg)

	searchSvc := service.NewSearchService(st, rnk, orchestrator, searchLog)
	searchSvc.SetDefaultLimit(cfg.KDefault)
	searchHandler := handlers.NewSearchHandler(searchSvc)

	router := server.NewRouter(server.RouterConfig{SearchHandler: searchHandler})

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

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	// golang-migrate needs a database/sql connection
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
