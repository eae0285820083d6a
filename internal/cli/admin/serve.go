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

	"github.com/coursepilot/coursepilot/internal/api/handlers"
	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/extract"
	"github.com/coursepilot/coursepilot/internal/jobs"
	"github.com/coursepilot/coursepilot/internal/openai"
	"github.com/coursepilot/coursepilot/internal/repository"
	"github.com/coursepilot/coursepilot/internal/server"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/storage"
	"github.com/coursepilot/coursepilot/internal/telemetry"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the coursepilot API server and the background announcement conductor",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-conductor", false, "Disable the background announcement conductor sweep")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.HasSentry() {
		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if cfg.Environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			TracesSampleRate: sampleRate,
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

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	chunkRepo := repository.NewChunkRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	if !cfg.HasOpenAI() {
		return fmt.Errorf("COURSEPILOT_OPENAI_API_KEY is required: embeddings and routing depend on it")
	}
	llm := openai.NewClient(cfg.OpenAIAPIKey)

	retrieval := service.NewRetrievalService(llm, chunkRepo)
	routerSvc := service.NewRouterService(llm)
	policyAgent := service.NewPolicyAgent(retrieval, llm)
	conceptAgent := service.NewConceptAgent(retrieval, llm)
	escalationSvc := service.NewEscalationService(escalationRepo, llm, retrieval)
	assistantSvc := service.NewAssistantService(routerSvc, policyAgent, conceptAgent, escalationSvc)

	chunker := service.NewChunker(service.DefaultChunkerConfig())
	ingestionSvc := service.NewIngestionService(extract.NewPlainText(), chunker, llm, txRunner, scheduleRepo)

	if cfg.HasS3() {
		s3Client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
		ingestionSvc = ingestionSvc.WithDocumentStore(s3Client)
	}

	termStart := cfg.TermStartTime(time.Now().UTC())
	conductorSvc := service.NewConductorService(announcementRepo, scheduleRepo, llm, termStart).
		WithDemoWeek(cfg.DemoWeek)

	var conductorWorker *jobs.Worker
	noConductor, _ := cmd.Flags().GetBool("no-conductor")
	if !noConductor {
		processor := jobs.NewConductorWorker(conductorSvc)
		conductorWorker = jobs.NewWorker(processor, cfg.ConductorInterval)
		go conductorWorker.Start(ctx)
		log.Println("announcement conductor started")
	}

	routerCfg := server.RouterConfig{
		AskHandler:          handlers.NewAskHandler(assistantSvc),
		IngestHandler:       handlers.NewIngestHandler(ingestionSvc),
		EscalationHandler:   handlers.NewEscalationHandler(escalationSvc),
		AnnouncementHandler: handlers.NewAnnouncementHandler(conductorSvc),
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(routerCfg),
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

	if conductorWorker != nil {
		conductorWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
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
