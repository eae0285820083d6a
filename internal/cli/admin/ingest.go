package admin

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/extract"
	"github.com/coursepilot/coursepilot/internal/openai"
	"github.com/coursepilot/coursepilot/internal/repository"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command for loading course documents from
// local files without going through the HTTP API.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest course documents",
		Long:  "Extract, chunk, embed, and store one or more plain-text course documents",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().String("course", "", "Course identifier the documents belong to")
	cmd.Flags().Int("week", 0, "Week number to attach to every chunk (overrides inference)")
	cmd.Flags().String("topic", "", "Topic to attach to every chunk (overrides inference)")
	_ = cmd.MarkFlagRequired("course")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("COURSEPILOT_OPENAI_API_KEY is required for ingestion")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	courseID, _ := cmd.Flags().GetString("course")
	week, _ := cmd.Flags().GetInt("week")
	topic, _ := cmd.Flags().GetString("topic")

	llm := openai.NewClient(cfg.OpenAIAPIKey)
	chunker := service.NewChunker(service.DefaultChunkerConfig())
	scheduleRepo := repository.NewScheduleRepository(pool)
	txRunner := repository.NewTxRunner(pool)
	svc := service.NewIngestionService(extract.NewPlainText(), chunker, llm, txRunner, scheduleRepo)

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		input := service.IngestInput{
			CourseID: courseID,
			Title:    filepath.Base(path),
			Data:     data,
			Topic:    topic,
		}
		if week > 0 {
			w := week
			input.WeekNumber = &w
		}

		result, err := svc.Ingest(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		log.Printf("ingested %s: %d pages, %d chunks (%d policy, %d concept)",
			result.Source, result.Pages, result.ChunksWritten, result.PolicyChunks, result.ConceptChunks)
	}

	return nil
}
