package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/coursepilot/coursepilot/internal/config"
	"github.com/coursepilot/coursepilot/internal/openai"
	"github.com/coursepilot/coursepilot/internal/repository"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// ConductCmd returns the conduct command: a one-shot announcement sweep
// across all courses, or a single course when --course is given.
func ConductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conduct",
		Short: "Draft weekly announcements",
		Long:  "Draft the current week's announcement for every course with a schedule, skipping weeks that already have one",
		RunE:  runConduct,
	}

	cmd.Flags().String("course", "", "Restrict the sweep to one course")
	cmd.Flags().Int("week", 0, "Week number to draft (defaults to the current week)")

	return cmd
}

func runConduct(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var llm service.CompletionClient
	if cfg.HasOpenAI() {
		llm = openai.NewClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("no OpenAI key configured, drafting from schedule templates")
	}

	announcementRepo := repository.NewAnnouncementRepository(pool)
	scheduleRepo := repository.NewScheduleRepository(pool)
	termStart := cfg.TermStartTime(time.Now().UTC())
	conductor := service.NewConductorService(announcementRepo, scheduleRepo, llm, termStart).
		WithDemoWeek(cfg.DemoWeek)

	course, _ := cmd.Flags().GetString("course")
	week, _ := cmd.Flags().GetInt("week")

	if course != "" {
		announcement, err := conductor.Generate(ctx, course, week)
		if err != nil {
			return fmt.Errorf("failed to draft announcement for %s: %w", course, err)
		}
		log.Printf("course %s week %d: %q (%s)", announcement.CourseID, announcement.WeekNumber, announcement.Title, announcement.Status)
		return nil
	}

	statuses, err := conductor.GenerateAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to run announcement sweep: %w", err)
	}

	failed := 0
	for _, st := range statuses {
		if st.Err != nil {
			failed++
			log.Printf("course %s: %v", st.CourseID, st.Err)
			continue
		}
		log.Printf("course %s week %d: %q (%s)", st.CourseID, st.Announcement.WeekNumber, st.Announcement.Title, st.Announcement.Status)
	}

	if failed > 0 {
		return fmt.Errorf("announcement sweep finished with %d of %d courses failed", failed, len(statuses))
	}
	log.Printf("announcement sweep finished: %d courses", len(statuses))
	return nil
}
