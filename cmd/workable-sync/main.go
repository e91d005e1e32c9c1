// Command workable-sync runs Workable candidate syncs from cron and exports
// the synced candidates to xlsx.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/config"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/models"
	"github.com/growthacceleratorstaffing/linked-job-seeker-board-sub000/services"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	config.ReloadMailerConfig()

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	var (
		action     string
		trigger    string
		exportPath string
		migrate    bool
	)

	flag.StringVar(&action, "action", "load_all_candidates", "load_all_candidates, sync_candidates, test_connection or sync_status")
	flag.StringVar(&trigger, "trigger", "cli", "trigger source label stored in integration_sync_logs")
	flag.StringVar(&exportPath, "export", "", "write stored candidates to this xlsx file instead of syncing")
	flag.BoolVar(&migrate, "migrate", false, "create or update the candidates and integration_sync_logs tables first")
	flag.Parse()

	config.InitDB()

	if migrate {
		if err := config.DB.AutoMigrate(&models.Candidate{}, &models.IntegrationSyncLog{}); err != nil {
			log.Printf("migration failed: %v", err)
			return 1
		}
		fmt.Println("Tables migrated.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if exportPath != "" {
		return runExport(ctx, exportPath)
	}
	return runAction(ctx, action, trigger)
}

func runAction(ctx context.Context, action, trigger string) int {
	svc, err := services.NewDefaultWorkableSyncService(config.LoadWorkableConfig(), nil)
	if err != nil {
		log.Printf("workable sync setup failed: %v", err)
		return 1
	}

	switch action {
	case "load_all_candidates", "sync_candidates":
		var result *services.SyncResult
		if action == "load_all_candidates" {
			result, err = svc.LoadAllCandidates(ctx, trigger)
		} else {
			result, err = svc.SyncCandidates(ctx, trigger)
		}
		if err != nil {
			var cfgErr *services.ConfigurationError
			switch {
			case errors.As(err, &cfgErr):
				log.Printf("%v", cfgErr)
			case errors.Is(err, services.ErrSyncAlreadyRunning):
				log.Printf("workable sync already running (lock held)")
			default:
				log.Printf("workable sync failed: %v", err)
			}
			if result != nil {
				fmt.Println(result.Message)
			}
			return 1
		}

		fmt.Printf("Run #%d finished: %s\n", result.RunID, result.Status)
		fmt.Printf("Candidates fetched: %d, written: %d, errors: %d\n", result.TotalCandidates, result.SyncedCandidates, result.Errors)
		if result.Stats != nil {
			p := result.Stats.Percentages
			fmt.Printf("Coverage: email %d%%, phone %d%%, resume %d%%, linkedin %d%%, skills %d%%, active %d%%\n",
				p.WithEmail, p.WithPhone, p.WithResume, p.WithLinkedIn, p.WithSkills, p.ActiveCandidates)
		}
		for _, detail := range result.ErrorDetails {
			fmt.Printf("  - %s\n", detail)
		}
		if result.Status != models.SyncStatusSuccess || result.Errors > 0 {
			return 2
		}
		return 0

	case "test_connection":
		result, err := svc.TestConnection(ctx)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		fmt.Printf("%s (%s)\n", result.Message, result.BaseURL)
		if !result.Success {
			return 1
		}
		return 0

	case "sync_status":
		status, err := svc.Status(ctx)
		if err != nil {
			log.Printf("sync status failed: %v", err)
			return 1
		}
		fmt.Printf("Stored candidates: %d\n", status.CandidateCount)
		if status.LatestRun == nil {
			fmt.Println("No sync runs recorded.")
			return 0
		}
		run := status.LatestRun
		fmt.Printf("Latest run #%d (%s, trigger %s): %s, started %s\n",
			run.ID, run.SyncType, run.TriggerSource, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
		return 0

	default:
		log.Printf("unknown action %q", action)
		return 1
	}
}

func runExport(ctx context.Context, path string) int {
	repo := services.NewCandidateRepository(nil)
	candidates, err := repo.ListAll(ctx, services.CandidateFilter{Source: services.SourcePlatformWorkable})
	if err != nil {
		log.Printf("load candidates: %v", err)
		return 1
	}
	latest, err := services.NewSyncRunService(nil).Latest(ctx)
	if err != nil {
		log.Printf("Warning: load latest sync run: %v", err)
	}

	written, err := services.ExportCandidatesToFile(path, candidates, services.StatsFromRun(latest))
	if err != nil {
		log.Printf("export failed: %v", err)
		return 1
	}
	fmt.Printf("Exported %d candidates to %s\n", len(candidates), written)
	return 0
}
