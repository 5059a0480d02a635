package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"tailor-backend/internal/config"
	"tailor-backend/internal/database"
	"tailor-backend/internal/repository"
	"tailor-backend/internal/storage"

	"github.com/robfig/cron/v3"
)

// Uploads younger than this are left alone; their transaction may still be open.
const orphanGracePeriod = time.Hour

// sweeper removes local upload files that no image row references. Files are
// normally reclaimed by the request that orphaned them; this catches the ones
// left behind by crashes or failed removals.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Storage.Driver != "local" {
		log.Printf("Storage driver is %s; nothing to sweep.", cfg.Storage.Driver)
		return
	}

	db, err := database.NewConnection(cfg.DatabaseURL, database.PoolOptions{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	store, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix)
	if err != nil {
		log.Fatalf("Upload directory setup failed: %v", err)
	}
	imageRepo := repository.NewImageRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		referenced, err := imageRepo.ListURLs(ctx)
		if err != nil {
			log.Printf("Sweep skipped: failed to list image urls: %v", err)
			return
		}
		removed, err := store.SweepOrphans(ctx, referenced, orphanGracePeriod, time.Now())
		if err != nil {
			log.Printf("Sweep incomplete: %v", err)
		}
		log.Printf("Sweep finished: %d orphaned uploads removed", len(removed))
	}

	if *once {
		sweep()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, sweep); err != nil {
		log.Fatalf("Invalid SWEEP_SCHEDULE %q: %v", cfg.SweepSchedule, err)
	}
	c.Start()
	log.Printf("Upload sweeper started (%s)", cfg.SweepSchedule)

	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Upload sweeper stopped")
}
