// Command retention runs the data retention cleanup once and exits. It is
// meant to be scheduled (cron or a container job) alongside the server.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository/postgres"
	"github.com/cognisync/cognisync-api/internal/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report expired sessions without deleting anything")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	repos := postgres.NewRepositories(db)

	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("failed to initialize encryption: %v", err)
	}

	ctx := context.Background()

	var files filestore.Store
	switch cfg.StorageBackend {
	case "s3":
		files, err = filestore.NewS3(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to initialize s3 storage: %v", err)
		}
	default:
		files = filestore.NewLocal(cfg.UploadDir, cipher)
	}

	audit := service.NewAuditService(repos.Audit, cipher)
	retention := service.NewRetentionService(repos.Session, files, audit, cfg)

	report, err := retention.RunCleanup(ctx, time.Now(), *dryRun)
	if err != nil {
		log.Fatalf("cleanup failed: %v", err)
	}

	if report.DryRun {
		log.Printf("dry run: %d session(s) past retention", len(report.Expired))
	} else {
		log.Printf("cleanup complete: %d deleted, %d failure(s)", report.Deleted, report.Failures)
	}
	for _, id := range report.Expired {
		log.Printf("  expired: %s", id)
	}
}
