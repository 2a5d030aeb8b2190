package main

import (
	"context"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"choirbot/internal/blob"
	"choirbot/internal/bot"
	"choirbot/internal/catalog"
	"choirbot/internal/config"
	"choirbot/internal/flow"
	"choirbot/internal/ledger"
	"choirbot/internal/listsync"
	"choirbot/internal/regents"
	"choirbot/internal/state"
	"choirbot/internal/store"
	"choirbot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tab store.Tabular
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		log.Printf("Using PostgreSQL for tabular storage")
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer pg.Close()
		tab = pg
	} else {
		log.Printf("Using Google Sheets for tabular storage")
		sheets, err := store.NewSheets(ctx, cfg.CredentialsFile, cfg.SheetID)
		if err != nil {
			log.Fatalf("sheets connection failed: %v", err)
		}
		tab = sheets
	}
	if err := store.EnsureSchema(ctx, tab); err != nil {
		log.Fatalf("schema check failed: %v", err)
	}

	var shared state.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for shared state")
		redisStore, err := state.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		shared = redisStore
	} else {
		log.Printf("Using %s for shared state", cfg.StateFile)
		shared = state.NewFileStore(cfg.StateFile)
	}

	var archive blob.Archive
	switch {
	case strings.TrimSpace(cfg.DriveFolderID) != "":
		log.Printf("Using Google Drive for file archive")
		archive, err = blob.NewDrive(ctx, cfg.CredentialsFile, cfg.DriveFolderID)
		if err != nil {
			log.Fatalf("drive connection failed: %v", err)
		}
	case strings.TrimSpace(cfg.S3Endpoint) != "":
		log.Printf("Using S3 for file archive")
		archive, err = blob.NewMinIO(ctx, blob.MinIOConfig{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatalf("s3 connection failed: %v", err)
		}
	default:
		log.Printf("No file archive configured, using storage channel links")
	}

	client, err := transport.NewTelegram(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("telegram connection failed: %v", err)
	}

	cat := catalog.New(tab)
	led := ledger.New(tab)
	reg := regents.New(tab)
	sync := listsync.NewSynchronizer(client, shared, cat, cfg.RepertoireGroup)
	conversation := flow.New(cfg, client, cat, led, reg, shared, sync, archive)

	log.Printf("Choirbot starting as @%s", client.Username())
	if err := bot.New(cfg, client, conversation).Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("bot stopped: %v", err)
	}
	log.Printf("Choirbot stopped")
}
