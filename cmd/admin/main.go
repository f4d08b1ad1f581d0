package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/noah-isme/edu-crm-api/internal/repository"
	"github.com/noah-isme/edu-crm-api/internal/service"
	"github.com/noah-isme/edu-crm-api/pkg/config"
	"github.com/noah-isme/edu-crm-api/pkg/database"
	"github.com/noah-isme/edu-crm-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cli := &commandLine{
		db:    db.DB,
		users: service.NewUserService(repository.NewUserRepository(db), nil, logr),
		out:   os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Sugar().Errorw("admin command failed", "error", err)
		}
		os.Exit(1)
	}
}
