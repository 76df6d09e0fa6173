package main

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yoockh/yoointerview/config"
	"github.com/yoockh/yoointerview/internal/logger"
	mongorepo "github.com/yoockh/yoointerview/internal/repositories/mongo"
	pgrepo "github.com/yoockh/yoointerview/internal/repositories/postgres"
	"github.com/yoockh/yoointerview/internal/services"
	"github.com/yoockh/yoointerview/internal/storage"
)

// opener builds the export service; the returned func releases its clients.
type opener func(ctx context.Context, withUpload bool) (services.ExportService, func(), error)

func newRootCommand(open opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcripts",
		Short: "Export and inspect stored interview transcripts",
		Long: `transcripts reads interview records from MongoDB.

It exports filtered transcripts to a text file, diagnoses how stored
durations compare with the export rules, lists recent export runs, and
hashes credentials for the server configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newExportCommand(open))
	cmd.AddCommand(newDiagnoseCommand(open))
	cmd.AddCommand(newRunsCommand(open))
	cmd.AddCommand(newHashSecretCommand())

	return cmd
}

func defaultOpener(ctx context.Context, withUpload bool) (services.ExportService, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	// warnings go to stderr so the report on stdout stays readable
	l := logger.NewWithOutput(cfg.LogLevel, os.Stderr)

	if err := config.InitMongo(cfg); err != nil {
		return nil, nil, err
	}
	closers := []func(){config.CloseMongo}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var archives pgrepo.ArchiveRepository
	switch err := config.InitPostgres(cfg); {
	case errors.Is(err, config.ErrPostgresDisabled):
	case err != nil:
		l.WithError(err).Warn("PostgreSQL unavailable, export runs will not be recorded")
	default:
		if err := pgrepo.Migrate(config.PostgresDB); err != nil {
			l.WithError(err).Warn("PostgreSQL migrate failed, export runs will not be recorded")
		} else {
			archives = pgrepo.NewArchiveRepo(config.PostgresDB)
		}
	}

	var uploader storage.Uploader
	if withUpload && cfg.ExportBucket != "" {
		u, err := storage.NewGCSUploader(ctx, cfg.ExportBucket)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = u.Close() })
		uploader = u
	}

	repo := mongorepo.NewInterviewRepo(config.MongoDatabase(cfg), cfg.MongoCollection)
	return services.NewExportService(repo, archives, uploader, l), cleanup, nil
}
