package postgres

import (
	"context"

	"github.com/yoockh/yoointerview/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ArchiveRepository interface {
	// SaveInterview upserts the backup of a completed interview on its natural key.
	SaveInterview(ctx context.Context, a *models.InterviewArchive) error
	RecordExportRun(ctx context.Context, run *models.ExportRun) error
	LatestExportRuns(ctx context.Context, n int) ([]models.ExportRun, error)
}

type archiveRepo struct {
	db *gorm.DB
}

func NewArchiveRepo(db *gorm.DB) ArchiveRepository {
	return &archiveRepo{db: db}
}

// Migrate creates the archive tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.InterviewArchive{}, &models.ExportRun{})
}

func (r *archiveRepo) SaveInterview(ctx context.Context, a *models.InterviewArchive) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "username"}, {Name: "start_time_unix"}},
			DoUpdates: clause.AssignmentColumns([]string{"ended_at", "duration_minutes", "transcript", "archived_at"}),
		}).
		Create(a).Error
}

func (r *archiveRepo) RecordExportRun(ctx context.Context, run *models.ExportRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *archiveRepo) LatestExportRuns(ctx context.Context, n int) ([]models.ExportRun, error) {
	if n <= 0 {
		n = 10
	}
	var rows []models.ExportRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}
