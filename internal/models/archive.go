package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// InterviewArchive is a Postgres backup of a completed interview.
type InterviewArchive struct {
	ID              string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Username        string         `gorm:"column:username;type:text;uniqueIndex:uniq_archive_natural_key" json:"username"`
	StartTimeUnix   float64        `gorm:"column:start_time_unix;type:double precision;uniqueIndex:uniq_archive_natural_key" json:"start_time_unix"`
	StartedAt       time.Time      `gorm:"column:started_at;type:timestamptz;index" json:"started_at"`
	EndedAt         time.Time      `gorm:"column:ended_at;type:timestamptz" json:"ended_at"`
	DurationMinutes float64        `gorm:"column:duration_minutes;type:double precision" json:"duration_minutes"`
	SystemPrompt    string         `gorm:"column:system_prompt;type:text" json:"system_prompt"`
	Transcript      datatypes.JSON `gorm:"column:transcript;type:jsonb" json:"transcript"`
	ArchivedAt      time.Time      `gorm:"column:archived_at;type:timestamptz" json:"archived_at"`
}

func (InterviewArchive) TableName() string { return "interview_archives" }

// ExportRun audits one run of the transcript export.
type ExportRun struct {
	ID                 string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ExcludeUsernames   pq.StringArray `gorm:"column:exclude_usernames;type:text[]" json:"exclude_usernames"`
	StartDate          string         `gorm:"column:start_date;type:text" json:"start_date"`
	EndDate            string         `gorm:"column:end_date;type:text" json:"end_date"`
	MinDuration        float64        `gorm:"column:min_duration;type:double precision" json:"min_duration"`
	Total              int            `gorm:"column:total;type:integer" json:"total"`
	ExcludedByUsername int            `gorm:"column:excluded_by_username;type:integer" json:"excluded_by_username"`
	ExcludedByDate     int            `gorm:"column:excluded_by_date;type:integer" json:"excluded_by_date"`
	ExcludedByDuration int            `gorm:"column:excluded_by_duration;type:integer" json:"excluded_by_duration"`
	Exported           int            `gorm:"column:exported;type:integer" json:"exported"`
	OutputPath         string         `gorm:"column:output_path;type:text" json:"output_path"`
	CreatedAt          time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (ExportRun) TableName() string { return "export_runs" }
