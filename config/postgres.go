package config

import (
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var PostgresDB *gorm.DB

// ErrPostgresDisabled is returned when POSTGRES_URI is unset; the archive is optional.
var ErrPostgresDisabled = errors.New("POSTGRES_URI environment variable is not set")

func InitPostgres(cfg *Config) error {
	if cfg.PostgresURI == "" {
		return ErrPostgresDisabled
	}
	db, err := gorm.Open(postgres.Open(cfg.PostgresURI), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	PostgresDB = db
	return nil
}

func ClosePostgres() {
	if PostgresDB == nil {
		return
	}
	if sqlDB, err := PostgresDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
