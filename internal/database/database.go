package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/primoscope/echotune/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize creates and configures the database connection.
// Postgres in production; set DB_DRIVER=sqlite (with DB_PATH) for local dev.
func Initialize() error {
	gormLogger := logger.Default
	if os.Getenv("ENVIRONMENT") == "development" {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	cfg := &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)

	if os.Getenv("DB_DRIVER") == "sqlite" {
		path := getEnvOrDefault("DB_PATH", "echotune.db")
		db, err = gorm.Open(sqlite.Open(path), cfg)
	} else {
		databaseURL := os.Getenv("DATABASE_URL")
		if databaseURL == "" {
			// Fallback to individual components
			host := getEnvOrDefault("DB_HOST", "localhost")
			port := getEnvOrDefault("DB_PORT", "5432")
			user := getEnvOrDefault("DB_USER", "postgres")
			password := getEnvOrDefault("DB_PASSWORD", "")
			dbname := getEnvOrDefault("DB_NAME", "echotune")
			sslmode := getEnvOrDefault("DB_SSLMODE", "disable")

			databaseURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				host, port, user, password, dbname, sslmode)
		}
		db, err = gorm.Open(postgres.Open(databaseURL), cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	DB = db
	log.Println("✅ Database connected successfully")

	return nil
}

// Migrate runs auto-migration for all models
func Migrate() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	if DB.Dialector.Name() == "postgres" {
		if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
			log.Printf("Warning: Could not create uuid-ossp extension: %v", err)
		}
	}

	err := DB.AutoMigrate(
		&models.Track{},
		&models.PlayEvent{},
		&models.FeedbackEvent{},
		&models.RecommendationImpression{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("✅ Database migrations completed")
	return nil
}

// createIndexes creates performance indexes for the hot query paths
func createIndexes() error {
	// Recent-window reads per user
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_play_events_user_played ON play_events (user_id, played_at DESC)")
	// Trending aggregate over the rolling window
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_play_events_played ON play_events (played_at DESC)")
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_play_events_track ON play_events (track_id)")

	// Feedback reconciliation reads
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_feedback_events_user ON feedback_events (user_id, occurred_at DESC)")

	// CTR analysis
	DB.Exec("CREATE INDEX IF NOT EXISTS idx_impressions_source_created ON recommendation_impressions (source, created_at DESC)")

	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Health checks database connectivity
func Health() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Ping()
}

// getEnvOrDefault returns environment variable or default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
