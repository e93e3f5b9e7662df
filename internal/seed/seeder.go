package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/models"
	"gorm.io/gorm"
)

var seedGenres = []string{
	"house", "techno", "hip hop", "indie rock", "jazz", "ambient",
	"pop", "drum and bass", "folk", "classical", "funk", "r&b",
}

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	// Seed random generator for reproducible results
	// Note: Seed returns an error only for invalid sources, time.Now().UnixNano() is always valid
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev seeds the development database with realistic listening data:
// a track catalog, simulated users, play histories and some feedback.
func (s *Seeder) SeedDev() error {
	log := func(msg string) {
		logger.Log.Info(msg)
	}

	log("Creating tracks...")
	tracks, err := s.seedTracks(500)
	if err != nil {
		return fmt.Errorf("failed to seed tracks: %w", err)
	}

	log("Creating play history...")
	userIDs, err := s.seedPlayHistory(tracks, 100, 8000)
	if err != nil {
		return fmt.Errorf("failed to seed play history: %w", err)
	}

	log("Creating feedback events...")
	if err := s.seedFeedback(userIDs, tracks, 1000); err != nil {
		return fmt.Errorf("failed to seed feedback: %w", err)
	}

	return nil
}

// SeedTest seeds the test database with minimal data
func (s *Seeder) SeedTest() error {
	tracks, err := s.seedTracks(30)
	if err != nil {
		return fmt.Errorf("failed to seed tracks: %w", err)
	}
	if _, err := s.seedPlayHistory(tracks, 5, 200); err != nil {
		return fmt.Errorf("failed to seed play history: %w", err)
	}
	return nil
}

// Clean removes all seed data
func (s *Seeder) Clean() error {
	tables := []string{"feedback_events", "play_events", "recommendation_impressions", "tracks"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clean %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedTracks(count int) ([]models.Track, error) {
	tracks := make([]models.Track, 0, count)
	for i := 0; i < count; i++ {
		genre := seedGenres[rand.Intn(len(seedGenres))]
		track := models.Track{
			ID:               uuid.New().String(),
			Name:             gofakeit.Song().Name,
			Artist:           gofakeit.Song().Artist,
			Album:            gofakeit.HipsterWord(),
			Genre:            models.StringArray{genre},
			Danceability:     gofakeit.Float64Range(0, 1),
			Energy:           gofakeit.Float64Range(0, 1),
			Valence:          gofakeit.Float64Range(0, 1),
			Tempo:            gofakeit.Float64Range(60, 190),
			Acousticness:     gofakeit.Float64Range(0, 1),
			Instrumentalness: gofakeit.Float64Range(0, 1),
		}
		tracks = append(tracks, track)
	}

	if err := s.db.CreateInBatches(tracks, 100).Error; err != nil {
		return nil, err
	}
	return tracks, nil
}

// seedPlayHistory gives each simulated user a genre bias so collaborative
// neighborhoods actually form instead of everything looking uniform.
func (s *Seeder) seedPlayHistory(tracks []models.Track, userCount, playCount int) ([]string, error) {
	userIDs := make([]string, 0, userCount)
	userGenre := make(map[string]string, userCount)
	for i := 0; i < userCount; i++ {
		id := uuid.New().String()
		userIDs = append(userIDs, id)
		userGenre[id] = seedGenres[rand.Intn(len(seedGenres))]
	}

	byGenre := make(map[string][]models.Track)
	for _, track := range tracks {
		for _, g := range track.Genre {
			byGenre[g] = append(byGenre[g], track)
		}
	}

	plays := make([]models.PlayEvent, 0, playCount)
	for i := 0; i < playCount; i++ {
		userID := userIDs[rand.Intn(len(userIDs))]

		// 70% of plays stay inside the user's preferred genre
		var track models.Track
		if pool := byGenre[userGenre[userID]]; len(pool) > 0 && rand.Float64() < 0.7 {
			track = pool[rand.Intn(len(pool))]
		} else {
			track = tracks[rand.Intn(len(tracks))]
		}

		completion := gofakeit.Float64Range(0.2, 1.0)
		plays = append(plays, models.PlayEvent{
			UserID:          userID,
			TrackID:         track.ID,
			PlayedAt:        gofakeit.DateRange(time.Now().AddDate(0, 0, -90), time.Now()),
			CompletionRatio: &completion,
		})
	}

	if err := s.db.CreateInBatches(plays, 200).Error; err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (s *Seeder) seedFeedback(userIDs []string, tracks []models.Track, count int) error {
	actions := []models.FeedbackAction{
		models.ActionLike, models.ActionDislike, models.ActionSkip,
		models.ActionSave, models.ActionPlayFull,
	}

	events := make([]models.FeedbackEvent, 0, count)
	for i := 0; i < count; i++ {
		track := tracks[rand.Intn(len(tracks))]
		events = append(events, models.FeedbackEvent{
			UserID:        userIDs[rand.Intn(len(userIDs))],
			TrackID:       track.ID,
			Action:        actions[rand.Intn(len(actions))],
			AudioFeatures: track.Features(),
			OccurredAt:    gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now()),
		})
	}

	return s.db.CreateInBatches(events, 200).Error
}
