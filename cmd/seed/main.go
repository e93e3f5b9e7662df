package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/primoscope/echotune/internal/database"
	"github.com/primoscope/echotune/internal/logger"
	"github.com/primoscope/echotune/internal/seed"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Parse command
	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		seedDev()
	case "test":
		seedTest()
	case "clean":
		cleanSeed()
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic listening data")
		fmt.Println("  test  - Seed test database with minimal data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func setup() *seed.Seeder {
	if err := logger.Initialize("info", "seed.log"); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}

	if err := database.Initialize(); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connected")

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	return seed.NewSeeder(database.DB)
}

func seedDev() {
	log.Println("🌱 Seeding development database...")
	seeder := setup()
	defer database.Close()

	if err := seeder.SeedDev(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✅ Development database seeded")
}

func seedTest() {
	log.Println("🌱 Seeding test database...")
	seeder := setup()
	defer database.Close()

	if err := seeder.SeedTest(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}
	log.Println("✅ Test database seeded")
}

func cleanSeed() {
	log.Println("🧹 Cleaning seed data...")
	seeder := setup()
	defer database.Close()

	if err := seeder.Clean(); err != nil {
		log.Fatalf("❌ Clean failed: %v", err)
	}
	log.Println("✅ Seed data removed")
}
