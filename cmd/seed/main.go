// Command main seeds the profilegraph database with demo or random data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"profilegraph/internal/config"
	"profilegraph/internal/database"
	"profilegraph/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (defaults to the built-in demo)")
	numUsers := flag.Int("users", 0, "Generate this many random users instead of a scenario")
	numPosts := flag.Int("posts", 40, "Random posts to generate with -users")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var scn *seed.Scenario
	switch {
	case *numUsers > 0:
		scn = seed.Random(*numUsers, *numPosts, time.Now().UnixNano())
	case *scenarioPath != "":
		scn, err = seed.LoadScenario(*scenarioPath)
	default:
		scn, err = seed.DemoScenario()
	}
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := s.Apply(context.Background(), scn)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d profiles, %d keyed posts", len(res.Users), len(res.Profiles), len(res.Posts))
}
