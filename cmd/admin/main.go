// Package main provides account utilities for profilegraph operators.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"profilegraph/internal/config"
	"profilegraph/internal/database"
	"profilegraph/internal/middleware"
	"profilegraph/internal/models"
	"profilegraph/internal/repository"

	"github.com/joho/godotenv"
)

const usage = `Usage:
  go run ./cmd/admin create <username>       - Create a gateway user
  go run ./cmd/admin token <user_id> [ttl]   - Mint a bearer token (default ttl 24h)
  go run ./cmd/admin promote <user_id>       - Grant staff
  go run ./cmd/admin demote <user_id>        - Revoke staff`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		user := &models.User{Username: os.Args[2]}
		if err := users.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		fmt.Printf("Created %s (ID: %d)\n", user.Username, user.ID)

	case "token":
		user := lookup(ctx, users, os.Args[2])
		ttl := 24 * time.Hour
		if len(os.Args) > 3 {
			if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
				log.Fatalf("Invalid ttl %q: %v", os.Args[3], err)
			}
		}
		token, err := middleware.IssueToken(cfg.JWTSecret, user.ID, ttl)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(token)

	case "promote", "demote":
		user := lookup(ctx, users, os.Args[2])
		staff := os.Args[1] == "promote"
		if user.IsStaff == staff {
			fmt.Printf("User %s (ID: %d) already has staff=%v\n", user.Username, user.ID, staff)
			return
		}
		if err := users.SetStaff(ctx, user.ID, staff); err != nil {
			log.Fatalf("Failed to update user: %v", err)
		}
		fmt.Printf("Set staff=%v on %s (ID: %d)\n", staff, user.Username, user.ID)

	default:
		fmt.Printf("Unknown command: %s\n%s\n", os.Args[1], usage)
		os.Exit(1)
	}
}

func lookup(ctx context.Context, users repository.UserRepository, raw string) *models.User {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		log.Fatalf("Invalid user ID %q", raw)
	}
	user, err := users.GetByID(ctx, uint(id))
	if err != nil {
		log.Fatalf("User with ID %s not found: %v", raw, err)
	}
	return user
}
