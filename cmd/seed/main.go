// seed inserts a development account for local testing.
// Idempotent: skips the insert if the dev account (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	accountdomain "auth-session-service/internal/account/domain"
	accountrepo "auth-session-service/internal/account/repository"
	"auth-session-service/internal/config"
	"auth-session-service/internal/db"
	"auth-session-service/internal/security"
)

const (
	devEmail    = "dev@example.com"
	devPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	accounts := accountrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := accounts.GetByEmail(ctx, devEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	if err := accounts.Create(ctx, &accountdomain.Account{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(devEmail),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		log.Fatalf("create dev account: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devEmail, devPassword)
}
