// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/7shantanu7/CodeSync-CMPE-281/internal/config"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/db"
	docdomain "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/domain"
	docrepo "github.com/7shantanu7/CodeSync-CMPE-281/internal/document/repository"
	"github.com/7shantanu7/CodeSync-CMPE-281/internal/security"
	userdomain "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/domain"
	userrepo "github.com/7shantanu7/CodeSync-CMPE-281/internal/user/repository"
)

const (
	devUserEmail    = "dev@example.com"
	devPassword     = "password123"
	devUserID       = "00000000-0000-0000-0000-000000000001"
	memberUserID    = "00000000-0000-0000-0000-000000000002"
	devDocumentID   = "00000000-0000-0000-0000-00000000d001"
	memberUserEmail = "member@example.com"
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

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	docs := docrepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, devUserEmail)
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

	now := time.Now().UTC()
	for _, u := range []*userdomain.User{
		{ID: devUserID, Email: devUserEmail, Username: "dev", PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now},
		{ID: memberUserID, Email: memberUserEmail, Username: "member", PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now},
	} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Username, err)
		}
	}

	doc := &docdomain.Document{
		ID:        devDocumentID,
		Title:     "Welcome",
		Content:   "Open this document from two browsers to try live editing.\n",
		OwnerID:   devUserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := docs.Create(ctx, doc); err != nil {
		log.Fatalf("create document: %v", err)
	}
	if err := docs.Share(ctx, devDocumentID, memberUserID, docdomain.PermissionWrite); err != nil {
		log.Fatalf("share document: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Dev login: %s / %s\n", devUserEmail, devPassword)
	fmt.Printf("Member login: %s / %s\n", memberUserEmail, devPassword)
}
