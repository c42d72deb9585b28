// Creates an active admin account directly in the database. Registration
// through the API leaves accounts pending approval, so the first admin has
// to be seeded with this script.
//
// Usage: go run scripts/create-admin.go -email admin@example.com -name "Admin" -password secret
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/domain"
	"github.com/cognisync/cognisync-api/internal/repository/postgres"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "Administrator", "full name")
	password := flag.String("password", "", "password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	repos := postgres.NewRepositories(db)
	ctx := context.Background()

	if existing, err := repos.User.GetByEmail(ctx, *email); err == nil && existing != nil {
		log.Fatalf("account %s already exists", *email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Email:        *email,
		PasswordHash: string(hash),
		FullName:     *name,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := repos.User.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	fmt.Printf("created admin %s (%s)\n", admin.Email, admin.ID)
}
