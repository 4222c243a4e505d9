package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/auth-service/config"
	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@example.com"
	password := "Password1"
	hash, err := helpers.HashPassword(password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, password_hash, provider, first_name, last_name, role, is_active, is_email_verified)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, TRUE)
		ON CONFLICT (lower(email)) DO UPDATE SET first_name = EXCLUDED.first_name
		RETURNING id
	`, email, hash, string(entity.ProviderLocal), "Demo", "User", string(entity.RoleClient)).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\n", id, email, password)
}
