package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/dimitrije/aiden-dashboard/internal/config"
	"github.com/dimitrije/aiden-dashboard/internal/database"
	"github.com/dimitrije/aiden-dashboard/internal/models"
	"github.com/dimitrije/aiden-dashboard/internal/services"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Println("Usage: set-role <email> <super_admin|leadership|employee>")
		os.Exit(1)
	}

	email := os.Args[1]
	role, ok := models.ParseRole(os.Args[2])
	if !ok {
		log.Fatalf("Unknown role: %s", os.Args[2])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	id, err := services.NewProfileService(db).SetRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			log.Fatalf("No user found with email: %s", email)
		}
		log.Fatalf("Failed to set role: %v", err)
	}

	fmt.Printf("Set role of %s (%s) to %s\n", email, id, role)
	fmt.Println("The change applies from the user's next sign-in or token refresh")
}
