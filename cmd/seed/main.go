package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/sahilchouksey/campus-api/app"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/services"
)

func main() {
	adminUID := flag.String("admin-uid", "", "auth uid to grant the admin role")
	adminEmail := flag.String("admin-email", "", "email stored on the admin role record")
	flag.Parse()

	ctx := context.Background()
	cfg, logger, store, _, err := app.Bootstrap(ctx)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}
	defer store.Close()
	defer logger.Sync()

	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Printf("Campus API - Seeding college %s\n", cfg.CollegeID)
	fmt.Println(separator)

	seeder := database.NewSeeder(store, cfg.CollegeID, services.CollegeName)
	result, err := seeder.SeedAll(ctx, *adminUID, *adminEmail)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	fmt.Printf("Departments created: %d\n", result.Departments)
	if result.Admin {
		fmt.Printf("Admin role granted to %s\n", *adminUID)
	} else {
		fmt.Println("No -admin-uid given, admin role record skipped.")
	}
	fmt.Println(separator)
}
