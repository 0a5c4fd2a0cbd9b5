package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"mealboard/internal/config"
	"mealboard/internal/database"
	"mealboard/internal/importer"
	"mealboard/internal/store"
)

func main() {
	userID := flag.String("user", "", "Owner of the imported ingredients")
	flag.Parse()

	if *userID == "" || flag.NArg() == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	imp := importer.New(store.New(db.SQL).Ingredients)

	ctx := context.Background()
	failures := 0
	for _, url := range flag.Args() {
		record, err := imp.Import(ctx, url, *userID)
		if err != nil {
			log.Printf("Skipping %s: %v", url, err)
			failures++
			continue
		}
		fmt.Printf("Imported %q (%s)\n", record.Name, record.ID)
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: import-ingredients -user <user-id> <url> [url...]")
	fmt.Println("\nFetches nutrition-facts pages and saves each as an ingredient.")
}
