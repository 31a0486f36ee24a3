package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/config"
	"github.com/meur/reviewhub/internal/models"
)

func main() {
	cfg, err := config.LoadCLI()
	if err != nil {
		config.Exitf("Failed to load config: %v", err)
	}
	apiBase := flag.String("api", cfg.APIBase, "Game Review Hub API base URL")
	seedsFile := flag.String("seeds", "./seeds/games.json", "JSON array of games to create")
	flag.Parse()

	client := apiclient.New(*apiBase, nil, apiclient.WithTimeout(cfg.HTTPTimeout))

	games, err := loadSeeds(*seedsFile)
	if err != nil {
		log.Fatalf("Failed to read seeds: %v", err)
	}

	created := seed(context.Background(), client, games)
	log.Printf("🌱 Seeding complete! %d/%d games created", created, len(games))
}

func loadSeeds(path string) ([]models.GameCreate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var games []models.GameCreate
	if err := json.Unmarshal(data, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// seed creates every game, logging failures and carrying on.
func seed(ctx context.Context, client *apiclient.Client, games []models.GameCreate) int {
	created := 0
	for _, in := range games {
		g, err := client.CreateGame(ctx, in)
		if err != nil {
			log.Printf("Warning: failed to seed %q: %v", in.Title, err)
			continue
		}
		created++
		log.Printf("✓ Seeded game %d %q", g.ID, g.Title)
	}
	return created
}
