package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/config"
	"github.com/meur/reviewhub/internal/web"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		config.Exitf("Failed to load config: %v", err)
	}

	// Flags override the environment
	port := flag.String("port", cfg.Port, "Server port")
	apiBase := flag.String("api", cfg.APIBase, "Game Review Hub API base URL")
	anonymous := flag.Bool("anonymous-reviews", cfg.AnonymousReviews, "Allow posting reviews without logging in")
	debug := flag.Bool("debug", cfg.Debug, "Log every API request")
	flag.Parse()

	opts := []apiclient.Option{apiclient.WithTimeout(cfg.HTTPTimeout)}
	if *debug {
		opts = append(opts, apiclient.WithLogger(log.New(os.Stderr, "api: ", log.LstdFlags)))
	}
	client := apiclient.New(*apiBase, nil, opts...)

	srv, err := web.New(web.Options{
		API:              client,
		SessionKey:       []byte(cfg.SessionKey),
		SecureCookies:    cfg.SecureCookies,
		AllowedOrigins:   cfg.AllowedOrigins,
		PageSize:         cfg.PageSize,
		AnonymousReviews: *anonymous,
	})
	if err != nil {
		log.Fatalf("Failed to initialize web shell: %v", err)
	}

	log.Printf("Game Review Hub starting on http://localhost:%s", *port)
	log.Printf("API: %s", client.BaseURL())

	if err := http.ListenAndServe(":"+*port, srv); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
