// Package main - Entry point for the visualization-tools render server
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/Shopify/visualization-tools/api"
	"github.com/Shopify/visualization-tools/internal/config"
	"github.com/Shopify/visualization-tools/internal/logging"
)

const version = "0.1.0"

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	cfgPath := flag.String("config", config.DefaultPath(), "Path to the JSON config")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		log.Fatal(err)
	}
	defer logging.Sync()

	// Create API server
	apiServer := api.NewServer(version, cfg, logging.Logger)

	mux := http.NewServeMux()
	mux.Handle("/api/", http.StripPrefix("/api", apiServer))

	fmt.Printf("visualization-tools server v%s\n", version)
	fmt.Printf("   API: http://localhost%s/api\n", *addr)
	logging.Info("listening", zap.String("addr", *addr))

	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}
