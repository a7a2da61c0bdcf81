package main

import (
	"flag"
	"log"
	"os"

	"StockPulse/internal/di"
	"StockPulse/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	log.Printf("starting env=%s cache=%s universe=%d symbols",
		cfg.Environment, cfg.Cache.Backend, len(cfg.Engine.Symbols))

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if err := app.Run(); err != nil {
		log.Printf("run: %v", err)
		os.Exit(1)
	}
}
