package main

import (
	"log"

	"github.com/transitlab/traffic-prep-go/internal/api"
	"github.com/transitlab/traffic-prep-go/internal/config"
	"github.com/transitlab/traffic-prep-go/internal/service"
)

func main() {
	cfg := config.Load()

	presets, err := config.LoadPresets(cfg.PresetPath)
	if err != nil {
		log.Fatal("Failed to load loader presets:", err)
	}

	datasets := service.NewDatasetService(cfg.DataDir)
	loaders := service.NewLoaderService(datasets, presets)

	router := api.SetupRouter(cfg, datasets, loaders)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
