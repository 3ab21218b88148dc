package main

import (
	"fmt"
	"log"
	"net/http"

	"docstruct/internal/acquire"
	"docstruct/internal/config"
	"docstruct/internal/handler"
	"docstruct/internal/inference"
	"docstruct/internal/inference/mlx"
	"docstruct/internal/inference/openai"
	"docstruct/internal/port"
	"docstruct/internal/raster"
	"docstruct/internal/router"
	"docstruct/internal/service"
	localstorage "docstruct/internal/storage/local"
	s3storage "docstruct/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func registerProviders() {
	inference.RegisterProvider("mlx", func(cfg *config.InferenceProviderConfig) (port.PageInference, error) {
		return mlx.NewClient(cfg), nil
	})
	inference.RegisterProvider("openai", func(cfg *config.InferenceProviderConfig) (port.PageInference, error) {
		return openai.NewClient(cfg), nil
	})
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registerProviders()

	// Model backends, with optional fallback chain
	model, err := buildInference(&cfg.Inference)
	if err != nil {
		return fmt.Errorf("failed to initialize inference: %w", err)
	}

	// Artifact storage
	storage, err := buildStorage(&cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Input acquisition
	rasterizer := raster.NewPopplerRasterizer(&cfg.Raster)
	fetchClient := &http.Client{Timeout: cfg.Server.FetchTimeout}
	loader := acquire.NewLoader(rasterizer, fetchClient, cfg.Server.MaxFetchBytes)

	// Services
	docSvc := service.NewDocumentService(loader, model, storage, cfg.Inference.Prompt, cfg.Inference.MaxTokens)

	// Handlers
	docH := handler.NewDocumentHandler(docSvc, cfg.Server.MaxUploadMB*1024*1024)
	healthH := handler.NewHealthHandler()
	uiH := handler.NewUIHandler()

	// Setup router
	r := router.Setup(docH, healthH, uiH, cfg.CORS.AllowedOrigins)

	log.Printf("Server starting on %s (model backend: %s)", cfg.Server.Port, cfg.Inference.Primary.Provider)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func buildInference(cfg *config.InferenceConfig) (port.PageInference, error) {
	primary, err := inference.NewInference(&cfg.Primary)
	if err != nil {
		return nil, err
	}

	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := inference.NewInference(secondaryCfg)
	if err != nil {
		return nil, err
	}
	return inference.NewFallbackInference(
		[]port.PageInference{primary, secondary},
		[]string{cfg.Primary.Provider, secondaryCfg.Provider},
	), nil
}

func buildStorage(cfg *config.StorageConfig) (port.ObjectStorage, error) {
	switch cfg.Backend {
	case "s3":
		return s3storage.NewS3Client(cfg)
	case "local", "":
		return localstorage.NewStore(cfg.LocalDir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
