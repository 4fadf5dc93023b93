package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/greenscope/greenscope-api/internal/delivery"
	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/notification"
	"github.com/greenscope/greenscope-api/internal/properties"
	"github.com/greenscope/greenscope-api/internal/raster"
	"github.com/greenscope/greenscope-api/internal/sentinel"
)

func main() {
	properties.LoadDotenv(".env", "../.env")

	cfg, err := properties.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if cfg.Copernicus.ClientID == "" || cfg.Copernicus.ClientSecret == "" {
		log.Fatal("missing CDSE_CLIENT_ID or CDSE_CLIENT_SECRET; check the .env file")
	}

	client := sentinel.NewClient(cfg.Copernicus)
	var catalog ndvi.Catalog = client
	if cfg.Output.CacheDir != "" {
		catalog = sentinel.NewCachedCatalog(client, cfg.Output.CacheDir)
	}

	svc := &delivery.Service{
		Catalog:   catalog,
		Fetcher:   client,
		Exporter:  raster.Exporter{},
		Limits:    cfg.Limits,
		OutputDir: cfg.Output.Dir,
	}
	handler := &delivery.Handler{
		Service:  svc,
		Notifier: notification.NewNotifier(cfg.Discord),
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("NDVI service listening on %s, output dir %s", addr, cfg.Output.Dir)
	if err := http.ListenAndServe(addr, handler.Router()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
