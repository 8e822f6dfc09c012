// File path: cmd/cronoplan/main.go
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jvaldebenito/cronoplan/internal/api"
	"github.com/jvaldebenito/cronoplan/internal/common"
	"github.com/jvaldebenito/cronoplan/internal/dataset"
	"github.com/jvaldebenito/cronoplan/internal/sqlite"
)

func main() {
	logger := common.Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("cronoplan: .env file not loaded", "error", err)
	} else {
		logger.Info("cronoplan: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	timezone := flag.String("tz", envDefault("CRONOPLAN_TIMEZONE", "America/Santiago"), "zone used for the as-of date in derivations")
	backend := flag.String("store", envDefault("CRONOPLAN_STORE", "memory"), "dataset store backend: memory or sqlite")
	catalogPath := flag.String("catalog", envDefault("CRONOPLAN_CATALOG_PATH", defaultCatalogPath()), "path to the SQLite catalog (sqlite backend)")
	ttl := flag.Duration("ttl", dataset.DefaultTTL, "dataset lifetime in the memory store")
	maxDatasets := flag.Int("max-datasets", dataset.DefaultMaxDatasets, "capacity bound of the memory store")
	flag.Parse()

	logger.Info("cronoplan: startup initiated", "addr", *addr, "store", *backend, "tz", *timezone)

	loc, err := time.LoadLocation(strings.TrimSpace(*timezone))
	if err != nil {
		logger.Error("cronoplan: invalid timezone", "tz", *timezone, "error", err)
		fmt.Println("timezone error:", err)
		os.Exit(1)
	}

	var store dataset.Store
	switch strings.ToLower(strings.TrimSpace(*backend)) {
	case "", "memory":
		store = dataset.NewMemoryStore(*ttl, *maxDatasets)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(*catalogPath), 0o755); err != nil {
			logger.Error("cronoplan: create catalog dir failed", "error", err)
			fmt.Println("catalog error:", err)
			os.Exit(1)
		}
		catalog, err := sqlite.Open(*catalogPath, loc)
		if err != nil {
			logger.Error("cronoplan: catalog open failed", "path", *catalogPath, "error", err)
			fmt.Println("catalog error:", err)
			os.Exit(1)
		}
		defer catalog.Close()
		store = catalog
	default:
		logger.Error("cronoplan: unknown store backend", "store", *backend)
		fmt.Println("unknown store backend:", *backend)
		os.Exit(1)
	}

	cfg := api.DefaultConfig()
	cfg.Timezone = strings.TrimSpace(*timezone)
	server, err := api.NewServer(store, &cfg)
	if err != nil {
		logger.Error("cronoplan: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("cronoplan: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("cronoplan: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}

func defaultCatalogPath() string {
	return filepath.Join("data", "catalog.db")
}

func envDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
