package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkgate/pkg/cache"
	"github.com/inkwell-ai/inkgate/pkg/cache/sqlite"
	"github.com/inkwell-ai/inkgate/pkg/config"
	"github.com/inkwell-ai/inkgate/pkg/gateway"
	"github.com/inkwell-ai/inkgate/pkg/provider"
	"github.com/inkwell-ai/inkgate/pkg/usage"
)

var version = "dev"

func main() {
	// Provider keys usually live in .env during development; missing file is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "inkgate",
		Short:   "Inkgate — request gateway for AI text-generation providers",
		Version: version,
	}

	root.AddCommand(
		newAskCmd(),
		newStatsCmd(),
		newCostCmd(),
		newCacheCmd(),
		newProvidersCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openGateway wires the full pipeline: cache tiers, usage log, provider
// registry, and the orchestrator. The returned cleanup closes everything in
// reverse order.
func openGateway(cfg *config.Config) (*gateway.Gateway, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var tiered *cache.Tiered
	if cfg.Cache.Enabled {
		store, err := sqlite.New(cfg.DBPath, cfg.Cache.CompressionThreshold)
		if err != nil {
			return nil, nil, fmt.Errorf("init cache: %w", err)
		}
		tiered = cache.NewTiered(store, int64(cfg.Cache.MemoryLimitMB)<<20, cfg.Cache.TTL)
		closers = append(closers, func() { _ = tiered.Close() })
	}

	ul, err := usage.New(cfg.DBPath)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("init usage log: %w", err)
	}
	closers = append(closers, func() { _ = ul.Close() })

	reg := provider.NewRegistry(cfg, provider.Options{
		Timeout:    cfg.Request.Timeout,
		MaxRetries: cfg.Request.MaxRetries,
	})

	g := gateway.New(cfg, tiered, reg, ul, nil)
	closers = append(closers, g.Close)

	return g, cleanup, nil
}
