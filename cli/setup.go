// Package cli implements the appcore command surface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/appcore/config"
	"github.com/petal-labs/appcore/prefs"
)

// addConfigFlag registers the shared --config flag on a command group.
func addConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Path to a config file (default: discovery)")
}

// loadConfig resolves the effective configuration for a command:
// the --config flag if set, otherwise discovery, otherwise defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	explicit, _ := cmd.Flags().GetString("config")

	path, found, err := config.Discover(explicit)
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	if !found {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	return cfg, nil
}

// openStore opens the preference store named by the configuration.
func openStore(cfg config.Config) (*prefs.Store, error) {
	switch cfg.Prefs.Backend {
	case "", "memory":
		return prefs.NewStore(prefs.NewMemBackend()), nil
	case "badger":
		path := cfg.Prefs.Path
		if path == "" {
			var err error
			path, err = prefs.DefaultPath("appcore")
			if err != nil {
				return nil, exitError(exitStore, "resolving store path: %v", err)
			}
		}
		backend, err := prefs.OpenBadger(path)
		if err != nil {
			return nil, exitError(exitStore, "opening store at %s: %v", path, err)
		}
		return prefs.NewStore(backend), nil
	case "redis":
		backend, err := prefs.OpenRedis(prefs.RedisConfig{
			Addr:     cfg.Prefs.Redis.Addr,
			Password: cfg.Prefs.Redis.Password,
			DB:       cfg.Prefs.Redis.DB,
		})
		if err != nil {
			return nil, exitError(exitStore, "connecting to redis: %v", err)
		}
		return prefs.NewStore(backend), nil
	default:
		return nil, exitError(exitConfig, "unsupported prefs backend %q", cfg.Prefs.Backend)
	}
}
