// Package config provides configuration helpers shared by the CLI
// commands: defaults, and path expansion for values read from the
// config file.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SetDefaults registers the fallback values for every setting the
// commands read. Anything in the config file or environment overrides
// these.
func SetDefaults() {
	viper.SetDefault("database.path", "~/.local/share/tally/tally.db")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("ledger.slow_query_threshold", "500ms")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// ExpandPath expands a leading ~ and any $VAR references in a path
// taken from configuration.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}
