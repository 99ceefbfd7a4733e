// Package configpath resolves the sous configuration for a command from the
// root --config and --debug flags.
package configpath

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sous/pkg/config"
)

// Load reads the file named by --config, or the default path when the flag
// is unset or absent, and applies --debug.
func Load(cmd *cobra.Command) (*config.Config, error) {
	path := config.DefaultPath()
	if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
		path = f.Value.String()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("could not load config %s: %w", path, err)
	}

	if f := cmd.Flags().Lookup("debug"); f != nil && f.Changed {
		cfg.Debug = f.Value.String() == "true"
	}

	return cfg, nil
}
