// Package commands wires the CLI surface over the accounting core.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-books/inkwell/books"
	memstore "github.com/inkwell-books/inkwell/books/store"
	"github.com/inkwell-books/inkwell/config"
	"github.com/inkwell-books/inkwell/store/sqlite"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "inkwell",
		Short: "Double-entry bookkeeping with stock costing",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to inkwell.yaml (optional)")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newReportCommand(&configPath))

	return rootCmd
}

// loadConfig reads the configuration file, or returns the defaults when
// no path was given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore builds the configured store. The caller owns closeFn.
func openStore(cfg *config.Config) (books.TxStore, func() error, error) {
	switch cfg.Store.Driver {
	case "memory":
		return memstore.NewMemory(), func() error { return nil }, nil
	case "sqlite":
		st, err := sqlite.New(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return st, st.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
