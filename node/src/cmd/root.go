package cmd

import (
	"fmt"
	"os"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "tuplespace",
	Short: "An in-memory tuple space server",
	Long: `A single node in-memory tuple space. Clients PUT, GET and READ
string tuples over a length-prefixed text protocol.`,
	SilenceUsage: true,
}

func ExecuteServer() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "couldn't execute app,", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(startNodeCmd)
	rootCmd.AddCommand(clientCmd)
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (*shared.Config, *shared.Logger, error) {
	cfg, err := shared.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	level, err := shared.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	// Packages that fall back to DefaultLogger follow the configured level too.
	shared.DefaultLogger.SetLevel(level)
	return cfg, shared.DefaultLogger, nil
}
