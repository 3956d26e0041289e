// Command kbguard keeps the legal knowledge base consistent: it flags
// duplicate and contradictory documents and warns about citations of
// repealed texts.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/agenthands/kbguard/internal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "kbguard",
	Short: "Duplicate, contradiction and abrogation checks for the legal knowledge base",
	Long: `kbguard runs two pipelines over the legal knowledge base.

The duplicate pipeline screens a document against the vector index, labels
near-identical neighbours as duplicates and asks an LLM whether the
ambiguous ones contradict it. The abrogation pipeline extracts legal
references from free text and matches them against the registry of
repealed texts.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "config/kbguard.toml", "TOML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, analyzeCmd, relationsCmd, extractCmd, abrogationsCmd, seedCmd, listenCmd, callsCmd)
}

func initConfig() {
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "Loaded .env")
	}
	viper.SetEnvPrefix("KBGUARD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the config file when it exists, then applies KBGUARD_*
// overrides. A missing default file falls back to built-in defaults.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	} else if rootCmd.PersistentFlags().Changed("config") {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
