// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the ctb2md CLI, which converts
// CherryTree .ctb notebooks into a Markdown document plus image files.
package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/ctb2md/internal/logging"
	"github.com/pdiddy/ctb2md/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is built from the log flags before any subcommand runs.
var logger = zap.NewNop()

// rootCmd is the base command for the ctb2md CLI.
var rootCmd = &cobra.Command{
	Use:   "ctb2md",
	Short: "Convert CherryTree .ctb documents to Markdown",
	Long: `ctb2md reads a CherryTree SQLite document (.ctb) and writes its node
hierarchy as a single Markdown document. Each node becomes a heading whose
level follows its depth in the tree; embedded images are extracted to an
image directory and referenced inline.

Run with -d to convert directly; the convert subcommand takes the same flags.`,
	Example: `  ctb2md -d notes.ctb -i ./images -o out`,
	SilenceUsage: true,
	RunE:         runConvert,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := types.LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		l, err := logging.New(cfg)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Debug("using config file", zap.String("path", used))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./ctb2md.yaml or ~/.config/ctb2md/ctb2md.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "log format: console or json")

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	addConvertFlags(rootCmd.Flags())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ctb2md")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "ctb2md"))
		}
	}

	viper.SetEnvPrefix("CTB2MD")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and defaults still apply.
	_ = viper.ReadInConfig()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
