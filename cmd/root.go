/*
Copyright © 2025 The Kalimax Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/config"
	"github.com/kalimax/kalimax/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile string

	// v holds defaults, the config file, KALIMAX_* variables and bound flags.
	v   = config.New("")
	cfg *config.Config
	log = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "kalimax",
	Short: "Curate an English/Haitian Creole medical corpus",
	Long: `Kalimax curates bilingual English/Haitian Creole training data.

It ingests curated CSV sheets into a SQLite corpus, normalizes Creole
orthography, tracks curation status and corrections, and exports
newline-delimited JSON training records with control tokens and
sampling weights.

Use "kalimax export --help" for export options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			v.SetConfigFile(cfgFile)
		}
		loaded, err := config.Load(v)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
		if err != nil {
			return err
		}
		log = l.With(zap.String("command", cmd.Name()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Error("command failed", zap.Error(err))
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default: kalimax.yaml in ., ./config or $HOME/.kalimax)")
	flags.String("db", "", "Database path (default ./data/kalimax.db)")
	flags.Bool("debug-sql", false, "Log every SQL query")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-format", "", "Log format: console or json")
	flags.String("metrics-file", "", "Write run metrics in Prometheus textfile format")

	bindFlag("database.path", flags.Lookup("db"))
	bindFlag("database.debug", flags.Lookup("debug-sql"))
	bindFlag("log.level", flags.Lookup("log-level"))
	bindFlag("log.format", flags.Lookup("log-format"))
	bindFlag("metrics.textfile", flags.Lookup("metrics-file"))
}
