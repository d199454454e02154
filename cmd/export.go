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
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/export"
	"github.com/kalimax/kalimax/internal/metrics"
)

var (
	exportDryRun          bool
	exportExpressionsOut  string
	exportMonolingualOut  string
	exportMonolingualLang string
	exportMarkCorrections bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export training records as JSONL",
	Long: `Export the curated corpus as newline-delimited JSON training records.

Every eligible record at or above --status is normalized, prefixed with
control tokens and weighted. Challenge-set items are never exported.

Formats:
  two_row     one record per target variant, ids suffixed _literal/_localized
  mode_token  one record per variant sharing the id, with a <mode:...> token

A dry run prints at most 200 records to stdout and writes no files.
Validation failures (unknown enum values, bad options) abort the run before
any output is written.

Example:
  kalimax export --status reviewed --format mode_token --output data/train.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		status, err := corpus.ParseStatus(cfg.Export.MinStatus)
		if err != nil {
			return fmt.Errorf("%w: %w", export.ErrInvalidOptions, err)
		}
		format, err := export.ParseFormat(cfg.Export.Format)
		if err != nil {
			return err
		}
		opts := export.Options{
			MinStatus: status,
			Limit:     cfg.Export.Limit,
			Format:    format,
			DryRun:    exportDryRun,
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		norm, err := buildNormalizer(ctx, st)
		if err != nil {
			return err
		}

		m := metrics.NewRun("export")
		defer finishMetrics(m)
		exp := export.New(st, norm, log, m)

		var summary *export.Summary
		run := func(w io.Writer) error {
			s, err := exp.Run(ctx, opts, w)
			summary = s
			return err
		}
		if exportDryRun {
			err = run(cmd.OutOrStdout())
		} else {
			err = export.WriteFile(cfg.Export.Output, run)
		}
		if summary != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "Summary:", summary)
		}
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if exportDryRun {
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d records to %s\n", summary.Emitted, cfg.Export.Output)

		if exportMarkCorrections && len(summary.CorrectionIDs) > 0 {
			n, err := st.MarkCorrectionsUsed(ctx, summary.CorrectionIDs)
			if err != nil {
				return fmt.Errorf("failed to mark corrections: %w", err)
			}
			log.Info("corrections marked used", zap.Int64("count", n))
		}

		if exportExpressionsOut != "" {
			var n int
			err := export.WriteFile(exportExpressionsOut, func(w io.Writer) error {
				var err error
				n, err = exp.ExportExpressions(ctx, w)
				return err
			})
			if err != nil {
				return fmt.Errorf("expressions export failed: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d expression records to %s\n", n, exportExpressionsOut)
		}

		if exportMonolingualOut != "" {
			lang, err := corpus.ParseLanguage(exportMonolingualLang)
			if err != nil {
				return fmt.Errorf("%w: %w", export.ErrInvalidOptions, err)
			}
			var n int
			err = export.WriteFile(exportMonolingualOut, func(w io.Writer) error {
				var err error
				n, err = exp.ExportMonolingual(ctx, lang, w)
				return err
			})
			if err != nil {
				return fmt.Errorf("monolingual export failed: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d %s records to %s\n", n, lang, exportMonolingualOut)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.String("status", "", "Minimum curation status: draft, reviewed, approved (default approved)")
	flags.Int("limit", 0, "Maximum number of eligible source records (0 = no limit)")
	flags.String("format", "", "Output format: two_row or mode_token (default two_row)")
	flags.StringP("output", "o", "", "Output JSONL file (default data/export/train.jsonl)")
	flags.BoolVar(&exportDryRun, "dry-run", false, "Preview up to 200 records on stdout without writing files")
	flags.StringVar(&exportExpressionsOut, "expressions-out", "", "Also export idiomatic expressions to this file")
	flags.StringVar(&exportMonolingualOut, "monolingual-out", "", "Also export monolingual text to this file")
	flags.StringVar(&exportMonolingualLang, "lang", string(corpus.LangCreole), "Language of the monolingual export")
	flags.BoolVar(&exportMarkCorrections, "mark-corrections", false, "Flag exported corrections as used for retraining")

	bindFlag("export.min_status", flags.Lookup("status"))
	bindFlag("export.limit", flags.Lookup("limit"))
	bindFlag("export.format", flags.Lookup("format"))
	bindFlag("export.output", flags.Lookup("output"))
}
