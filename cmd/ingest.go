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
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalimax/kalimax/internal/detector"
	"github.com/kalimax/kalimax/internal/ingest"
	"github.com/kalimax/kalimax/internal/metrics"
	"github.com/kalimax/kalimax/internal/validator"
)

var (
	ingestSource      string
	ingestNoLangCheck bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <kind> <file.csv>...",
	Short: "Import curated CSV sheets into the corpus",
	Long: `Import CSV sheets of one entity kind into the corpus database.

Kinds: ` + strings.Join(kindNames(), ", ") + `

Every text column is normalized on the way in and the dosage flag is set
when a row reads like a medication instruction. Each file is imported in a
single transaction: an unknown enum value aborts the whole file, while rows
with other problems are skipped and reported.

Example:
  kalimax ingest corpus data/sheets/clinic_visits.csv`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		kind, err := ingest.ParseKind(args[0])
		if err != nil {
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

		var v *validator.Validator
		if !ingestNoLangCheck {
			v = validator.New(detector.New())
		}

		m := metrics.NewRun("ingest")
		defer finishMetrics(m)
		importer := ingest.New(st, norm, v, log, cfg.Ingest)

		for _, path := range args[1:] {
			res, err := importFile(cmd, importer, kind, path)
			if err != nil {
				m.AddIngested(string(kind), "failed", 1)
				return err
			}
			m.AddIngested(string(kind), "imported", res.Imported)
			m.AddIngested(string(kind), "duplicate", res.Duplicates)
			m.AddIngested(string(kind), "skipped", res.Skipped)

			fmt.Fprintf(cmd.OutOrStdout(), "%s: read=%d imported=%d duplicates=%d skipped=%d dosage_flagged=%d risk_flagged=%d language_warnings=%d\n",
				path, res.Read, res.Imported, res.Duplicates, res.Skipped, res.DosageFlagged, res.RiskFlagged, res.LanguageWarnings)
		}
		return nil
	},
}

func importFile(cmd *cobra.Command, importer *ingest.Importer, kind ingest.Kind, path string) (*ingest.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	source := ingestSource
	if source == "" {
		source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return importer.Import(cmd.Context(), kind, f, source)
}

func kindNames() []string {
	names := make([]string, len(ingest.Kinds))
	for i, k := range ingest.Kinds {
		names[i] = string(k)
	}
	return names
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	flags := ingestCmd.Flags()
	flags.StringVar(&ingestSource, "source", "", "Provenance for rows without one (default: file name)")
	flags.BoolVar(&ingestNoLangCheck, "no-language-check", false, "Skip language identification warnings")
	flags.Int("workers", 0, "Normalization workers (0 = GOMAXPROCS)")

	bindFlag("ingest.workers", flags.Lookup("workers"))
}
