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
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/normalizer"
)

var (
	normalizeVariants bool
	normalizeDosage   bool
	normalizeNoDB     bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [text...]",
	Short: "Print the canonical form of Creole text",
	Long: `Normalize text the way ingest and export do: Unicode NFC, quote and
punctuation canonicalization, whitespace collapse, contraction expansion and
the orthographic rule table.

With no arguments, each line of stdin is normalized.

Example:
  kalimax normalize "M’ap pran 2 grenn chak 6 èdtan" --dosage`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			norm *normalizer.Normalizer
			err  error
		)
		if normalizeNoDB {
			var rules []corpus.NormalizationRule
			if cfg.Normalize.RulesFile != "" {
				if rules, err = normalizer.LoadRulesFile(cfg.Normalize.RulesFile); err != nil {
					return err
				}
			}
			norm, err = compileRules(rules)
		} else {
			st, openErr := openStore(ctx)
			if openErr != nil {
				return openErr
			}
			defer st.Close()
			norm, err = buildNormalizer(ctx, st)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) > 0 {
			return printNormalized(out, norm, strings.Join(args, " "))
		}
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if err := printNormalized(out, norm, scanner.Text()); err != nil {
				return err
			}
		}
		return scanner.Err()
	},
}

func printNormalized(w io.Writer, norm *normalizer.Normalizer, text string) error {
	if normalizeVariants {
		for variant := range norm.Variants(text) {
			if _, err := fmt.Fprintln(w, variant); err != nil {
				return err
			}
		}
		return nil
	}

	line := norm.Normalize(text)
	if normalizeDosage {
		line = fmt.Sprintf("%s\tdosage=%t", line, norm.DetectDosagePattern(text))
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	flags := normalizeCmd.Flags()
	flags.BoolVar(&normalizeVariants, "variants", false, "Print every surface variant instead of the canonical form")
	flags.BoolVar(&normalizeDosage, "dosage", false, "Append whether the text reads like a dosage instruction")
	flags.BoolVar(&normalizeNoDB, "no-db", false, "Use only built-in contractions and the configured rules file")
	flags.Bool("case-insensitive", true, "Match rule variants after case folding")
	flags.String("rules-file", "", "YAML rules file merged over the stored rules")

	bindFlag("normalize.case_insensitive", flags.Lookup("case-insensitive"))
	bindFlag("normalize.rules_file", flags.Lookup("rules-file"))
}
