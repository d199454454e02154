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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/risk"
)

var flagDryRun bool

var flagCmd = &cobra.Command{
	Use:   "flag",
	Short: "Flag draft records that contain high-risk medical terms",
	Long: `Scan every draft corpus and high-risk record for terms whose
mistranslation could harm a patient: emergencies, narrow-margin medication,
pregnancy, and dose or timing instructions, in English and Haitian Creole.

High-risk records get their risk level raised to the highest level found,
the matching safety flags added and human review required. A level is never
lowered. Corpus records have no risk columns; flagged ones are listed so
they can be moved to the high-risk collection.

Example:
  kalimax flag --dry-run`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rep, err := risk.New().FlagDrafts(ctx, st, flagDryRun, log)
		if err != nil {
			return fmt.Errorf("failed to flag records: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tORIGIN\tLEVEL\tTERMS\tRAISED")
		for _, f := range rep.Flagged {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
				f.ID, f.Origin, f.Assessment.Level, strings.Join(f.Assessment.Terms(), ","), f.Raised)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		log.Info("risk flagging complete",
			zap.Int("checked", rep.Checked),
			zap.Int("flagged", len(rep.Flagged)),
			zap.Int("critical", rep.Critical),
			zap.Int("high", rep.High),
			zap.Int("raised", rep.Raised),
			zap.Bool("dry_run", flagDryRun))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(flagCmd)
	flagCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report findings without updating records")
}
