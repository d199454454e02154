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
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/normalizer"
	"github.com/kalimax/kalimax/internal/store"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage orthographic normalization rules",
	Long: `Import and list the variant -> canonical rules applied by the
normalizer after contraction expansion.

A rules file is YAML:

  rules:
    - id: rule_mwen
      variant: mwin
      canonical: mwen
      register: informal
      region: port_au_prince`,
}

var rulesImportCmd = &cobra.Command{
	Use:   "import <rules.yaml>",
	Short: "Import or update rules from a YAML file",
	Long: `Import rules from a YAML file. A rule whose variant already exists
replaces the stored one. The merged table is compiled first; duplicate
variants or invalid rules abort the import before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		incoming, err := normalizer.LoadRulesFile(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		stored, err := st.Rules(ctx)
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
		n, err := compileRules(mergeRules(stored, incoming))
		if err != nil {
			return err
		}

		err = st.InTx(ctx, func(tx *store.Tx) error {
			for i := range incoming {
				if err := tx.UpsertRule(ctx, &incoming[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to import rules: %w", err)
		}
		log.Info("rules imported", zap.Int("count", len(incoming)), zap.Int("active", n.RuleCount()))
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rules (%d active, %d dropped as cyclic)\n",
			len(incoming), n.RuleCount(), len(n.Dropped()))
		return nil
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rules, err := st.Rules(ctx)
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}
		if len(rules) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No normalization rules.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tVARIANT\tCANONICAL\tENGLISH\tREGISTER\tREGION")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Variant, r.Canonical, r.EnglishEquivalent, r.Register, r.Region)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesImportCmd)
	rulesCmd.AddCommand(rulesListCmd)
}
