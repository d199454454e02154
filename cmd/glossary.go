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
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kalimax/kalimax/internal/corpus"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, list, and delete terminology glossary entries.

Glossary entries pin the Creole term used for an English concept in a
domain. They are sent to the model on every English -> Creole translation.
Taboo entries are replaced by their recommended alternative.`,
}

var glossaryListDomain string

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.ListGlossary(ctx, corpus.Domain(glossaryListDomain))
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("Glossary is empty.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tCREOLE\tENGLISH\tWEIGHT\tALTERNATIVE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Domain, e.CreoleCanonical, strings.Join(e.EnglishEquivalents, ", "),
				e.CulturalWeight, e.RecommendedAlt)
		}
		return w.Flush()
	},
}

var (
	glossaryAddDomain   string
	glossaryAddAliases  []string
	glossaryAddWeight   string
	glossaryAddAlt      string
	glossaryAddNotes    string
	glossaryAddPatients bool
)

var glossaryAddCmd = &cobra.Command{
	Use:   "add <creole-term> <english-term>...",
	Short: "Add a glossary entry",
	Long: `Add a glossary entry mapping one or more English terms to a canonical
Creole term.

Example:
  kalimax glossary add "tansyon" "blood pressure" "hypertension" --domain medical`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		domain, err := corpus.ParseDomain(glossaryAddDomain)
		if err != nil {
			return err
		}
		weight, err := corpus.ParseCulturalWeight(glossaryAddWeight)
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

		entry := &corpus.GlossaryEntry{
			ID:                   "gloss_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
			CreoleCanonical:      norm.Normalize(args[0]),
			EnglishEquivalents:   args[1:],
			Aliases:              glossaryAddAliases,
			Domain:               domain,
			CulturalWeight:       weight,
			PreferredForPatients: glossaryAddPatients,
			RecommendedAlt:       norm.Normalize(glossaryAddAlt),
			Notes:                glossaryAddNotes,
		}
		if err := st.AddGlossaryEntry(ctx, entry); err != nil {
			return fmt.Errorf("failed to add glossary entry: %w", err)
		}
		fmt.Printf("Added %s: [%s] %q -> %q\n", entry.ID, domain, strings.Join(args[1:], ", "), entry.CreoleCanonical)
		return nil
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a glossary entry by ID",
	Long: `Delete a glossary entry by its ID (shown in "kalimax glossary list").

Example:
  kalimax glossary delete gloss_1a2b3c4d`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteGlossaryEntry(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to delete glossary entry: %w", err)
		}
		fmt.Printf("Deleted glossary entry: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryListCmd.Flags().StringVar(&glossaryListDomain, "domain", "", "Filter by domain")

	glossaryAddCmd.Flags().StringVar(&glossaryAddDomain, "domain", string(corpus.DomainMedical), "Domain")
	glossaryAddCmd.Flags().StringSliceVar(&glossaryAddAliases, "aliases", nil, "Other Creole spellings (comma-separated)")
	glossaryAddCmd.Flags().StringVar(&glossaryAddWeight, "weight", string(corpus.WeightNeutral), "Cultural weight: neutral, negative, positive, taboo")
	glossaryAddCmd.Flags().StringVar(&glossaryAddAlt, "alt", "", "Recommended alternative for patient-facing text")
	glossaryAddCmd.Flags().StringVar(&glossaryAddNotes, "notes", "", "Curator notes")
	glossaryAddCmd.Flags().BoolVar(&glossaryAddPatients, "patients", false, "Preferred for patient-facing text")

	glossaryCmd.AddCommand(glossaryListCmd)
	glossaryCmd.AddCommand(glossaryAddCmd)
	glossaryCmd.AddCommand(glossaryDeleteCmd)
}
