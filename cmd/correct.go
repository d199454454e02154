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

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
)

var (
	correctInput       string
	correctModelOutput string
	correctCorrection  string
	correctEditor      string
	correctType        string
	correctSeverity    string
	correctSource      string
	correctTarget      string
	correctDomain      string
	correctAudience    string
)

var correctCmd = &cobra.Command{
	Use:   "correct",
	Short: "Record a human correction of a model translation",
	Long: `Append a correction to the audit log. Corrections are immutable; unused
ones join the next export as reviewed records, and the cached translation of
the same input is invalidated.

Example:
  kalimax correct --input "Take with food" --model-output "Pran ak manje" \
    --correction "Pran l ak manje" --editor jdoe --type grammar --severity minor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := languageFlag(correctSource, nil)
		if err != nil {
			return err
		}
		tgt, err := languageFlag(correctTarget, nil)
		if err != nil {
			return err
		}
		if tgt == "" {
			tgt = otherLanguage(src)
		}

		c := &corpus.CorrectionRecord{
			ID:              "corr_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
			Input:           correctInput,
			ModelOutput:     correctModelOutput,
			HumanCorrection: correctCorrection,
			SourceLang:      src,
			TargetLang:      tgt,
			Domain:          corpus.Domain(correctDomain),
			Audience:        corpus.Audience(correctAudience),
			Type:            corpus.CorrectionType(correctType),
			Severity:        corpus.CorrectionSeverity(correctSeverity),
			Editor:          correctEditor,
		}
		if err := c.Validate(); err != nil {
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

		if err := st.AddCorrection(ctx, c); err != nil {
			return fmt.Errorf("failed to add correction: %w", err)
		}
		n, err := st.InvalidateTranslations(ctx, norm.Normalize(c.Input))
		if err != nil {
			return fmt.Errorf("failed to invalidate cached translations: %w", err)
		}
		log.Info("correction recorded",
			zap.String("id", c.ID),
			zap.String("type", string(c.Type)),
			zap.Int64("invalidated", n))
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded correction %s (%d cached translations invalidated)\n", c.ID, n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)

	flags := correctCmd.Flags()
	flags.StringVar(&correctInput, "input", "", "Source text given to the model (required)")
	flags.StringVar(&correctModelOutput, "model-output", "", "What the model produced")
	flags.StringVar(&correctCorrection, "correction", "", "Corrected translation (required)")
	flags.StringVar(&correctEditor, "editor", "", "Who made the correction (required)")
	flags.StringVar(&correctType, "type", string(corpus.CorrectionOther), "terminology, grammar, cultural, safety, fluency, other")
	flags.StringVar(&correctSeverity, "severity", string(corpus.CorrectionMinor), "minor, major, critical")
	flags.StringVarP(&correctSource, "source", "s", string(corpus.LangEnglish), "Source language")
	flags.StringVarP(&correctTarget, "target", "t", "", "Target language (default: the other corpus language)")
	flags.StringVar(&correctDomain, "domain", string(corpus.DomainMedical), "Domain")
	flags.StringVar(&correctAudience, "audience", string(corpus.AudiencePatient), "Audience")

	correctCmd.MarkFlagRequired("input")
	correctCmd.MarkFlagRequired("correction")
	correctCmd.MarkFlagRequired("editor")
}
