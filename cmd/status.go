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
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kalimax/kalimax/internal/corpus"
	"github.com/kalimax/kalimax/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status <id> <draft|reviewed|approved>",
	Short: "Advance the curation status of a record",
	Long: `Move a corpus, high-risk or profanity record forward in the curation
lifecycle draft -> reviewed -> approved. Moving a record backwards is refused.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		next, err := corpus.ParseStatus(args[1])
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		prev, err := st.AdvanceStatus(ctx, args[0], next)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("no record with id %q", args[0])
		case errors.Is(err, store.ErrAmbiguousID):
			return fmt.Errorf("id %q is used by several tables; fix the ids before advancing it: %w", args[0], err)
		case err != nil:
			return err
		}
		log.Info("status advanced", zap.String("id", args[0]), zap.String("from", string(prev)), zap.String("to", string(next)))
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", args[0], prev, next)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
