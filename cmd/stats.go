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
	"maps"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts and translation memory usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := st.TableCounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to count rows: %w", err)
		}
		mem, err := st.MemoryStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to get memory stats: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS")
		for _, table := range slices.Sorted(maps.Keys(counts)) {
			fmt.Fprintf(w, "%s\t%d\n", table, counts[table])
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("Memory entries:  %d\n", mem.TotalEntries)
		fmt.Printf("Active entries:  %d\n", mem.ActiveEntries)
		fmt.Printf("Invalid entries: %d\n", mem.InvalidEntries)
		fmt.Printf("Total usage:     %d\n", mem.TotalUsage)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
