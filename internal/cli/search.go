package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/engram/internal/hybrid"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search memories",
	Long:  "Runs a hybrid lexical/fuzzy/vector search against the memory store, fused via reciprocal rank fusion.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	core, closeFn, err := openCore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results, err := core.Search(ctx, query, hybrid.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no results found")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%d. [%.3f] memory %d\n", i+1, r.Fused, r.Memory.ID)
		fmt.Printf("   %s\n", truncate(r.Memory.Content, 160))
	}
	return nil
}
