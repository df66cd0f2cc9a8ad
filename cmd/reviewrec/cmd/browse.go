package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"reviewrec/internal/tui"
)

func newBrowseCmd(root *rootOptions) *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse similar reviews in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmd.Context(), root, k)
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 0, "Number of results per query (default recommender.top_k)")
	return cmd
}

func runBrowse(ctx context.Context, root *rootOptions, k int) error {
	rec, err := buildRecommender(ctx, root.cfg)
	if err != nil {
		return err
	}
	if k <= 0 {
		k = root.cfg.Recommender.TopK
	}
	stats := rec.Stats()
	p := tea.NewProgram(tui.New(rec, k, summary(stats.Reviews, stats.Movies)), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// summary renders "12 reviews: FC 7, INT 5".
func summary(reviews int, movies map[string]int) string {
	ids := make([]string, 0, len(movies))
	for id := range movies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s %d", id, movies[id])
	}
	return fmt.Sprintf("%d reviews: %s", reviews, strings.Join(parts, ", "))
}
