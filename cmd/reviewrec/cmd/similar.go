package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"reviewrec/internal/domain"
	"reviewrec/internal/service"
)

type similarOptions struct {
	k      int
	minSim float64
}

func newSimilarCmd(root *rootOptions) *cobra.Command {
	opts := similarOptions{}

	cmd := &cobra.Command{
		Use:   "similar <review_id>",
		Short: "Print the reviews most similar to a review as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var minSim *float64
			if cmd.Flags().Changed("min-sim") {
				minSim = &opts.minSim
			}
			return runSimilar(cmd.Context(), cmd.OutOrStdout(), root, args[0], opts.k, minSim)
		},
	}
	cmd.Flags().IntVarP(&opts.k, "k", "k", 0, "Number of results (default recommender.top_k)")
	cmd.Flags().Float64Var(&opts.minSim, "min-sim", 0, "Minimum semantic similarity (default recommender.min_sim)")
	return cmd
}

func runSimilar(ctx context.Context, out io.Writer, root *rootOptions, id string, k int, minSim *float64) error {
	rec, err := buildRecommender(ctx, root.cfg)
	if err != nil {
		return err
	}
	if k <= 0 {
		k = root.cfg.Recommender.TopK
	}
	results, err := rec.Similar(ctx, service.Query{ReviewID: id, K: k, MinSim: minSim})
	if errors.Is(err, domain.ErrNotFound) {
		if s := rec.Suggest(id, 3); len(s) > 0 {
			return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(s, ", "))
		}
		return err
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]any{
		"review_id": id,
		"top_k":     k,
		"results":   results,
	}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
