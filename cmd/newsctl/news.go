package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/newsroom/internal/client"
	"github.com/sakif/newsroom/internal/model"
)

func newHeadlinesCmd(a *app) *cobra.Command {
	var country string
	cmd := &cobra.Command{
		Use:   "headlines",
		Short: "Top headlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var page client.Page[[]model.Article]
			if err := page.Load(cmd.Context(), func(ctx context.Context) ([]model.Article, error) {
				return a.api.Headlines(ctx, country)
			}); err != nil {
				return err
			}
			printArticles(cmd.OutOrStdout(), page.Data())
			return nil
		},
	}
	cmd.Flags().StringVar(&country, "country", "", "two-letter country code (server default: us)")
	return cmd
}

func newPersonalizedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "personalized",
		Short: "Headlines matching your saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			var page client.Page[[]model.Article]
			if err := page.Load(cmd.Context(), a.api.Personalized); err != nil {
				return err
			}
			printArticles(cmd.OutOrStdout(), page.Data())
			return nil
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Search all articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var page client.Page[[]model.Article]
			if err := page.Load(cmd.Context(), func(ctx context.Context) ([]model.Article, error) {
				return a.api.Search(ctx, query)
			}); err != nil {
				return err
			}
			printArticles(cmd.OutOrStdout(), page.Data())
			return nil
		},
	}
}

func printArticles(w io.Writer, articles []model.Article) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTITLE\tURL")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Source, truncate(a.Title, 70), a.URL)
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
