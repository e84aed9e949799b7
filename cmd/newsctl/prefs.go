package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sakif/newsroom/internal/model"
)

func newPrefsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or replace your news preferences",
	}
	cmd.AddCommand(newPrefsGetCmd(a), newPrefsSetCmd(a))
	return cmd
}

func newPrefsGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show saved preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			prefs, err := a.api.Preferences(cmd.Context())
			if err != nil {
				return err
			}
			printPreferences(cmd.OutOrStdout(), prefs)
			return nil
		},
	}
}

// set is a full replacement: a flag left out is stored empty.
func newPrefsSetCmd(a *app) *cobra.Command {
	var (
		categories []string
		sources    []string
		country    string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace preferences (omitted flags are cleared)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			prefs := model.Preferences{Categories: categories, Sources: sources, Country: country}
			saved, err := a.api.UpdatePreferences(cmd.Context(), prefs)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preferences updated successfully")
			printPreferences(cmd.OutOrStdout(), saved)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "comma-separated categories, e.g. technology,science")
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "comma-separated source ids, e.g. bbc-news")
	cmd.Flags().StringVar(&country, "country", "", "two-letter country code")
	return cmd
}

func printPreferences(w io.Writer, p model.Preferences) {
	fmt.Fprintf(w, "categories: %s\n", orNone(strings.Join(p.Categories, ", ")))
	fmt.Fprintf(w, "sources:    %s\n", orNone(strings.Join(p.Sources, ", ")))
	fmt.Fprintf(w, "country:    %s\n", orNone(p.Country))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
