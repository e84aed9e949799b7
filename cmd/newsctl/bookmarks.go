package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/newsroom/internal/client"
	"github.com/sakif/newsroom/internal/model"
)

func newBookmarksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bookmarks",
		Aliases: []string{"bm"},
		Short:   "Manage saved articles",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// cobra runs only the nearest PersistentPreRunE.
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return a.requireLogin()
		},
	}
	cmd.AddCommand(
		newBookmarksListCmd(a),
		newBookmarksAddCmd(a),
		newBookmarksRemoveCmd(a),
		newBookmarksToggleCmd(a),
	)
	return cmd
}

func newBookmarksListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.Bookmarks(cmd.Context())
			if err != nil {
				return err
			}
			printBookmarks(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

type articleFlags struct {
	title       string
	description string
	image       string
}

func (f *articleFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "article title (defaults to the URL)")
	cmd.Flags().StringVar(&f.description, "description", "", "article description")
	cmd.Flags().StringVar(&f.image, "image", "", "article image URL")
}

// article builds the payload; the article id is the URL, as on the server.
func (f *articleFlags) article(url string) model.Article {
	title := f.title
	if title == "" {
		title = url
	}
	return model.Article{
		ArticleID:   url,
		Title:       title,
		Description: f.description,
		URL:         url,
		Image:       f.image,
	}
}

func newBookmarksAddCmd(a *app) *cobra.Command {
	flags := &articleFlags{}
	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Bookmark an article",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.AddBookmark(cmd.Context(), flags.article(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Article bookmarked!")
			printBookmarks(cmd.OutOrStdout(), list)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newBookmarksRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <article-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.RemoveBookmark(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Bookmark removed!")
			printBookmarks(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

// toggle goes through BookmarkSet, so a failed call leaves the local view
// exactly as it was before.
func newBookmarksToggleCmd(a *app) *cobra.Command {
	flags := &articleFlags{}
	cmd := &cobra.Command{
		Use:   "toggle <url>",
		Short: "Bookmark an article, or remove it if already saved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := client.NewBookmarkSet(a.api)
			if err := set.Refresh(cmd.Context()); err != nil {
				return err
			}

			saved, err := set.Toggle(cmd.Context(), flags.article(args[0]))
			if err != nil {
				return err
			}
			if saved {
				fmt.Fprintln(cmd.OutOrStdout(), "Article bookmarked!")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Bookmark removed!")
			}
			printBookmarks(cmd.OutOrStdout(), set.Items())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printBookmarks(w io.Writer, list []model.Bookmark) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No bookmarks yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SAVED\tTITLE\tARTICLE ID")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.CreatedAt.Local().Format("2006-01-02"), truncate(b.Title, 60), b.ArticleID)
	}
	tw.Flush()
}
