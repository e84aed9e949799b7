package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/newsroom/internal/client"
)

// app carries what every subcommand needs. It is built once in
// PersistentPreRunE and reached through the command context.
type app struct {
	api     *client.Client
	session *client.Session
}

type rootFlags struct {
	server      string
	sessionPath string
	timeout     time.Duration
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "newsctl",
		Short:         "Browse news, manage preferences and bookmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := flags.sessionPath
			if path == "" {
				var err error
				if path, err = client.DefaultSessionPath(); err != nil {
					return fmt.Errorf("locating session file: %w", err)
				}
			}

			session, err := client.OpenSession(client.NewFileStore(path))
			if err != nil {
				return err
			}
			a.session = session
			a.api = client.New(flags.server, session, client.WithTimeout(flags.timeout))

			cmd.SetContext(client.WithSession(cmd.Context(), session))
			return nil
		},
	}

	defaultServer := os.Getenv("NEWSCTL_SERVER")
	if defaultServer == "" {
		defaultServer = client.DefaultBaseURL
	}
	cmd.PersistentFlags().StringVar(&flags.server, "server", defaultServer, "API base URL (env NEWSCTL_SERVER)")
	cmd.PersistentFlags().StringVar(&flags.sessionPath, "session", "", "session file (default: <config dir>/newsctl/session.json)")
	cmd.PersistentFlags().DurationVar(&flags.timeout, "timeout", client.DefaultTimeout, "per-request timeout")

	cmd.AddCommand(
		newSignupCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newHeadlinesCmd(a),
		newPersonalizedCmd(a),
		newSearchCmd(a),
		newPrefsCmd(a),
		newBookmarksCmd(a),
	)
	return cmd
}

// requireLogin fails early with a friendly message instead of a 401.
func (a *app) requireLogin() error {
	if !a.session.LoggedIn() {
		return fmt.Errorf("not logged in (or the session expired): run `newsctl login <email>`")
	}
	return nil
}
