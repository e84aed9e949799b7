// Command newsctl is a terminal client for the newsroom API.
//
//	newsctl login you@example.com
//	newsctl headlines --country gb
//	newsctl bookmarks toggle https://example.com/story --title "Story"
//
// The session (token + profile) is kept in the user config directory and
// dropped automatically once the token expires.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
