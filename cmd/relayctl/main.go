// Command relayctl is a terminal client for the chat relay.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type options struct {
	server      string
	sessionFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "relayctl",
		Short:         "Chat relay client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("RELAYCTL_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", server, "relay base URL")
	root.PersistentFlags().StringVar(&opts.sessionFile, "session-file", defaultSessionFile(), "file holding the session carrier")

	root.AddCommand(
		newLoginCmd(opts, false),
		newLoginCmd(opts, true),
		newLogoutCmd(opts),
		newChatCmd(opts),
		newHistoryCmd(opts),
		newVoteCmd(opts),
		newVotesCmd(opts),
		newDeleteCmd(opts),
		newCitationCmd(opts),
	)
	return root
}

// client builds a Client from the saved session.
func (o *options) client() (*Client, error) {
	carrier, err := loadCarrier(o.sessionFile)
	if err != nil {
		return nil, err
	}
	if carrier == "" {
		return nil, fmt.Errorf("not logged in; run relayctl login")
	}
	return NewClient(o.server, carrier), nil
}
