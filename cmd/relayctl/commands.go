package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/xiaot623/chatrelay/internal/domain"
	"github.com/xiaot623/chatrelay/internal/stream"
)

var (
	faint   = color.New(color.Faint)
	success = color.New(color.FgGreen)
	warn    = color.New(color.FgYellow)
	bold    = color.New(color.Bold)
)

func newLoginCmd(opts *options, register bool) *cobra.Command {
	var email, password string
	use, short := "login", "Log in and save the session"
	if register {
		use, short = "register", "Create an account and save the session"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("RELAYCTL_PASSWORD")
			}
			c := NewClient(opts.server, "")
			res, err := c.Login(cmd.Context(), register, domain.Credentials{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := saveCarrier(opts.sessionFile, res.Carrier); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", res.User.Email)
			faint.Fprintf(cmd.OutOrStdout(), "session expires %s\n", res.User.ExpiresAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (or RELAYCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			if err := clearCarrier(opts.sessionFile); err != nil {
				return err
			}
			success.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newChatCmd(opts *options) *cobra.Command {
	var chatID, model string
	var useWS bool

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send a message and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if chatID == "" {
				chatID = uuid.NewString()
			}
			req := &domain.ChatRequest{
				ID: chatID,
				Messages: []domain.ClientMessage{{
					ID:      uuid.NewString(),
					Role:    domain.RoleUser,
					Content: strings.Join(args, " "),
				}},
				SelectedChatModel: model,
			}

			out := cmd.OutOrStdout()
			printer := &replyPrinter{out: out}
			if useWS {
				err = c.ChatWS(cmd.Context(), req, printer.handle)
			} else {
				err = c.Chat(cmd.Context(), req, printer.handle)
			}
			if err != nil {
				return err
			}
			if printer.failed != "" {
				return fmt.Errorf("%s", printer.failed)
			}
			faint.Fprintf(out, "chat %s  message %s\n", chatID, printer.messageID)
			return nil
		},
	}
	cmd.Flags().StringVar(&chatID, "chat-id", "", "continue an existing chat")
	cmd.Flags().StringVar(&model, "model", "", "chat model to request")
	cmd.Flags().BoolVar(&useWS, "ws", false, "stream over WebSocket")
	return cmd
}

// replyPrinter writes streamed text as it arrives.
type replyPrinter struct {
	out       io.Writer
	messageID string
	failed    string
}

func (p *replyPrinter) handle(f stream.Frame) error {
	switch f.Type {
	case stream.FrameMessageStart:
		p.messageID = f.MessageID
	case stream.FrameTextDelta:
		fmt.Fprint(p.out, f.Text)
	case stream.FrameFinish:
		fmt.Fprintln(p.out)
		faint.Fprintf(p.out, "tokens: %d prompt, %d completion\n", f.Usage.PromptTokens, f.Usage.CompletionTokens)
	case stream.FrameError:
		p.failed = f.Message
	}
	return nil
}

func newHistoryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List your chats",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			chats, err := c.History(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(chats) == 0 {
				warn.Fprintln(out, "No chats yet")
				return nil
			}
			for _, chat := range chats {
				bold.Fprintf(out, "%s", chat.ID)
				fmt.Fprintf(out, "  %s", chat.Title)
				faint.Fprintf(out, "  %s %s\n", chat.Visibility, chat.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func newVoteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "vote <chat-id> <message-id> <up|down>",
		Short: "Rate an assistant message",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			vote, err := c.Vote(cmd.Context(), domain.VoteRequest{
				ChatID:    args[0],
				MessageID: args[1],
				Type:      domain.VoteType(args[2]),
			})
			if err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Voted %s on %s\n", vote.Type, vote.MessageID)
			return nil
		},
	}
}

func newVotesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "votes <chat-id>",
		Short: "List votes on a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			votes, err := c.Votes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, v := range votes {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", v.MessageID, v.Type)
			}
			return nil
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.DeleteChat(cmd.Context(), args[0]); err != nil {
				return err
			}
			success.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newCitationCmd(opts *options) *cobra.Command {
	var page int
	var chunkID, output string

	cmd := &cobra.Command{
		Use:   "citation <file-path>",
		Short: "Download a cited document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			ev, err := c.Citation(cmd.Context(), domain.CitationRequest{
				FilePath:   args[0],
				PageNumber: page,
				ChunkID:    chunkID,
			})
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(ev.Data)
				return err
			}
			if err := os.WriteFile(output, ev.Data, 0o644); err != nil {
				return err
			}
			success.Fprintf(cmd.ErrOrStderr(), "Wrote %d bytes (%s) to %s\n", len(ev.Data), ev.ContentType, output)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().StringVar(&chunkID, "chunk", "", "chunk id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
