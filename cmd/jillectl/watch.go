package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/winnerx0/jille-client/internal/api"
	"github.com/winnerx0/jille-client/internal/livesync"
	"github.com/winnerx0/jille-client/internal/logging"
	"github.com/winnerx0/jille-client/internal/model"
	"github.com/winnerx0/jille-client/pkg/backoff"
)

var watchCmd = &cobra.Command{
	Use:   "watch <pollID>",
	Short: "Watch a poll's results live (creator only)",
	Long: `Watch subscribes to the backend's push stream and re-fetches the poll
whenever a vote lands on it, re-rendering the aggregated results. The
stream is reconnected with exponential backoff if it drops. Stop with
Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pollID := args[0]

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// The initial fetch doubles as the creator check.
		poll, err := client.GetPollView(ctx, pollID)
		if errors.Is(err, api.ErrForbidden) {
			if sub, serr := client.UserSubject(); serr == nil {
				logging.Logger.Debug().Str("user", sub).Str("poll_id", pollID).Msg("watch denied")
			}
			return fmt.Errorf("live results are restricted to the poll creator")
		}
		if err != nil {
			return err
		}
		renderPoll(poll)

		fetch := func(ctx context.Context, id string) (*model.Poll, error) {
			return client.GetPollView(ctx, id)
		}
		apply := func(p *model.Poll) {
			fmt.Println()
			renderPoll(p)
		}

		streamURL := client.BaseURL() + "/api/v1/sse"
		bo := backoff.New(time.Second, 30*time.Second)

		for {
			sub, err := livesync.Open(ctx, client.HTTPClient(), streamURL, pollID, fetch, apply)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				delay := bo.Next()
				logging.Logger.Warn().Err(err).Dur("retry_in", delay).Msg("stream connect failed")
				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return nil
				}
			}
			bo.Reset()

			select {
			case <-sub.Done():
				if ctx.Err() != nil {
					return nil
				}
				delay := bo.Next()
				logging.Logger.Warn().Err(sub.Err()).Dur("retry_in", delay).Msg("stream dropped, reconnecting")
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil
				}
			case <-ctx.Done():
				sub.Close()
				return nil
			}
		}
	},
}
