package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/winnerx0/jille-client/internal/api"
	"github.com/winnerx0/jille-client/internal/model"
	"github.com/winnerx0/jille-client/internal/results"
)

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Create, list, inspect, and delete polls",
}

var flagExpiresIn time.Duration

var pollCreateCmd = &cobra.Command{
	Use:   "create <title> <option>...",
	Short: "Create a poll with at least two options",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := client.CreatePoll(cmd.Context(), model.CreatePollRequest{
			Title:     args[0],
			Options:   args[1:],
			ExpiresAt: time.Now().Add(flagExpiresIn),
		})
		if err != nil {
			return err
		}
		fmt.Println("poll created")
		return nil
	},
}

var pollListCmd = &cobra.Command{
	Use:   "list",
	Short: "List polls visible to you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		polls, err := client.ListPolls(cmd.Context())
		if err != nil {
			return err
		}
		if len(polls) == 0 {
			fmt.Println("no polls")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tVOTES\tSTATUS\tVOTED")
		now := time.Now()
		for _, p := range polls {
			res := results.Aggregate(&p)
			status := "open"
			if !p.Active(now) {
				status = "closed"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%v\n", p.ID, p.Title, res.TotalVotes, status, p.Voted)
		}
		return w.Flush()
	},
}

var pollShowCmd = &cobra.Command{
	Use:   "show <pollID>",
	Short: "Show a poll and its options",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		poll, err := client.GetPoll(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderPoll(poll)
		return nil
	},
}

var pollDeleteCmd = &cobra.Command{
	Use:   "delete <pollID>",
	Short: "Delete a poll you created",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := client.DeletePoll(cmd.Context(), args[0])
		if errors.Is(err, api.ErrForbidden) {
			return fmt.Errorf("only the poll creator can delete it")
		}
		if err != nil {
			return err
		}
		fmt.Println("poll deleted")
		return nil
	},
}

var voteCmd = &cobra.Command{
	Use:   "vote <pollID> <optionID>",
	Short: "Cast your vote on a poll",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := client.Vote(cmd.Context(), model.VoteRequest{
			PollID:   args[0],
			OptionID: args[1],
		})
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

// renderPoll prints an aggregated results table for a snapshot.
func renderPoll(poll *model.Poll) {
	res := results.Aggregate(poll)

	fmt.Printf("%s  (%d votes)\n", poll.Title, res.TotalVotes)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, opt := range res.Options {
		marker := ""
		if opt.Winner {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d%%\t%s\n", opt.ID, opt.Name, opt.Votes, opt.Percentage, marker)
	}
	w.Flush()
}

func init() {
	pollCreateCmd.Flags().DurationVar(&flagExpiresIn, "expires-in", 24*time.Hour, "how long the poll accepts votes")
	pollCmd.AddCommand(pollCreateCmd, pollListCmd, pollShowCmd, pollDeleteCmd)
}
