package main

import (
	"fmt"

	"cur8/cmd/cur8/ui"
	"cur8/internal/dispatch"

	"github.com/spf13/cobra"
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Daily vote counter",
	Long: `Tracks how many votes each account received today. The counter resets at
local midnight; the server enforces the real limit.`,
}

var voteRecordCmd = &cobra.Command{
	Use:   "record <handle>",
	Short: "Count a vote for an account",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentRecordVote, Handle: args[0]})
		if err != nil {
			return err
		}
		acc := *out.Account
		fmt.Fprintf(cmd.OutOrStdout(), "@%s %s today\n", acc.Handle, ui.VoteBadge(a.styles, acc))
		return nil
	}),
}

var voteStatusCmd = &cobra.Command{
	Use:   "status <handle>",
	Short: "Show whether an account can still be voted today",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentCanVote, Handle: args[0]})
		if err != nil {
			return err
		}
		// CanVoteToday applied the day rollover.
		acc, _ := a.coord.Account(args[0])
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "@%s %s today\n", acc.Handle, ui.VoteBadge(a.styles, acc))
		fmt.Fprintln(w, ui.ProgressBar(a.styles, acc.Progress(), 20))
		if out.CanVote {
			fmt.Fprintln(w, a.styles.Success.Render("can vote"))
		} else {
			fmt.Fprintln(w, a.styles.Warning.Render("daily limit reached"))
		}
		return nil
	}),
}

func init() {
	voteCmd.AddCommand(voteRecordCmd, voteStatusCmd)
}
