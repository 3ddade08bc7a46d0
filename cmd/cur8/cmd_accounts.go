package main

import (
	"errors"
	"fmt"

	"cur8/cmd/cur8/ui"
	"cur8/internal/curation"
	"cur8/internal/dispatch"
	"cur8/internal/types"

	"github.com/spf13/cobra"
)

var (
	accountDelay   string
	accountWeight  int
	accountPerDay  int
	listRefresh    bool
	listWithPosts  bool
	clearConfirmed bool
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"users"},
	Short:   "Manage tracked accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked accounts of the active platform",
	Args:  cobra.NoArgs,
	RunE:  withApp(listAccounts),
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <handle>",
	Short: "Track an account",
	Long: `Adds an account to the local mirror and syncs it to the bot server.
The account must exist on the active platform.

Example:
  cur8 accounts add alice --delay 15 --weight 50 --per-day 2
  cur8 --platform hive accounts add bob --delay auto`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(addAccount),
}

var accountsEditCmd = &cobra.Command{
	Use:   "edit <handle>",
	Short: "Change the voting settings of an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(editAccount),
}

var accountsDeleteCmd = &cobra.Command{
	Use:     "delete <handle>",
	Aliases: []string{"rm"},
	Short:   "Stop tracking an account",
	Args:    cobra.ExactArgs(1),
	RunE:    withApp(deleteAccount),
}

var accountsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every tracked account, locally and on the server",
	Args:  cobra.NoArgs,
	RunE:  withApp(clearAccounts),
}

var accountsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replace the local mirror with the server's account list",
	Args:  cobra.NoArgs,
	RunE:  withApp(syncAccounts),
}

func init() {
	accountsListCmd.Flags().BoolVar(&listRefresh, "refresh", false, "Load the account list from the server first")
	accountsListCmd.Flags().BoolVar(&listWithPosts, "posts", false, "Show each account's latest post")

	for _, c := range []*cobra.Command{accountsAddCmd, accountsEditCmd} {
		c.Flags().StringVar(&accountDelay, "delay", "auto", `Vote delay in minutes (1-1440) or "auto"`)
		c.Flags().IntVar(&accountWeight, "weight", types.MaxVoteWeight, "Vote weight percent (1-100)")
		c.Flags().IntVar(&accountPerDay, "per-day", types.MinVotesPerDay, "Maximum votes per day (1-10)")
	}

	accountsClearCmd.Flags().BoolVar(&clearConfirmed, "yes", false, "Confirm removing all accounts")

	accountsCmd.AddCommand(
		accountsListCmd,
		accountsAddCmd,
		accountsEditCmd,
		accountsDeleteCmd,
		accountsClearCmd,
		accountsSyncCmd,
	)
}

func listAccounts(cmd *cobra.Command, args []string, a *app) error {
	ctx := cmd.Context()
	if listRefresh {
		if _, err := a.do(ctx, dispatch.Message{Intent: dispatch.IntentLoadAccounts}); err != nil {
			return err
		}
	}

	visible := a.coord.Visible()
	var posts map[string]ui.PostSlot
	if listWithPosts {
		posts = make(map[string]ui.PostSlot, len(visible))
		for _, acc := range visible {
			out, err := a.do(ctx, dispatch.Message{Intent: dispatch.IntentLatestPost, Handle: acc.Handle})
			posts[acc.Handle] = ui.LoadedPost(out.Post, err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderAccountList(a.styles, visible, a.coord.Platform(), posts, ""))
	return nil
}

func addAccount(cmd *cobra.Command, args []string, a *app) error {
	delay, err := types.ParseVoteDelay(accountDelay)
	if err != nil {
		return err
	}
	acc := types.TrackedAccount{
		Handle:      args[0],
		Platform:    a.coord.Platform(),
		VoteDelay:   delay,
		VoteWeight:  accountWeight,
		VotesPerDay: accountPerDay,
	}
	out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentAddAccount, Account: acc})
	if err != nil {
		return err
	}
	printSync(cmd, out.Sync)
	return nil
}

func editAccount(cmd *cobra.Command, args []string, a *app) error {
	var edit curation.AccountEdit
	flags := cmd.Flags()
	if flags.Changed("delay") {
		delay, err := types.ParseVoteDelay(accountDelay)
		if err != nil {
			return err
		}
		edit.VoteDelay = &delay
	}
	if flags.Changed("weight") {
		edit.VoteWeight = &accountWeight
	}
	if flags.Changed("per-day") {
		edit.VotesPerDay = &accountPerDay
	}
	if edit.VoteDelay == nil && edit.VoteWeight == nil && edit.VotesPerDay == nil {
		return errors.New("nothing to change: pass --delay, --weight or --per-day")
	}

	out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentEditAccount, Handle: args[0], Edit: edit})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderCard(a.styles, *out.Account, ui.PostSlot{State: ui.PostHidden}, false))
	printSync(cmd, out.Sync)
	return nil
}

func deleteAccount(cmd *cobra.Command, args []string, a *app) error {
	out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentDeleteAccount, Handle: args[0]})
	if err != nil {
		return err
	}
	printSync(cmd, out.Sync)
	return nil
}

func clearAccounts(cmd *cobra.Command, args []string, a *app) error {
	if !clearConfirmed {
		return errors.New("refusing to remove every account without --yes")
	}
	_, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentClearAccounts})
	return err
}

func syncAccounts(cmd *cobra.Command, args []string, a *app) error {
	out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentLoadAccounts})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d accounts loaded from %s\n", a.coord.Accounts().Len(), out.Source)
	return nil
}

func printSync(cmd *cobra.Command, r *curation.SyncResult) {
	if r == nil {
		return
	}
	if r.OK {
		fmt.Fprintf(cmd.OutOrStdout(), "server sync: %s @%s ok\n", r.Op, r.Handle)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "server sync: %s @%s failed after %d attempt(s): %s\n", r.Op, r.Handle, r.Attempts, r.Error)
}
