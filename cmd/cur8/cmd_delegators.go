package main

import (
	"fmt"

	"cur8/cmd/cur8/ui"
	"cur8/internal/dispatch"

	"github.com/spf13/cobra"
)

var votersMarkdown bool

var delegatorsCmd = &cobra.Command{
	Use:   "delegators",
	Short: "Accounts delegating stake to the curator",
}

var delegatorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the curator's delegators, largest first",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentShowDelegators})
		if err != nil {
			return err
		}
		tracked := func(h string) bool {
			_, ok := a.coord.Account(h)
			return ok
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderDelegators(a.styles, out.Delegators, tracked))
		return nil
	}),
}

var delegatorsImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Track every delegator that is not tracked yet",
	Long: `Imports the curator's delegators as tracked accounts with default
settings. When the server reports a different curator than the one cached
locally, the local accounts are replaced with the server's list first.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentImportDelegators})
		if err != nil {
			return err
		}
		r := out.Report
		fmt.Fprintf(cmd.OutOrStdout(), "added %d, already tracked %d\n", r.Added, r.Skipped)
		if r.CuratorChanged {
			fmt.Fprintf(cmd.OutOrStdout(), "curator changed to @%s\n", a.coord.Curator())
		}
		return nil
	}),
}

var delegatorsAddCmd = &cobra.Command{
	Use:   "add <handle>",
	Short: "Track a single delegator with default settings",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentAddDelegator, Handle: args[0]})
		if err != nil {
			return err
		}
		if res, ok := out.Tasks[0].Wait(cmd.Context()); ok {
			printSync(cmd, &res)
		}
		return nil
	}),
}

var votersCmd = &cobra.Command{
	Use:   "voters <post>",
	Short: "Show who voted on a post and the optimal vote time",
	Long: `Accepts "@author/permlink", "author/permlink" or a post URL from any
front-end.

Example:
  cur8 voters @alice/my-first-post
  cur8 voters https://hive.blog/@alice/my-first-post --markdown`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentShowVoters, PostRef: args[0]})
		if err != nil {
			return err
		}
		if votersMarkdown {
			md := ui.VotersMarkdown(args[0], *out.Voters, cfg.UI.MaxVoters)
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderMarkdown(a.styles.Theme, cfg.UI.WrapWidth, md))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderVoters(a.styles, *out.Voters, cfg.UI.MaxVoters))
		return nil
	}),
}

var postCmd = &cobra.Command{
	Use:   "post <handle>",
	Short: "Show an author's latest post",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentLatestPost, Handle: args[0]})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderLatestPost(a.styles, ui.LoadedPost(out.Post, nil)))
		return nil
	}),
}

func init() {
	votersCmd.Flags().BoolVar(&votersMarkdown, "markdown", false, "Render the report as markdown")
	delegatorsCmd.AddCommand(delegatorsListCmd, delegatorsImportCmd, delegatorsAddCmd)
}
