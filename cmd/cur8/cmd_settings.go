package main

import (
	"errors"
	"fmt"
	"strconv"

	"cur8/cmd/cur8/ui"
	"cur8/internal/dispatch"
	"cur8/internal/types"

	"github.com/spf13/cobra"
)

var (
	curatorUsername   string
	curatorPostingKey string
	curatorActiveKey  string
	botAdminIDs       string
	botToken          string
	thresholdMin      float64
	thresholdMax      float64
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Bot server settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the server's current settings",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		snap := a.settings.Load(cmd.Context())

		t := ui.NewTable("Server settings", "Setting", "Value")
		t.AddRow("test mode", optional(snap.TestMode, onOff))
		for _, p := range types.Platforms {
			info := snap.Curators[p]
			if info == nil {
				t.AddRow(string(p)+" curator", "-")
				continue
			}
			keys := "posting key " + setOrNot(info.PostingKeySet)
			if p == types.PlatformSteem {
				keys += ", active key " + setOrNot(info.ActiveKeySet)
			}
			t.AddRow(string(p)+" curator", "@"+info.Username+" ("+keys+")")
		}
		if snap.Bot != nil {
			t.AddRow("bot admins", snap.Bot.AdminIDs)
			token := snap.Bot.MaskedToken
			if token == "" {
				token = setOrNot(snap.Bot.TokenSet)
			}
			t.AddRow("bot token", token)
		} else {
			t.AddRow("bot", "-")
		}
		t.AddRow("delegation min SP", optional(snap.DelegationMinSP, formatSP))
		t.AddRow("delegation max SP", optional(snap.DelegationMaxSP, formatSP))

		w := cmd.OutOrStdout()
		fmt.Fprint(w, t.View(a.styles))
		for _, e := range snap.Errors {
			fmt.Fprintln(w, a.styles.Error.Render("✗ "+e))
		}
		return nil
	}),
}

var settingsTestModeCmd = &cobra.Command{
	Use:       "test-mode on|off",
	Short:     "Enable or disable the server's dry-run mode",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off"},
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		on := args[0] == "on"
		if err := a.settings.SetTestMode(cmd.Context(), on); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "test mode %s\n", onOff(on))
		return nil
	}),
}

var settingsCuratorCmd = &cobra.Command{
	Use:   "curator [steem|hive]",
	Short: "Set the curator account and keys of a platform",
	Long: `Sets the curator of a platform (default: the active one). Changing the
curator of the active platform replaces the local accounts with the new
curator's delegators.

Example:
  cur8 settings curator --username alice --posting-key 5K...
  cur8 settings curator hive --username bob`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(types.PlatformSteem), string(types.PlatformHive)},
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := a.coord.Platform()
		if len(args) == 1 {
			var err error
			if p, err = types.ParsePlatform(args[0]); err != nil {
				return err
			}
		}
		u := types.CuratorUpdate{
			Platform:   p,
			Username:   curatorUsername,
			PostingKey: curatorPostingKey,
			ActiveKey:  curatorActiveKey,
		}

		if p != a.coord.Platform() {
			if err := a.settings.UpdateCurator(cmd.Context(), u); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s curator set to @%s\n", p, types.NormalizeHandle(curatorUsername))
			return nil
		}

		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentChangeCurator, Curator: u})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s curator set to @%s\n", p, a.coord.Curator())
		fmt.Fprintf(cmd.OutOrStdout(), "added %d delegators, already tracked %d\n", out.Report.Added, out.Report.Skipped)
		return nil
	}),
}

var settingsBotCmd = &cobra.Command{
	Use:   "bot",
	Short: "Set the messaging bot admins and token",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if !cmd.Flags().Changed("admin-ids") && !cmd.Flags().Changed("token") {
			return errors.New("nothing to change: pass --admin-ids or --token")
		}
		if err := a.settings.UpdateBot(cmd.Context(), botAdminIDs, botToken); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "bot settings saved")
		return nil
	}),
}

var settingsThresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Set the delegated stake range for delegator import",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		var minSP, maxSP *float64
		if cmd.Flags().Changed("min") {
			minSP = &thresholdMin
		}
		if cmd.Flags().Changed("max") {
			maxSP = &thresholdMax
		}
		if err := a.settings.SetDelegationThresholds(cmd.Context(), minSP, maxSP); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "delegation thresholds saved")
		return nil
	}),
}

func init() {
	settingsCuratorCmd.Flags().StringVar(&curatorUsername, "username", "", "Curator account name")
	settingsCuratorCmd.Flags().StringVar(&curatorPostingKey, "posting-key", "", "Curator posting key")
	settingsCuratorCmd.Flags().StringVar(&curatorActiveKey, "active-key", "", "Curator active key (steem only)")
	_ = settingsCuratorCmd.MarkFlagRequired("username")

	settingsBotCmd.Flags().StringVar(&botAdminIDs, "admin-ids", "", "Comma-separated admin user IDs")
	settingsBotCmd.Flags().StringVar(&botToken, "token", "", "New bot token (empty keeps the current one)")

	settingsThresholdsCmd.Flags().Float64Var(&thresholdMin, "min", 0, "Minimum delegated SP")
	settingsThresholdsCmd.Flags().Float64Var(&thresholdMax, "max", 0, "Maximum delegated SP")

	settingsCmd.AddCommand(
		settingsShowCmd,
		settingsTestModeCmd,
		settingsCuratorCmd,
		settingsBotCmd,
		settingsThresholdsCmd,
	)
}

func optional[T any](v *T, format func(T) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func setOrNot(v bool) string {
	if v {
		return "set"
	}
	return "not set"
}

func formatSP(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
