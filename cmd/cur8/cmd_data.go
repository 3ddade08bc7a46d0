package main

import (
	"fmt"

	"cur8/cmd/cur8/ui"
	"cur8/internal/config"
	"cur8/internal/dispatch"
	"cur8/internal/types"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write the tracked accounts to a dated JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		dir := workspace
		if len(args) == 1 {
			dir = args[0]
		}
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentExport, Path: dir})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Path)
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the tracked accounts with an export file",
	Long: `Reads an export file, pushes every account in it to the server and then
replaces the local accounts and active platform with the file's contents.
An invalid file leaves everything untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentImport, Path: args[0]})
		if err != nil {
			return err
		}
		failed := 0
		for _, r := range out.Syncs {
			if !r.OK {
				failed++
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d accounts (%d not synced)\n", len(out.Syncs), failed)
		return savePlatform(a.coord.Platform())
	}),
}

var themeCmd = &cobra.Command{
	Use:       "theme [toggle]",
	Short:     "Show or toggle the colour theme",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"show", "toggle"},
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		theme := a.coord.Theme()
		if len(args) == 1 && args[0] == "toggle" {
			out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentToggleTheme})
			if err != nil {
				return err
			}
			theme = out.Theme
		}
		fmt.Fprintln(cmd.OutOrStdout(), theme)
		return nil
	}),
}

var platformCmd = &cobra.Command{
	Use:       "platform [steem|hive]",
	Short:     "Show or set the active platform",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(types.PlatformSteem), string(types.PlatformHive)},
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if len(args) == 1 {
			p, err := types.ParsePlatform(args[0])
			if err != nil {
				return err
			}
			if _, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentSwitchPlatform, Platform: p}); err != nil {
				return err
			}
			if err := savePlatform(p); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.coord.Platform())
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count tracked accounts per platform",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		out, err := a.do(cmd.Context(), dispatch.Message{Intent: dispatch.IntentStats})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderStats(a.styles, out.Stats))
		return nil
	}),
}

// savePlatform persists the active platform so the next invocation starts
// on it.
func savePlatform(p types.Platform) error {
	if cfg.UI.Platform == string(p) {
		return nil
	}
	cfg.UI.Platform = string(p)
	return config.SavePlatform(configPath, string(p))
}
