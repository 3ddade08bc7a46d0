package main

import (
	"fmt"

	"cur8/cmd/cur8/ui"
	"cur8/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Start the interactive dashboard (default command)",
	Long: `Shows the tracked accounts of the active platform with their latest posts
and today's vote counts.

Keys:
  ↑/k ↓/j  move          v  record a vote     enter  voters of latest post
  p        switch platform  t  toggle theme   i      import delegators
  r        reload           x  delete account q      quit`,
	Args: cobra.NoArgs,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	notices := &ui.NoticeBuffer{}
	a, err := openApp(notices)
	if err != nil {
		return err
	}
	defer a.Close()

	m := ui.NewDashboard(ctx, a.coord, a.table, notices, ui.DashboardOptions{
		MaxVoters: cfg.UI.MaxVoters,
		WrapWidth: cfg.UI.WrapWidth,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if cfg.UI.LiveReload {
		w, err := config.NewWatcher(configPath, func(c *config.Config) {
			p.Send(ui.SettingsMsg{MaxVoters: c.UI.MaxVoters, WrapWidth: c.UI.WrapWidth})
		})
		if err != nil {
			logger.Sugar().Warnf("config watcher disabled: %v", err)
		} else if err := w.Start(ctx); err != nil {
			logger.Sugar().Warnf("config watcher disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return savePlatform(a.coord.Platform())
}
