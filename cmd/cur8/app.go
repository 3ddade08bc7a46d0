package main

import (
	"context"
	"fmt"
	"io"

	"cur8/cmd/cur8/ui"
	"cur8/internal/api"
	"cur8/internal/chain"
	"cur8/internal/curation"
	"cur8/internal/dispatch"
	"cur8/internal/settings"
	"cur8/internal/store"
	"cur8/internal/types"

	"github.com/spf13/cobra"
)

// app is the wired object graph for one command invocation.
type app struct {
	store    *store.MirrorStore
	client   *api.Client
	coord    *curation.Coordinator
	table    *dispatch.Table
	settings *settings.Manager
	styles   ui.Styles
}

// openApp opens the mirror and wires the server client, the chain reader and
// the coordinator from the loaded config. Notices go to notifier.
func openApp(notifier curation.Notifier) (*app, error) {
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}

	client := api.New(api.Config{
		BaseURL:  cfg.API.BaseURL,
		Timeout:  cfg.GetAPITimeout(),
		Attempts: cfg.API.RetryAttempts,
		Delay:    cfg.GetRetryDelay(),
	})

	var reader curation.ChainReader
	if cfg.Chain.Enabled {
		reader = chain.New(chain.Config{
			Nodes: map[types.Platform][]string{
				types.PlatformSteem: cfg.Chain.SteemNodes,
				types.PlatformHive:  cfg.Chain.HiveNodes,
			},
			Timeout:  cfg.GetChainTimeout(),
			Attempts: cfg.Chain.Attempts,
		})
	}

	p, err := types.ParsePlatform(cfg.UI.Platform)
	if err != nil {
		st.Close()
		return nil, err
	}

	coord := curation.New(curation.Config{
		API:             client,
		Mirror:          st,
		Chain:           reader,
		Notifier:        notifier,
		Platform:        p,
		MinImportance:   cfg.API.MinImportance,
		SyncConcurrency: cfg.Sync.Concurrency,
	})

	return &app{
		store:    st,
		client:   client,
		coord:    coord,
		table:    dispatch.New(coord),
		settings: settings.NewManager(client),
		styles:   ui.StylesFor(coord.Theme()),
	}, nil
}

// Close waits for background syncs and closes the mirror.
func (a *app) Close() error {
	for _, r := range a.coord.WaitSyncs() {
		if !r.OK {
			logger.Sugar().Warnf("sync %s @%s failed after %d attempt(s): %s", r.Op, r.Handle, r.Attempts, r.Error)
		}
	}
	return a.store.Close()
}

func (a *app) do(ctx context.Context, msg dispatch.Message) (dispatch.Outcome, error) {
	return a.table.Dispatch(ctx, msg)
}

// printNotifier writes coordinator notices to w.
func printNotifier(w io.Writer) curation.Notifier {
	styles := ui.StylesFor(types.ThemeLight)
	return curation.NotifierFunc(func(n curation.Notice) {
		fmt.Fprintln(w, ui.RenderNotice(styles, n))
	})
}

// withApp wraps a command body with app setup and teardown.
func withApp(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(printNotifier(cmd.ErrOrStderr()))
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, args, a)
	}
}
