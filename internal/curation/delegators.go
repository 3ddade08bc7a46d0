package curation

import (
	"context"
	"fmt"
	"sort"

	"cur8/internal/api"
	"cur8/internal/logging"
	"cur8/internal/types"
)

// ImportReport summarises a bulk delegator import.
type ImportReport struct {
	Added          int
	Skipped        int
	Handles        []string
	CuratorChanged bool
	Syncs          []*SyncTask
}

// Delegators fetches the delegators of the active platform, largest stake
// first.
func (c *Coordinator) Delegators(ctx context.Context) ([]types.Delegator, error) {
	resp, res := c.api.Delegators(ctx, c.platform)
	if !res.OK || resp == nil {
		c.failure("Error loading delegators: %s", res.Error)
		return nil, fmt.Errorf("%w: %s", ErrServerUnavailable, res.Error)
	}
	list := append([]types.Delegator(nil), resp.Delegators...)
	sortByStake(list)
	return list, nil
}

func sortByStake(list []types.Delegator) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].SPAmount > list[j].SPAmount })
}

// delegatorAccount is the default account created for a delegator.
func (c *Coordinator) delegatorAccount(handle string, sp *float64) types.TrackedAccount {
	a := types.NewAccount(handle, c.platform, c.now())
	if sp != nil {
		a.DelegatedSP = types.Float(*sp)
		a.IsDelegator = true
	}
	return a
}

// AddDelegator tracks a single delegator with the default settings. The
// account is stored locally first; the returned task carries the server
// sync.
func (c *Coordinator) AddDelegator(ctx context.Context, handle string) (*SyncTask, error) {
	handle = types.NormalizeHandle(handle)
	if handle == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidHandle, handle)
	}
	if c.accounts.Has(handle) {
		c.info("User @%s already exists", handle)
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAccount, handle)
	}

	a := c.delegatorAccount(handle, nil)
	c.accounts.Set(a)
	c.persist()

	return c.syncer.Go(ctx, SyncAdd, handle, func(ctx context.Context) api.Result {
		return c.api.AddAccount(ctx, a)
	}), nil
}

// ImportDelegators tracks every delegator of the active platform that is
// not tracked yet. When the server reports a different curator than the one
// cached, the local data is wiped and reloaded before anything is added.
func (c *Coordinator) ImportDelegators(ctx context.Context) (ImportReport, error) {
	var report ImportReport

	c.info("Importing delegators...")
	resp, res := c.api.Delegators(ctx, c.platform)
	if !res.OK || resp == nil {
		c.failure("Error importing delegators: %s", res.Error)
		return report, fmt.Errorf("%w: %s", ErrServerUnavailable, res.Error)
	}

	report.CuratorChanged = c.checkCurator(ctx, resp.Curator)

	delegators := append([]types.Delegator(nil), resp.Delegators...)
	sortByStake(delegators)

	var added []types.TrackedAccount
	for _, d := range delegators {
		handle := types.NormalizeHandle(d.Delegator)
		if handle == "" {
			continue
		}
		if c.accounts.Has(handle) {
			report.Skipped++
			continue
		}
		sp := d.SPAmount
		a := c.delegatorAccount(handle, &sp)
		c.accounts.Set(a)
		added = append(added, a)
		report.Handles = append(report.Handles, handle)
		report.Added++
	}
	c.persist()

	for _, a := range added {
		report.Syncs = append(report.Syncs, c.syncer.Go(ctx, SyncAdd, a.Handle, func(ctx context.Context) api.Result {
			return c.api.AddAccount(ctx, a)
		}))
	}

	logging.Curation("delegator import: added=%d skipped=%d curator_changed=%v", report.Added, report.Skipped, report.CuratorChanged)
	if report.Skipped > 0 {
		c.success("Imported %d delegators, %d already present", report.Added, report.Skipped)
	} else {
		c.success("Imported %d delegators", report.Added)
	}
	return report, nil
}

// checkCurator compares the server curator with the cached one. A mismatch
// triggers HandleCuratorChange; an empty cache just stores the server value.
func (c *Coordinator) checkCurator(ctx context.Context, serverCurator string) bool {
	if serverCurator == "" {
		return false
	}
	cached := c.mirror.LoadCurator()
	switch {
	case cached == "":
		if err := c.mirror.SaveCurator(serverCurator); err != nil {
			logging.CurationWarn("failed to cache curator: %v", err)
		}
		return false
	case cached != serverCurator:
		c.HandleCuratorChange(ctx, serverCurator)
		return true
	}
	return false
}

// HandleCuratorChange wipes the local accounts, caches the new curator and
// reloads the accounts from the server.
func (c *Coordinator) HandleCuratorChange(ctx context.Context, curator string) Source {
	logging.Curation("curator changed to %s, wiping local data", curator)
	if err := c.mirror.ClearAccounts(); err != nil {
		logging.CurationWarn("mirror clear failed: %v", err)
	}
	c.accounts = types.NewAccounts()
	if err := c.mirror.SaveCurator(curator); err != nil {
		logging.CurationWarn("failed to cache curator: %v", err)
	}
	src := c.LoadAccounts(ctx)
	c.info("Curator changed: local data refreshed!")
	return src
}

// ChangeCurator updates the curator identity on the server, then runs a
// delegator import, which rotates the local data to the new curator.
func (c *Coordinator) ChangeCurator(ctx context.Context, u types.CuratorUpdate) (ImportReport, error) {
	if u.Platform == "" {
		u.Platform = c.platform
	}
	u.Username = types.NormalizeHandle(u.Username)
	if u.Username == "" {
		return ImportReport{}, fmt.Errorf("%w: empty curator", types.ErrInvalidHandle)
	}
	if u.Platform == types.PlatformHive {
		u.ActiveKey = ""
	}
	if res := c.api.UpdateCurator(ctx, u); !res.OK {
		c.failure("Error saving %s curator settings", u.Platform)
		return ImportReport{}, fmt.Errorf("failed to update curator: %w", res.Err())
	}
	c.success("%s curator settings saved", u.Platform)
	return c.ImportDelegators(ctx)
}
