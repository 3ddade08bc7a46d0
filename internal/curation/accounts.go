package curation

import (
	"context"
	"fmt"

	"cur8/internal/api"
	"cur8/internal/logging"
	"cur8/internal/types"
)

// Source tells where LoadAccounts got its data from.
type Source string

const (
	SourceServer Source = "server"
	SourceMirror Source = "mirror"
)

// LoadAccounts replaces the in-memory accounts with the server copy and
// overwrites the mirror with it. When the server is unreachable the mirror
// is used instead.
func (c *Coordinator) LoadAccounts(ctx context.Context) Source {
	timer := logging.StartTimer(logging.CategoryCuration, "LoadAccounts")
	defer timer.Stop()

	accounts, res := c.api.ListAccounts(ctx)
	if res.OK {
		c.accounts = accounts
		c.persist()
		logging.Curation("loaded %d account(s) from server", accounts.Len())
		return SourceServer
	}

	logging.CurationWarn("Failed to load users from API, loading from local mirror instead: %s", res.Error)
	c.accounts = c.mirror.LoadAccounts()
	return SourceMirror
}

// AddAccount validates a new account, checks it exists on chain when a
// reader is configured, syncs it to the server and stores it locally
// whatever the server answered.
func (c *Coordinator) AddAccount(ctx context.Context, a types.TrackedAccount) (SyncResult, error) {
	a.Handle = types.NormalizeHandle(a.Handle)
	if a.Platform == "" {
		a.Platform = c.platform
	}
	a.UseOptimalTime = a.VoteDelay.Auto
	if a.CreatedAt == 0 {
		a.CreatedAt = c.now().UnixMilli()
	}
	a.DailyVotesCount = 0
	a.LastVoteAt = nil

	if err := a.Validate(); err != nil {
		c.failure("Error: %v", err)
		return SyncResult{}, err
	}
	if c.accounts.Has(a.Handle) {
		c.info("User @%s already exists", a.Handle)
		return SyncResult{}, fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Handle)
	}
	if c.chain != nil {
		exists, err := c.chain.AccountExists(ctx, a.Platform, a.Handle)
		if err != nil {
			c.failure("Error: %v", err)
			return SyncResult{}, fmt.Errorf("failed to verify account: %w", err)
		}
		if !exists {
			c.failure("Error: User not found")
			return SyncResult{}, fmt.Errorf("%w: @%s on %s", ErrAccountNotFound, a.Handle, a.Platform)
		}
	}

	task := c.syncer.Go(ctx, SyncAdd, a.Handle, func(ctx context.Context) api.Result {
		return c.api.AddAccount(ctx, a)
	})
	r, _ := task.Wait(ctx)

	c.accounts.Set(a)
	c.persist()

	if r.OK {
		c.success("User added successfully and synced with API!")
	} else {
		c.info("User added locally. API sync failed.")
	}
	return r, nil
}

// AccountEdit holds the user-editable settings. Nil fields keep their
// current value.
type AccountEdit struct {
	VoteDelay   *types.VoteDelay
	VoteWeight  *int
	VotesPerDay *int
}

// UpdateAccount applies edit to a tracked account, syncs it and stores it
// locally whatever the server answered.
func (c *Coordinator) UpdateAccount(ctx context.Context, handle string, edit AccountEdit) (types.TrackedAccount, SyncResult, error) {
	handle = types.NormalizeHandle(handle)
	cur, ok := c.accounts.Get(handle)
	if !ok {
		return types.TrackedAccount{}, SyncResult{}, fmt.Errorf("%w: %s", ErrUnknownAccount, handle)
	}

	next := cur.Clone()
	if edit.VoteDelay != nil {
		next.VoteDelay = *edit.VoteDelay
	}
	if edit.VoteWeight != nil {
		next.VoteWeight = *edit.VoteWeight
	}
	if edit.VotesPerDay != nil {
		next.VotesPerDay = *edit.VotesPerDay
	}
	next.UseOptimalTime = next.VoteDelay.Auto
	if err := next.Validate(); err != nil {
		return cur, SyncResult{}, err
	}
	next.UpdatedAt = c.now().UnixMilli()

	task := c.syncer.Go(ctx, SyncUpdate, handle, func(ctx context.Context) api.Result {
		return c.api.UpdateAccount(ctx, next)
	})
	r, _ := task.Wait(ctx)

	c.accounts.Set(next)
	c.persist()

	if r.OK {
		c.success("User settings updated and synced!")
	} else {
		c.info("Settings updated locally. API sync failed.")
	}
	return next.Clone(), r, nil
}

// DeleteAccount removes a tracked account on the server and locally. The
// local delete happens whatever the server answered.
func (c *Coordinator) DeleteAccount(ctx context.Context, handle string) (SyncResult, error) {
	handle = types.NormalizeHandle(handle)
	if !c.accounts.Has(handle) {
		return SyncResult{}, fmt.Errorf("%w: %s", ErrUnknownAccount, handle)
	}

	task := c.syncer.Go(ctx, SyncDelete, handle, func(ctx context.Context) api.Result {
		return c.api.DeleteAccount(ctx, handle)
	})
	r, _ := task.Wait(ctx)

	c.accounts.Delete(handle)
	c.persist()

	if r.OK {
		c.success("User deleted successfully and synced with API!")
	} else {
		c.info("User deleted locally. API sync failed.")
	}
	return r, nil
}

// ClearAll wipes the local accounts, then asks the server to do the same.
func (c *Coordinator) ClearAll(ctx context.Context) (SyncResult, error) {
	if err := c.mirror.ClearAccounts(); err != nil {
		logging.CurationWarn("mirror clear failed: %v", err)
	}
	c.accounts = types.NewAccounts()

	task := c.syncer.Go(ctx, SyncClear, "*", c.api.ClearAccounts)
	r, _ := task.Wait(ctx)
	if r.OK {
		c.success("All users removed from the server and locally!")
	} else {
		c.warning("Users removed locally. Server error.")
	}
	return r, nil
}

// SwitchPlatform changes the active platform.
func (c *Coordinator) SwitchPlatform(p types.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownPlatform, p)
	}
	c.platform = p
	logging.CurationDebug("platform switched to %s", p)
	return nil
}

// ToggleTheme flips and persists the theme.
func (c *Coordinator) ToggleTheme() (types.Theme, error) {
	next := c.theme.Toggle()
	c.theme = next
	if err := c.mirror.SaveTheme(next); err != nil {
		return next, fmt.Errorf("failed to save theme: %w", err)
	}
	return next, nil
}
