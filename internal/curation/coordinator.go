// Package curation owns the client-side curation state: the tracked
// accounts of both platforms, the active platform and theme, the daily vote
// counter and the delegator import with curator rotation.
//
// A Coordinator is driven from a single goroutine (a CLI command or the
// dashboard update loop). Server writes go through a Syncer and only ever
// receive copies of accounts.
package curation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cur8/internal/api"
	"cur8/internal/logging"
	"cur8/internal/store"
	"cur8/internal/types"
)

var (
	ErrUnknownAccount    = errors.New("account is not tracked")
	ErrDuplicateAccount  = errors.New("account is already tracked")
	ErrAccountNotFound   = errors.New("user not found")
	ErrServerUnavailable = errors.New("server unavailable")
	ErrChainUnavailable  = errors.New("chain reader not configured")
)

// API is the subset of the server client the coordinator uses.
type API interface {
	ListAccounts(ctx context.Context) (*types.Accounts, api.Result)
	AddAccount(ctx context.Context, a types.TrackedAccount) api.Result
	UpdateAccount(ctx context.Context, a types.TrackedAccount) api.Result
	DeleteAccount(ctx context.Context, handle string) api.Result
	ClearAccounts(ctx context.Context) api.Result
	PostVoters(ctx context.Context, postURL string, minImportance float64) (*types.VotersResponse, api.Result)
	Delegators(ctx context.Context, platform types.Platform) (*types.DelegatorsResponse, api.Result)
	UpdateCurator(ctx context.Context, u types.CuratorUpdate) api.Result
}

// Mirror is the local durable shadow of the state.
type Mirror interface {
	LoadAccounts() *types.Accounts
	SaveAccounts(accounts *types.Accounts) error
	ClearAccounts() error
	LoadTheme() types.Theme
	SaveTheme(theme types.Theme) error
	LoadCurator() string
	SaveCurator(curator string) error
	ExportToFile(dir string, snap types.Snapshot) (string, error)
	ImportSnapshot(ctx context.Context, path string) store.ImportResult
}

// ChainReader reads public chain data.
type ChainReader interface {
	AccountExists(ctx context.Context, platform types.Platform, handle string) (bool, error)
	LatestPost(ctx context.Context, platform types.Platform, handle string) (*types.Post, error)
}

// Config holds the coordinator dependencies.
type Config struct {
	API      API
	Mirror   Mirror
	Chain    ChainReader // optional; nil skips existence checks
	Notifier Notifier    // optional

	Platform        types.Platform
	Clock           func() time.Time
	Location        *time.Location // day boundary for the vote counter (default time.Local)
	MinImportance   float64
	SyncConcurrency int
}

// Coordinator wires user intents to the server client and the mirror.
type Coordinator struct {
	api    API
	mirror Mirror
	chain  ChainReader
	notify Notifier
	syncer *Syncer

	now           func() time.Time
	loc           *time.Location
	minImportance float64

	// State
	platform types.Platform
	accounts *types.Accounts
	theme    types.Theme
}

// New creates a Coordinator seeded from the mirror. Call LoadAccounts to
// refresh from the server.
func New(cfg Config) *Coordinator {
	c := &Coordinator{
		api:           cfg.API,
		mirror:        cfg.Mirror,
		chain:         cfg.Chain,
		notify:        cfg.Notifier,
		syncer:        NewSyncer(cfg.SyncConcurrency),
		now:           cfg.Clock,
		loc:           cfg.Location,
		minImportance: cfg.MinImportance,
		platform:      cfg.Platform,
	}
	if c.notify == nil {
		c.notify = discardNotifier{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.minImportance <= 0 {
		c.minImportance = api.DefaultMinImportance
	}
	if !c.platform.Valid() {
		c.platform = types.PlatformSteem
	}
	c.theme = c.mirror.LoadTheme()
	c.accounts = c.mirror.LoadAccounts()
	logging.CurationDebug("coordinator ready: platform=%s accounts=%d theme=%s", c.platform, c.accounts.Len(), c.theme)
	return c
}

// Platform returns the active platform.
func (c *Coordinator) Platform() types.Platform { return c.platform }

// Theme returns the active theme.
func (c *Coordinator) Theme() types.Theme { return c.theme }

// Accounts returns a copy of every tracked account.
func (c *Coordinator) Accounts() *types.Accounts { return c.accounts.Clone() }

// Account returns one tracked account as of today.
func (c *Coordinator) Account(handle string) (types.TrackedAccount, bool) {
	a, ok := c.accounts.Get(types.NormalizeHandle(handle))
	if !ok {
		return types.TrackedAccount{}, false
	}
	return c.today(a), true
}

// Visible returns the accounts of the active platform in insertion order,
// with counters from a previous day shown as zero.
func (c *Coordinator) Visible() []types.TrackedAccount {
	list := c.accounts.Filter(c.platform)
	for i := range list {
		list[i] = c.today(list[i])
	}
	return list
}

// Stats summarises the tracked accounts as of today.
func (c *Coordinator) Stats() types.Stats {
	view := types.NewAccounts()
	c.accounts.Each(func(a types.TrackedAccount) bool {
		view.Set(c.today(a))
		return true
	})
	return view.Stats()
}

// today returns a copy of a with the day rollover applied. Nothing is
// stored.
func (c *Coordinator) today(a types.TrackedAccount) types.TrackedAccount {
	a = a.Clone()
	c.rollover(&a)
	return a
}

// Curator returns the cached curator identity.
func (c *Coordinator) Curator() string {
	return c.mirror.LoadCurator()
}

// WaitSyncs blocks until every background sync has finished.
func (c *Coordinator) WaitSyncs() []SyncResult {
	return c.syncer.Wait()
}

func (c *Coordinator) info(format string, args ...any)    { c.emit(LevelInfo, format, args...) }
func (c *Coordinator) success(format string, args ...any) { c.emit(LevelSuccess, format, args...) }
func (c *Coordinator) warning(format string, args ...any) { c.emit(LevelWarning, format, args...) }
func (c *Coordinator) failure(format string, args ...any) { c.emit(LevelError, format, args...) }

func (c *Coordinator) emit(level Level, format string, args ...any) {
	c.notify.Notify(Notice{Level: level, Message: fmt.Sprintf(format, args...)})
}

// persist writes the accounts to the mirror. A failure is logged by the
// mirror and otherwise ignored; the in-memory state stays authoritative.
func (c *Coordinator) persist() bool {
	if err := c.mirror.SaveAccounts(c.accounts); err != nil {
		logging.CurationWarn("mirror save failed: %v", err)
		return false
	}
	return true
}
