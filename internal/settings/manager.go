// Package settings reads and writes the bot-side configuration exposed by
// the server: dry-run mode, curator credentials, the messaging bot and the
// delegation thresholds.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cur8/internal/api"
	"cur8/internal/logging"
	"cur8/internal/types"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidThreshold = errors.New("invalid delegation threshold")

// API is the subset of the server client the manager uses.
type API interface {
	TestMode(ctx context.Context) (bool, api.Result)
	SetTestMode(ctx context.Context, enabled bool) api.Result
	CuratorInfo(ctx context.Context, platform types.Platform) (*types.CuratorInfo, api.Result)
	UpdateCurator(ctx context.Context, u types.CuratorUpdate) api.Result
	BotInfo(ctx context.Context) (*types.BotInfo, api.Result)
	UpdateBot(ctx context.Context, u types.BotUpdate) api.Result
	Setting(ctx context.Context, name string) (*float64, api.Result)
	SetSetting(ctx context.Context, name string, value float64) api.Result
}

// Snapshot is everything Load could read. Sections the server did not
// answer are nil and listed in Errors.
type Snapshot struct {
	TestMode        *bool
	Curators        map[types.Platform]*types.CuratorInfo
	Bot             *types.BotInfo
	DelegationMinSP *float64
	DelegationMaxSP *float64
	Errors          []string
}

// Manager wraps the settings endpoints.
type Manager struct {
	api API
}

// NewManager creates a Manager.
func NewManager(client API) *Manager {
	return &Manager{api: client}
}

// Load reads every settings section concurrently. Each section is
// best-effort; a failed one is reported in Snapshot.Errors.
func (m *Manager) Load(ctx context.Context) Snapshot {
	snap := Snapshot{Curators: make(map[types.Platform]*types.CuratorInfo)}
	var mu sync.Mutex
	fail := func(section string, res api.Result) {
		logging.SettingsWarn("failed to load %s: %s", section, res.Error)
		mu.Lock()
		snap.Errors = append(snap.Errors, section+": "+res.Error)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		on, res := m.api.TestMode(ctx)
		if !res.OK {
			fail("test mode", res)
			return nil
		}
		mu.Lock()
		snap.TestMode = &on
		mu.Unlock()
		return nil
	})
	for _, p := range types.Platforms {
		g.Go(func() error {
			info, res := m.api.CuratorInfo(ctx, p)
			if !res.OK {
				fail(string(p)+" curator", res)
				return nil
			}
			mu.Lock()
			snap.Curators[p] = info
			mu.Unlock()
			return nil
		})
	}
	g.Go(func() error {
		bot, res := m.api.BotInfo(ctx)
		if !res.OK {
			fail("bot", res)
			return nil
		}
		if bot.MaskedToken == "" && bot.BotToken != "" {
			bot.MaskedToken = MaskToken(bot.BotToken)
		}
		bot.BotToken = ""
		mu.Lock()
		snap.Bot = bot
		mu.Unlock()
		return nil
	})
	for _, name := range []string{api.SettingDelegationMinSP, api.SettingDelegationMaxSP} {
		g.Go(func() error {
			v, res := m.api.Setting(ctx, name)
			if !res.OK {
				// An unset threshold answers 404; that is not an error.
				if res.Status != 404 {
					fail(name, res)
				}
				return nil
			}
			mu.Lock()
			if name == api.SettingDelegationMinSP {
				snap.DelegationMinSP = v
			} else {
				snap.DelegationMaxSP = v
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return snap
}

// SetTestMode toggles the server dry-run flag.
func (m *Manager) SetTestMode(ctx context.Context, enabled bool) error {
	if res := m.api.SetTestMode(ctx, enabled); !res.OK {
		return fmt.Errorf("failed to update test mode: %w", res.Err())
	}
	logging.Settings("test mode set to %v", enabled)
	return nil
}

// UpdateCurator sets the curator identity and keys of one platform. Hive
// only has a posting key.
func (m *Manager) UpdateCurator(ctx context.Context, u types.CuratorUpdate) error {
	if !u.Platform.Valid() {
		return fmt.Errorf("%w: %q", types.ErrUnknownPlatform, u.Platform)
	}
	u.Username = types.NormalizeHandle(u.Username)
	if u.Username == "" {
		return fmt.Errorf("%w: empty curator", types.ErrInvalidHandle)
	}
	if u.Platform == types.PlatformHive {
		u.ActiveKey = ""
	}
	if res := m.api.UpdateCurator(ctx, u); !res.OK {
		return fmt.Errorf("failed to save %s settings: %w", u.Platform, res.Err())
	}
	logging.Settings("%s curator set to %s (posting key: %v, active key: %v)", u.Platform, u.Username, u.PostingKey != "", u.ActiveKey != "")
	return nil
}

// UpdateBot sets the admin IDs and, when token is non-empty, a new token.
func (m *Manager) UpdateBot(ctx context.Context, adminIDs, token string) error {
	u := types.BotUpdate{AdminIDs: strings.TrimSpace(adminIDs), BotToken: strings.TrimSpace(token)}
	if res := m.api.UpdateBot(ctx, u); !res.OK {
		return fmt.Errorf("failed to update bot settings: %w", res.Err())
	}
	logging.Settings("bot settings updated (token changed: %v)", u.BotToken != "")
	return nil
}

// SetDelegationThresholds writes the minimum and, when set, the maximum
// delegated stake a delegator needs to be imported.
func (m *Manager) SetDelegationThresholds(ctx context.Context, minSP, maxSP *float64) error {
	if minSP == nil {
		return fmt.Errorf("%w: minimum is required", ErrInvalidThreshold)
	}
	if *minSP < 0 {
		return fmt.Errorf("%w: minimum %v is negative", ErrInvalidThreshold, *minSP)
	}
	if maxSP != nil && *maxSP < *minSP {
		return fmt.Errorf("%w: maximum %v below minimum %v", ErrInvalidThreshold, *maxSP, *minSP)
	}

	if res := m.api.SetSetting(ctx, api.SettingDelegationMinSP, *minSP); !res.OK {
		return fmt.Errorf("failed to save %s: %w", api.SettingDelegationMinSP, res.Err())
	}
	if maxSP != nil {
		if res := m.api.SetSetting(ctx, api.SettingDelegationMaxSP, *maxSP); !res.OK {
			return fmt.Errorf("failed to save %s: %w", api.SettingDelegationMaxSP, res.Err())
		}
	}
	logging.Settings("delegation thresholds saved")
	return nil
}

// MaskToken hides a bot token of the form "<id>:<secret>", keeping the id
// and the last four characters of the secret. Other shapes mask to "".
func MaskToken(token string) string {
	id, secret, ok := strings.Cut(token, ":")
	if !ok || strings.Contains(secret, ":") {
		return ""
	}
	if len(secret) <= 4 {
		return id + ":" + secret
	}
	return id + ":" + strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
