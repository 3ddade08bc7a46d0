package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"cur8/internal/types"
)

// Delegation threshold setting names.
const (
	SettingDelegationMinSP = "delegation_min_sp"
	SettingDelegationMaxSP = "delegation_max_sp"
)

// DefaultMinImportance is the voter importance cut-off used by the dashboard.
const DefaultMinImportance = 0.1

// ---------------------------------------------------------------------------
// Tracked accounts
// ---------------------------------------------------------------------------

// ListAccounts fetches the server copy of the tracked accounts.
func (c *Client) ListAccounts(ctx context.Context) (*types.Accounts, Result) {
	res := c.Do(ctx, http.MethodGet, "/users", nil)
	if !res.OK {
		return nil, res
	}
	var list []types.ServerAccount
	if err := res.Decode(&list); err != nil {
		res.OK = false
		res.Error = err.Error()
		return nil, res
	}
	accounts := types.NewAccounts()
	for _, sa := range list {
		a := sa.Data
		if a.Handle == "" {
			a.Handle = sa.Username
		}
		a.Handle = types.NormalizeHandle(a.Handle)
		if a.Handle == "" {
			continue
		}
		if a.Platform == "" {
			a.Platform = types.PlatformSteem
		}
		accounts.Set(a)
	}
	return accounts, res
}

// GetAccount fetches one account from the server.
func (c *Client) GetAccount(ctx context.Context, handle string) (*types.TrackedAccount, Result) {
	res := c.Do(ctx, http.MethodGet, "/users/"+url.PathEscape(handle), nil)
	var a types.TrackedAccount
	if err := res.Decode(&a); err != nil {
		return nil, failed(res, err)
	}
	if a.Handle == "" {
		a.Handle = handle
	}
	a.Handle = types.NormalizeHandle(a.Handle)
	if a.Platform == "" {
		a.Platform = types.PlatformSteem
	}
	return &a, res
}

// AddAccount creates an account on the server.
func (c *Client) AddAccount(ctx context.Context, a types.TrackedAccount) Result {
	return c.Do(ctx, http.MethodPost, "/users", a)
}

// UpdateAccount replaces an account on the server.
func (c *Client) UpdateAccount(ctx context.Context, a types.TrackedAccount) Result {
	return c.Do(ctx, http.MethodPut, "/users/"+url.PathEscape(a.Handle), a)
}

// DeleteAccount removes an account on the server.
func (c *Client) DeleteAccount(ctx context.Context, handle string) Result {
	return c.Do(ctx, http.MethodDelete, "/users/"+url.PathEscape(handle), nil)
}

// ClearAccounts removes every account on the server.
func (c *Client) ClearAccounts(ctx context.Context) Result {
	return c.Do(ctx, http.MethodPost, "/users/clear", nil)
}

// ---------------------------------------------------------------------------
// Voters and delegators
// ---------------------------------------------------------------------------

// PostVoters asks the server to rank the voters of a post.
func (c *Client) PostVoters(ctx context.Context, postURL string, minImportance float64) (*types.VotersResponse, Result) {
	q := url.Values{}
	q.Set("post_url", postURL)
	q.Set("min_importance", strconv.FormatFloat(minImportance, 'f', -1, 64))
	res := c.Do(ctx, http.MethodGet, "/api/post_voters?"+q.Encode(), nil)
	var out types.VotersResponse
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return &out, res
}

// Delegators fetches the delegators of the curator on platform together
// with the curator identity the server currently uses.
func (c *Client) Delegators(ctx context.Context, platform types.Platform) (*types.DelegatorsResponse, Result) {
	res := c.Do(ctx, http.MethodGet, "/api/delegators/"+url.PathEscape(string(platform)), nil)
	var out types.DelegatorsResponse
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return &out, res
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// TestMode reads the server dry-run flag.
func (c *Client) TestMode(ctx context.Context) (bool, Result) {
	res := c.Do(ctx, http.MethodGet, "/api/test_mode", nil)
	var out types.TestMode
	if err := res.Decode(&out); err != nil {
		return false, failed(res, err)
	}
	return out.TestMode, res
}

// SetTestMode toggles the server dry-run flag.
func (c *Client) SetTestMode(ctx context.Context, enabled bool) Result {
	return c.Do(ctx, http.MethodPost, "/api/test_mode", map[string]bool{"enabled": enabled})
}

// CuratorInfo reads which curator credentials are set for platform.
func (c *Client) CuratorInfo(ctx context.Context, platform types.Platform) (*types.CuratorInfo, Result) {
	res := c.Do(ctx, http.MethodGet, "/api/curator/info?platform="+url.QueryEscape(string(platform)), nil)
	var out types.CuratorInfo
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return &out, res
}

// UpdateCurator sets the curator identity and keys.
func (c *Client) UpdateCurator(ctx context.Context, u types.CuratorUpdate) Result {
	return c.Do(ctx, http.MethodPost, "/api/curator/update", u)
}

// BotInfo reads the messaging bot configuration.
func (c *Client) BotInfo(ctx context.Context) (*types.BotInfo, Result) {
	res := c.Do(ctx, http.MethodGet, "/api/bot/info", nil)
	var out types.BotInfo
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return &out, res
}

// UpdateBot sets the bot admins and token.
func (c *Client) UpdateBot(ctx context.Context, u types.BotUpdate) Result {
	return c.Do(ctx, http.MethodPost, "/api/bot/update", u)
}

// Settings reads every server setting, optionally scoped to platform.
func (c *Client) Settings(ctx context.Context, platform types.Platform) (map[string]any, Result) {
	path := "/api/settings"
	if platform != "" {
		path += "?platform=" + url.QueryEscape(string(platform))
	}
	res := c.Do(ctx, http.MethodGet, path, nil)
	var out map[string]any
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return out, res
}

// Setting reads a numeric server setting such as delegation_min_sp. The
// response carries the value under the setting's own name.
func (c *Client) Setting(ctx context.Context, name string) (*float64, Result) {
	res := c.Do(ctx, http.MethodGet, "/api/settings/"+url.PathEscape(name), nil)
	var out map[string]*float64
	if err := res.Decode(&out); err != nil {
		return nil, failed(res, err)
	}
	return out[name], res
}

// SetSetting writes a numeric server setting.
func (c *Client) SetSetting(ctx context.Context, name string, value float64) Result {
	return c.Do(ctx, http.MethodPost, "/api/settings/"+url.PathEscape(name), map[string]float64{"value": value})
}

// failed turns a decode error on an otherwise successful result into a
// failure result.
func failed(res Result, err error) Result {
	if !res.OK {
		return res
	}
	res.OK = false
	res.Error = fmt.Sprintf("unexpected response: %v", err)
	return res
}
