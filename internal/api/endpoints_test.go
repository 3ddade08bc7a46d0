package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"cur8/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend routes with Go 1.22 method patterns, like the bot server.
func fakeBackend(t *testing.T) (*Client, *http.ServeMux, *[]string) {
	t.Helper()
	mux := http.NewServeMux()
	var seen []string
	wrapped := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.RequestURI())
		w.Header().Set("Content-Type", "application/json")
		mux.ServeHTTP(w, r)
	})
	return newTestClient(t, wrapped, 0), mux, &seen
}

func TestListAccounts(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"username":"alice","data":{"username":"alice","platform":"hive","voteDelay":"auto","voteWeight":80,"votesPerDay":2}},
			{"username":"bob","data":{"voteDelay":12,"voteWeight":100,"votesPerDay":1}}
		]`)
	})

	accounts, res := c.ListAccounts(context.Background())

	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"alice", "bob"}, accounts.Handles())
	bob, _ := accounts.Get("bob")
	assert.Equal(t, types.PlatformSteem, bob.Platform)
	assert.Equal(t, 12.0, bob.VoteDelay.Minutes)
}

func TestListAccounts_NormalizesHandles(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"username":"Alice","data":{"voteDelay":5,"voteWeight":80,"votesPerDay":2}},
			{"username":"carol","data":{"username":"@Carol","voteDelay":5,"voteWeight":80,"votesPerDay":2}},
			{"username":"","data":{"voteDelay":5}}
		]`)
	})

	accounts, res := c.ListAccounts(context.Background())

	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"alice", "carol"}, accounts.Handles())
	alice, ok := accounts.Get("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", alice.Handle)
}

func TestListAccounts_WrongShape(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /users", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"users": "nope"}`)
	})

	accounts, res := c.ListAccounts(context.Background())
	assert.Nil(t, accounts)
	assert.False(t, res.OK)
}

func TestAccountMutations(t *testing.T) {
	c, mux, seen := fakeBackend(t)
	var created types.TrackedAccount
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
		io.WriteString(w, `{"message":"created"}`)
	})
	mux.HandleFunc("PUT /users/{handle}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"updated `+r.PathValue("handle")+`"}`)
	})
	mux.HandleFunc("DELETE /users/{handle}", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"deleted"}`)
	})
	mux.HandleFunc("POST /users/clear", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"message":"cleared"}`)
	})

	ctx := context.Background()
	a := types.TrackedAccount{Handle: "carol", Platform: types.PlatformSteem, VoteDelay: types.AutoDelay, VoteWeight: 50, VotesPerDay: 3}

	assert.True(t, c.AddAccount(ctx, a).OK)
	assert.True(t, c.UpdateAccount(ctx, a).OK)
	assert.True(t, c.DeleteAccount(ctx, "carol").OK)
	assert.True(t, c.ClearAccounts(ctx).OK)

	assert.Equal(t, "carol", created.Handle)
	assert.True(t, created.VoteDelay.Auto)
	assert.Equal(t, []string{
		"POST /users",
		"PUT /users/carol",
		"DELETE /users/carol",
		"POST /users/clear",
	}, *seen)
}

func TestPostVoters(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /api/post_voters", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://steemit.com/@alice/hello", r.URL.Query().Get("post_url"))
		assert.Equal(t, "0.1", r.URL.Query().Get("min_importance"))
		io.WriteString(w, `{
			"voters":[{"voter":"whale","weight":10000,"vote_delay_minutes":4.5,"steem_vote_value":1.25,"importance":0.9}],
			"total_voters":1,
			"optimal_vote_time":{"optimal_time":5,"vote_window":[3,8],"explanation":"early","top_voters":["whale"]}
		}`)
	})

	resp, res := c.PostVoters(context.Background(), "https://steemit.com/@alice/hello", DefaultMinImportance)

	require.True(t, res.OK, res.Error)
	require.Len(t, resp.Voters, 1)
	assert.Equal(t, 100.0, resp.Voters[0].WeightPercent())
	assert.Equal(t, [2]float64{3, 8}, resp.OptimalVoteTime.VoteWindow)
	assert.True(t, resp.IsKeyVoter("whale"))
}

func TestDelegators(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /api/delegators/{platform}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "steem", r.PathValue("platform"))
		io.WriteString(w, `{"delegators":[{"delegator":"d1","delegatee":"cur8","sp_amount":100.5}],"total":1,"status":"success","curator":"cur8"}`)
	})

	resp, res := c.Delegators(context.Background(), types.PlatformSteem)

	require.True(t, res.OK, res.Error)
	assert.Equal(t, "cur8", resp.Curator)
	assert.Equal(t, 100.5, resp.Delegators[0].SPAmount)
}

func TestSettingsEndpoints(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	var posted []string
	record := func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		posted = append(posted, r.URL.Path+" "+string(b))
		io.WriteString(w, `{"message":"ok"}`)
	}
	mux.HandleFunc("GET /api/test_mode", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"test_mode":true}`)
	})
	mux.HandleFunc("POST /api/test_mode", record)
	mux.HandleFunc("GET /api/curator/info", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"username":"cur8-`+r.URL.Query().Get("platform")+`","posting_key_set":true,"active_key_set":false}`)
	})
	mux.HandleFunc("POST /api/curator/update", record)
	mux.HandleFunc("GET /api/bot/info", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"admin_ids":"1,2","masked_token":"123:...abcd","token_set":true}`)
	})
	mux.HandleFunc("POST /api/bot/update", record)
	mux.HandleFunc("GET /api/settings/delegation_min_sp", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"delegation_min_sp":50}`)
	})
	mux.HandleFunc("GET /api/settings/delegation_max_sp", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"delegation_max_sp":null}`)
	})
	mux.HandleFunc("POST /api/settings/delegation_min_sp", record)

	ctx := context.Background()

	on, res := c.TestMode(ctx)
	require.True(t, res.OK)
	assert.True(t, on)
	assert.True(t, c.SetTestMode(ctx, false).OK)

	info, res := c.CuratorInfo(ctx, types.PlatformHive)
	require.True(t, res.OK)
	assert.Equal(t, "cur8-hive", info.Username)
	assert.True(t, info.PostingKeySet)
	assert.True(t, c.UpdateCurator(ctx, types.CuratorUpdate{Platform: types.PlatformHive, Username: "x"}).OK)

	bot, res := c.BotInfo(ctx)
	require.True(t, res.OK)
	assert.Equal(t, "1,2", bot.AdminIDs)
	assert.True(t, c.UpdateBot(ctx, types.BotUpdate{AdminIDs: "3"}).OK)

	minSP, res := c.Setting(ctx, SettingDelegationMinSP)
	require.True(t, res.OK)
	require.NotNil(t, minSP)
	assert.Equal(t, 50.0, *minSP)

	maxSP, res := c.Setting(ctx, SettingDelegationMaxSP)
	require.True(t, res.OK)
	assert.Nil(t, maxSP)

	assert.True(t, c.SetSetting(ctx, SettingDelegationMinSP, 75).OK)

	assert.Equal(t, []string{
		`/api/test_mode {"enabled":false}`,
		`/api/curator/update {"platform":"hive","username":"x"}`,
		`/api/bot/update {"admin_ids":"3"}`,
		`/api/settings/delegation_min_sp {"value":75}`,
	}, posted)
}

func TestGetAccount(t *testing.T) {
	c, mux, _ := fakeBackend(t)
	mux.HandleFunc("GET /users/{handle}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("handle") != "alice" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"User not found"}`)
			return
		}
		io.WriteString(w, `{"voteDelay":30,"voteWeight":50,"votesPerDay":3}`)
	})
	ctx := context.Background()

	a, res := c.GetAccount(ctx, "alice")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, "alice", a.Handle)
	assert.Equal(t, types.PlatformSteem, a.Platform)
	assert.Equal(t, 50, a.VoteWeight)

	a, res = c.GetAccount(ctx, "ghost")
	assert.Nil(t, a)
	assert.False(t, res.OK)
	assert.Equal(t, "HTTP 404: User not found", res.Error)
}

func TestAllSettings(t *testing.T) {
	c, mux, seen := fakeBackend(t)
	mux.HandleFunc("GET /api/settings", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"delegation_min_sp":10,"test_mode":"false"}`)
	})

	all, res := c.Settings(context.Background(), types.PlatformHive)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 10.0, all["delegation_min_sp"])
	assert.Equal(t, []string{"GET /api/settings?platform=hive"}, *seen)
}
