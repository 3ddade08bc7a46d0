package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteDelayJSON(t *testing.T) {
	t.Run("auto round trips as string", func(t *testing.T) {
		b, err := json.Marshal(AutoDelay)
		require.NoError(t, err)
		assert.Equal(t, `"auto"`, string(b))

		var d VoteDelay
		require.NoError(t, json.Unmarshal(b, &d))
		assert.True(t, d.Auto)
	})

	t.Run("minutes round trip as number", func(t *testing.T) {
		b, err := json.Marshal(Minutes(15))
		require.NoError(t, err)
		assert.Equal(t, `15`, string(b))

		var d VoteDelay
		require.NoError(t, json.Unmarshal(b, &d))
		assert.False(t, d.Auto)
		assert.Equal(t, 15.0, d.Minutes)
	})

	t.Run("numeric string accepted", func(t *testing.T) {
		var d VoteDelay
		require.NoError(t, json.Unmarshal([]byte(`"30"`), &d))
		assert.Equal(t, 30.0, d.Minutes)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		var d VoteDelay
		err := json.Unmarshal([]byte(`"soon"`), &d)
		assert.True(t, errors.Is(err, ErrInvalidDelay))
	})
}

func TestAccountValidate(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	base := NewAccount("@Alice", PlatformSteem, now)
	require.NoError(t, base.Validate())
	assert.Equal(t, "alice", base.Handle)

	tests := []struct {
		name   string
		mutate func(*TrackedAccount)
		want   error
	}{
		{"weight zero", func(a *TrackedAccount) { a.VoteWeight = 0 }, ErrInvalidWeight},
		{"weight over", func(a *TrackedAccount) { a.VoteWeight = 101 }, ErrInvalidWeight},
		{"votes zero", func(a *TrackedAccount) { a.VotesPerDay = 0 }, ErrInvalidVotesPerDay},
		{"votes over", func(a *TrackedAccount) { a.VotesPerDay = 11 }, ErrInvalidVotesPerDay},
		{"delay zero", func(a *TrackedAccount) { a.VoteDelay = Minutes(0) }, ErrInvalidDelay},
		{"delay over a day", func(a *TrackedAccount) { a.VoteDelay = Minutes(1441) }, ErrInvalidDelay},
		{"empty handle", func(a *TrackedAccount) { a.Handle = "" }, ErrInvalidHandle},
		{"bad platform", func(a *TrackedAccount) { a.Platform = "blurt" }, ErrUnknownPlatform},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := base.Clone()
			tt.mutate(&a)
			assert.ErrorIs(t, a.Validate(), tt.want)
		})
	}
}

func TestProgressCapsAtOne(t *testing.T) {
	a := TrackedAccount{VotesPerDay: 2, DailyVotesCount: 5}
	assert.Equal(t, 1.0, a.Progress())
	assert.True(t, a.LimitReached())

	a.DailyVotesCount = 1
	assert.Equal(t, 0.5, a.Progress())
	assert.False(t, a.LimitReached())
}

func TestAccountsKeepInsertionOrder(t *testing.T) {
	c := AccountsOf(
		TrackedAccount{Handle: "zed", Platform: PlatformHive},
		TrackedAccount{Handle: "amy", Platform: PlatformSteem},
		TrackedAccount{Handle: "bob", Platform: PlatformSteem},
	)
	c.Set(TrackedAccount{Handle: "zed", Platform: PlatformHive, VoteWeight: 50})
	assert.Equal(t, []string{"zed", "amy", "bob"}, c.Handles())

	require.True(t, c.Delete("amy"))
	assert.False(t, c.Delete("amy"))
	assert.Equal(t, []string{"zed", "bob"}, c.Handles())

	b, err := json.Marshal(c)
	require.NoError(t, err)

	back := NewAccounts()
	require.NoError(t, json.Unmarshal(b, back))
	if diff := cmp.Diff(c.List(), back.List()); diff != "" {
		t.Errorf("accounts mismatch (-want +got):\n%s", diff)
	}
}

func TestAccountsUnmarshalRejectsObjects(t *testing.T) {
	c := NewAccounts()
	err := json.Unmarshal([]byte(`{"alice": {}}`), c)
	assert.Error(t, err)
}

func TestAccountsUnmarshalOriginalShape(t *testing.T) {
	raw := `[["alice",{"username":"alice","platform":"hive","voteDelay":"auto","voteWeight":50,
		"votesPerDay":3,"useOptimalTime":true,"timestamp":1700000000000,"dailyVotesCount":2,
		"lastVoteDate":"2024-03-01T09:15:00.000Z"}]]`
	c := NewAccounts()
	require.NoError(t, json.Unmarshal([]byte(raw), c))

	a, ok := c.Get("alice")
	require.True(t, ok)
	assert.Equal(t, PlatformHive, a.Platform)
	assert.True(t, a.VoteDelay.Auto)
	assert.Equal(t, 2, a.DailyVotesCount)
	require.NotNil(t, a.LastVoteAt)
	assert.Equal(t, 9, a.LastVoteAt.UTC().Hour())
}

func TestAccountsUnmarshalNormalizesHandles(t *testing.T) {
	raw := `[["@Alice",{"platform":"steem","voteDelay":5,"voteWeight":50,"votesPerDay":2}],
		[" BOB ",{"username":"Bob","platform":"hive","voteDelay":5,"voteWeight":50,"votesPerDay":2}]]`
	c := NewAccounts()
	require.NoError(t, json.Unmarshal([]byte(raw), c))

	assert.Equal(t, []string{"alice", "bob"}, c.Handles())
	bob, ok := c.Get("bob")
	require.True(t, ok)
	assert.Equal(t, "bob", bob.Handle)
}

func TestAccountsUnmarshalRejectsEmptyHandle(t *testing.T) {
	c := NewAccounts()
	err := json.Unmarshal([]byte(`[["@",{"voteDelay":5}]]`), c)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	c := AccountsOf(
		TrackedAccount{Handle: "a", Platform: PlatformSteem, IsDelegator: true, VotesPerDay: 1, DailyVotesCount: 1},
		TrackedAccount{Handle: "b", Platform: PlatformHive, VotesPerDay: 2},
		TrackedAccount{Handle: "c", Platform: PlatformHive, VotesPerDay: 2},
	)
	assert.Equal(t, Stats{Total: 3, Steem: 1, Hive: 2, Delegators: 1, AtLimit: 1}, c.Stats())
}

func TestDecodeSnapshot(t *testing.T) {
	t.Run("missing users", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte(`{"currentPlatform":"steem"}`))
		assert.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("users not an array", func(t *testing.T) {
		_, err := DecodeSnapshot([]byte(`{"users":{"a":1}}`))
		assert.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("platform defaults to steem", func(t *testing.T) {
		snap, err := DecodeSnapshot([]byte(`{"users":[]}`))
		require.NoError(t, err)
		assert.Equal(t, PlatformSteem, snap.CurrentPlatform)
		assert.Equal(t, 0, snap.Users.Len())
	})

	t.Run("round trip", func(t *testing.T) {
		now := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
		acc := AccountsOf(NewAccount("bob", PlatformHive, now))
		b, err := json.Marshal(NewSnapshot(acc, PlatformHive, now))
		require.NoError(t, err)

		snap, err := DecodeSnapshot(b)
		require.NoError(t, err)
		assert.Equal(t, SnapshotVersion, snap.Version)
		assert.Equal(t, PlatformHive, snap.CurrentPlatform)
		assert.True(t, now.Equal(snap.ExportDate))
		if diff := cmp.Diff(acc.List(), snap.Users.List()); diff != "" {
			t.Errorf("users mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestVotersKeyVoter(t *testing.T) {
	r := VotersResponse{OptimalVoteTime: &OptimalVoteTime{TopVoters: []string{"whale"}}}
	assert.True(t, r.IsKeyVoter("whale"))
	assert.False(t, r.IsKeyVoter("minnow"))
	assert.Equal(t, 75.0, Voter{Weight: 7500}.WeightPercent())
}
