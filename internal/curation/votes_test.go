package curation

import (
	"testing"
	"time"

	"cur8/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanVoteToday_PreviousDayResetsCounter(t *testing.T) {
	h := newHarness(t)
	yesterday := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	a := account("alice", types.PlatformSteem)
	a.DailyVotesCount = 7
	a.LastVoteAt = &yesterday
	h.seed(t, a)

	ok, err := h.c.CanVoteToday("alice")
	require.NoError(t, err)
	assert.True(t, ok, "a vote from a previous day never blocks")

	got, _ := h.c.Account("alice")
	assert.Equal(t, 0, got.DailyVotesCount)
}

func TestCanVoteToday_NeverVoted(t *testing.T) {
	h := newHarness(t)
	a := account("alice", types.PlatformSteem)
	a.DailyVotesCount = 9
	h.seed(t, a)

	ok, err := h.c.CanVoteToday("@Alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordVote_ReachesLimit(t *testing.T) {
	h := newHarness(t)
	a := account("alice", types.PlatformSteem)
	a.VotesPerDay = 3
	h.seed(t, a)

	for i := 1; i <= 3; i++ {
		ok, err := h.c.CanVoteToday("alice")
		require.NoError(t, err)
		require.True(t, ok, "vote %d should be allowed", i)

		got, err := h.c.RecordVote("alice")
		require.NoError(t, err)
		assert.Equal(t, i, got.DailyVotesCount)
		require.NotNil(t, got.LastVoteAt)
		assert.Equal(t, h.clock.Now(), *got.LastVoteAt)
		h.clock.Advance(time.Minute)
	}

	ok, err := h.c.CanVoteToday("alice")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Notice{Level: LevelInfo, Message: "Daily vote limit reached for @alice (3 votes)"}, h.notes.Last())

	persisted, _ := h.mirror.LoadAccounts().Get("alice")
	assert.Equal(t, 3, persisted.DailyVotesCount, "counter is persisted")

	h.clock.Advance(12 * time.Hour)
	ok, err = h.c.CanVoteToday("alice")
	require.NoError(t, err)
	assert.True(t, ok, "next day starts fresh")
}

func TestRecordVote_RollsOverBeforeCounting(t *testing.T) {
	h := newHarness(t)
	yesterday := h.clock.Now().Add(-24 * time.Hour)
	a := account("alice", types.PlatformSteem)
	a.DailyVotesCount = 2
	a.LastVoteAt = &yesterday
	h.seed(t, a)

	got, err := h.c.RecordVote("alice")
	require.NoError(t, err)
	assert.Equal(t, 1, got.DailyVotesCount)
}

func TestDayBoundaryFollowsLocation(t *testing.T) {
	tz := time.FixedZone("UTC+2", 2*3600)
	h := newHarness(t, func(c *Config) { c.Location = tz })
	// 23:30 UTC on the 9th is already 01:30 on the 10th at UTC+2.
	h.clock.t = time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	last := time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC) // 23:00 on the 9th at UTC+2
	a := account("alice", types.PlatformSteem)
	a.VotesPerDay = 1
	a.DailyVotesCount = 1
	a.LastVoteAt = &last
	h.seed(t, a)

	ok, err := h.c.CanVoteToday("alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVotes_UnknownAccount(t *testing.T) {
	h := newHarness(t)
	_, err := h.c.CanVoteToday("ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
	_, err = h.c.RecordVote("ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestViewsShowYesterdaysCounterAsZero(t *testing.T) {
	h := newHarness(t)
	yesterday := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	stale := account("alice", types.PlatformSteem)
	stale.VotesPerDay = 2
	stale.DailyVotesCount = 2
	stale.LastVoteAt = &yesterday
	h.seed(t, stale)

	visible := h.c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, 0, visible[0].DailyVotesCount)
	assert.False(t, visible[0].LimitReached())
	assert.Zero(t, visible[0].Progress())

	got, ok := h.c.Account("alice")
	require.True(t, ok)
	assert.Equal(t, 0, got.DailyVotesCount)

	stats := h.c.Stats()
	assert.Equal(t, 1, stats.Total)
	assert.Zero(t, stats.AtLimit)

	assert.Equal(t, 2, h.c.Accounts().List()[0].DailyVotesCount, "views do not rewrite state")
	assert.Equal(t, 2, h.mirror.LoadAccounts().List()[0].DailyVotesCount)
}

func TestViewsKeepTodaysCounter(t *testing.T) {
	h := newHarness(t)
	earlier := h.clock.Now().Add(-time.Hour)
	a := account("alice", types.PlatformSteem)
	a.VotesPerDay = 2
	a.DailyVotesCount = 2
	a.LastVoteAt = &earlier
	h.seed(t, a)

	assert.Equal(t, 2, h.c.Visible()[0].DailyVotesCount)
	assert.Equal(t, 1, h.c.Stats().AtLimit)
}
