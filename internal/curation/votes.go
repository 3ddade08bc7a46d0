package curation

import (
	"fmt"
	"time"

	"cur8/internal/logging"
	"cur8/internal/types"
)

// startOfDay is local midnight of the day t falls on.
func (c *Coordinator) startOfDay(t time.Time) time.Time {
	t = t.In(c.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// rollover resets the counter of a when its last vote was before today.
// It reports whether a reset happened.
func (c *Coordinator) rollover(a *types.TrackedAccount) bool {
	if a.VotesPerDay <= 0 {
		a.VotesPerDay = types.MinVotesPerDay
	}
	if a.LastVoteAt == nil || a.LastVoteAt.Before(c.startOfDay(c.now())) {
		a.DailyVotesCount = 0
		return true
	}
	return false
}

// CanVoteToday reports whether handle is still under its daily vote cap.
// A counter left over from a previous day is reset in memory.
func (c *Coordinator) CanVoteToday(handle string) (bool, error) {
	handle = types.NormalizeHandle(handle)
	a, ok := c.accounts.Get(handle)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownAccount, handle)
	}
	if c.rollover(&a) {
		c.accounts.Set(a)
		return true, nil
	}
	return a.DailyVotesCount < a.VotesPerDay, nil
}

// RecordVote counts one vote for handle today and persists the counter.
// Reaching the cap raises an info notice; further votes are still counted.
func (c *Coordinator) RecordVote(handle string) (types.TrackedAccount, error) {
	handle = types.NormalizeHandle(handle)
	a, ok := c.accounts.Get(handle)
	if !ok {
		return types.TrackedAccount{}, fmt.Errorf("%w: %s", ErrUnknownAccount, handle)
	}
	c.rollover(&a)

	now := c.now()
	a.DailyVotesCount++
	a.LastVoteAt = &now
	c.accounts.Set(a)
	c.persist()

	logging.Curation("Updated vote counter for %s: %d/%d votes today", handle, a.DailyVotesCount, a.VotesPerDay)
	if a.DailyVotesCount >= a.VotesPerDay {
		c.info("Daily vote limit reached for @%s (%d votes)", handle, a.VotesPerDay)
	}
	return a.Clone(), nil
}
