// Package types holds the data model shared by the client, the mirror store,
// the curation coordinator and the renderers.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Platform identifies one of the two supported content platforms.
type Platform string

const (
	PlatformSteem Platform = "steem"
	PlatformHive  Platform = "hive"
)

// Platforms lists the supported platforms in display order.
var Platforms = []Platform{PlatformSteem, PlatformHive}

// ParsePlatform normalises a platform name. Empty input maps to steem.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PlatformSteem):
		return PlatformSteem, nil
	case string(PlatformHive):
		return PlatformHive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, s)
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	return p == PlatformSteem || p == PlatformHive
}

// Other returns the opposite platform.
func (p Platform) Other() Platform {
	if p == PlatformHive {
		return PlatformSteem
	}
	return PlatformHive
}

// Theme is the persisted colour-scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Toggle flips between light and dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Validation bounds for tracked account settings.
const (
	MinVoteWeight   = 1
	MaxVoteWeight   = 100
	MinVotesPerDay  = 1
	MaxVotesPerDay  = 10
	MaxDelayMinutes = 1440
)

var (
	ErrUnknownPlatform    = errors.New("unknown platform")
	ErrInvalidHandle      = errors.New("invalid account handle")
	ErrInvalidWeight      = errors.New("vote weight must be between 1 and 100")
	ErrInvalidVotesPerDay = errors.New("votes per day must be between 1 and 10")
	ErrInvalidDelay       = errors.New("vote delay must be auto or between 1 and 1440 minutes")
)

// VoteDelay is a positive number of minutes or the automatic sentinel.
// On the wire it is either a JSON number or the string "auto".
type VoteDelay struct {
	Auto    bool
	Minutes float64
}

// AutoDelay is the "let the server pick the optimal time" sentinel.
var AutoDelay = VoteDelay{Auto: true}

// Minutes returns a fixed delay.
func Minutes(m float64) VoteDelay {
	return VoteDelay{Minutes: m}
}

// ParseVoteDelay accepts "auto" or a number of minutes.
func ParseVoteDelay(s string) (VoteDelay, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return AutoDelay, nil
	}
	m, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return VoteDelay{}, fmt.Errorf("%w: %q", ErrInvalidDelay, s)
	}
	d := Minutes(m)
	if err := d.Validate(); err != nil {
		return VoteDelay{}, err
	}
	return d, nil
}

// Validate checks the delay bounds.
func (d VoteDelay) Validate() error {
	if d.Auto {
		return nil
	}
	if d.Minutes <= 0 || d.Minutes > MaxDelayMinutes {
		return fmt.Errorf("%w: %v", ErrInvalidDelay, d.Minutes)
	}
	return nil
}

func (d VoteDelay) String() string {
	if d.Auto {
		return "auto"
	}
	return strconv.FormatFloat(d.Minutes, 'f', -1, 64) + " min"
}

func (d VoteDelay) MarshalJSON() ([]byte, error) {
	if d.Auto {
		return []byte(`"auto"`), nil
	}
	return json.Marshal(d.Minutes)
}

func (d *VoteDelay) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = AutoDelay
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := ParseVoteDelay(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}
	var m float64
	if err := json.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDelay, b)
	}
	*d = Minutes(m)
	return nil
}

// TrackedAccount is an author handle the bot evaluates for voting, plus the
// per-account voting configuration and the local daily-vote bookkeeping.
type TrackedAccount struct {
	Handle          string     `json:"username"`
	Platform        Platform   `json:"platform"`
	VoteDelay       VoteDelay  `json:"voteDelay"`
	UseOptimalTime  bool       `json:"useOptimalTime"`
	VoteWeight      int        `json:"voteWeight"`
	VotesPerDay     int        `json:"votesPerDay"`
	DailyVotesCount int        `json:"dailyVotesCount"`
	LastVoteAt      *time.Time `json:"lastVoteDate,omitempty"`
	DelegatedSP     *float64   `json:"sp_amount,omitempty"`
	IsDelegator     bool       `json:"is_delegator,omitempty"`
	CreatedAt       int64      `json:"timestamp,omitempty"`
	UpdatedAt       int64      `json:"lastUpdated,omitempty"`
}

// NewAccount returns an account with the default settings used for manual
// adds and delegator imports: automatic timing, full weight, one vote a day.
func NewAccount(handle string, platform Platform, now time.Time) TrackedAccount {
	return TrackedAccount{
		Handle:         NormalizeHandle(handle),
		Platform:       platform,
		VoteDelay:      AutoDelay,
		UseOptimalTime: true,
		VoteWeight:     MaxVoteWeight,
		VotesPerDay:    MinVotesPerDay,
		CreatedAt:      now.UnixMilli(),
	}
}

// NormalizeHandle strips whitespace, a leading "@" and lowercases the handle.
func NormalizeHandle(h string) string {
	h = strings.TrimSpace(h)
	h = strings.TrimPrefix(h, "@")
	return strings.ToLower(h)
}

// Validate checks every user-editable field.
func (a TrackedAccount) Validate() error {
	if a.Handle == "" || strings.ContainsAny(a.Handle, " /@") {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, a.Handle)
	}
	if !a.Platform.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, a.Platform)
	}
	if err := a.VoteDelay.Validate(); err != nil {
		return err
	}
	if a.VoteWeight < MinVoteWeight || a.VoteWeight > MaxVoteWeight {
		return fmt.Errorf("%w: %d", ErrInvalidWeight, a.VoteWeight)
	}
	if a.VotesPerDay < MinVotesPerDay || a.VotesPerDay > MaxVotesPerDay {
		return fmt.Errorf("%w: %d", ErrInvalidVotesPerDay, a.VotesPerDay)
	}
	return nil
}

// LimitReached reports whether the displayed counter has hit the daily cap.
func (a TrackedAccount) LimitReached() bool {
	return a.VotesPerDay > 0 && a.DailyVotesCount >= a.VotesPerDay
}

// Progress returns the fill ratio of the daily vote bar, capped at 1.
func (a TrackedAccount) Progress() float64 {
	if a.VotesPerDay <= 0 {
		return 0
	}
	p := float64(a.DailyVotesCount) / float64(a.VotesPerDay)
	if p > 1 {
		return 1
	}
	return p
}

// Clone returns a deep copy.
func (a TrackedAccount) Clone() TrackedAccount {
	c := a
	if a.LastVoteAt != nil {
		t := *a.LastVoteAt
		c.LastVoteAt = &t
	}
	if a.DelegatedSP != nil {
		sp := *a.DelegatedSP
		c.DelegatedSP = &sp
	}
	return c
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
