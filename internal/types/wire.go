package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is written into every export file.
const SnapshotVersion = "1.0"

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the export/import file format.
type Snapshot struct {
	Users           *Accounts `json:"users"`
	CurrentPlatform Platform  `json:"currentPlatform"`
	ExportDate      time.Time `json:"exportDate"`
	Version         string    `json:"version"`
}

// NewSnapshot captures accounts and the active platform at now.
func NewSnapshot(accounts *Accounts, platform Platform, now time.Time) Snapshot {
	return Snapshot{
		Users:           accounts.Clone(),
		CurrentPlatform: platform,
		ExportDate:      now.UTC(),
		Version:         SnapshotVersion,
	}
}

// DecodeSnapshot parses an export file. The users field must be present and
// an array; a missing platform defaults to steem.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var probe struct {
		Users json.RawMessage `json:"users"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(probe.Users) == 0 || probe.Users[0] != '[' {
		return Snapshot{}, fmt.Errorf("%w: users must be an array", ErrInvalidSnapshot)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.CurrentPlatform == "" {
		snap.CurrentPlatform = PlatformSteem
	}
	if !snap.CurrentPlatform.Valid() {
		return Snapshot{}, fmt.Errorf("%w: platform %q", ErrInvalidSnapshot, snap.CurrentPlatform)
	}
	return snap, nil
}

// ServerAccount is one element of GET /users.
type ServerAccount struct {
	Username string         `json:"username"`
	Data     TrackedAccount `json:"data"`
}

// Delegator is an account delegating stake to the curator.
type Delegator struct {
	Delegator     string  `json:"delegator"`
	Delegatee     string  `json:"delegatee"`
	SPAmount      float64 `json:"sp_amount"`
	Timestamp     string  `json:"timestamp"`
	VestingShares string  `json:"vesting_shares"`
}

// DelegatorsResponse is returned by GET /api/delegators/{platform}.
type DelegatorsResponse struct {
	Delegators []Delegator `json:"delegators"`
	Total      int         `json:"total"`
	Status     string      `json:"status"`
	Curator    string      `json:"curator"`
}

// Voter is one ranked voter of a post.
type Voter struct {
	Voter            string  `json:"voter"`
	Weight           float64 `json:"weight"`
	VoteDelayMinutes float64 `json:"vote_delay_minutes"`
	VoteValue        float64 `json:"steem_vote_value"`
	Importance       float64 `json:"importance"`
}

// WeightPercent converts the raw basis-point weight to a percentage.
func (v Voter) WeightPercent() float64 {
	return v.Weight / 100
}

// OptimalVoteTime is the server's timing recommendation for a post.
type OptimalVoteTime struct {
	OptimalTime float64    `json:"optimal_time"`
	VoteWindow  [2]float64 `json:"vote_window"`
	Explanation string     `json:"explanation"`
	TopVoters   []string   `json:"top_voters"`
}

// VotersResponse is returned by GET /api/post_voters.
type VotersResponse struct {
	Voters          []Voter          `json:"voters"`
	TotalVoters     int              `json:"total_voters"`
	Platform        string           `json:"platform,omitempty"`
	OptimalVoteTime *OptimalVoteTime `json:"optimal_vote_time,omitempty"`
}

// IsKeyVoter reports whether voter is one of the recommended top voters.
func (r VotersResponse) IsKeyVoter(voter string) bool {
	if r.OptimalVoteTime == nil {
		return false
	}
	for _, v := range r.OptimalVoteTime.TopVoters {
		if v == voter {
			return true
		}
	}
	return false
}

// TestMode is the server-side dry-run flag.
type TestMode struct {
	TestMode bool `json:"test_mode"`
}

// CuratorInfo reports which curator credentials are configured.
type CuratorInfo struct {
	Username      string `json:"username"`
	PostingKeySet bool   `json:"posting_key_set"`
	ActiveKeySet  bool   `json:"active_key_set"`
}

// CuratorUpdate sets the curator identity and keys for one platform.
type CuratorUpdate struct {
	Platform   Platform `json:"platform"`
	Username   string   `json:"username"`
	PostingKey string   `json:"posting_key,omitempty"`
	ActiveKey  string   `json:"active_key,omitempty"`
}

// BotInfo reports the messaging bot configuration.
type BotInfo struct {
	AdminIDs    string `json:"admin_ids"`
	BotToken    string `json:"bot_token,omitempty"`
	MaskedToken string `json:"masked_token"`
	TokenSet    bool   `json:"token_set"`
}

// BotUpdate sets bot admins and, optionally, a new token.
type BotUpdate struct {
	AdminIDs string `json:"admin_ids"`
	BotToken string `json:"bot_token,omitempty"`
}

// MessageResponse is the generic {message, error} reply.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Post is the latest blog entry of a tracked account.
type Post struct {
	Author   string    `json:"author"`
	Permlink string    `json:"permlink"`
	Title    string    `json:"title"`
	Created  time.Time `json:"created"`
	Platform Platform  `json:"platform"`
}
