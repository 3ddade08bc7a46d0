package ui

import (
	"context"
	"errors"
	"testing"

	"cur8/internal/curation"
	"cur8/internal/dispatch"
	"cur8/internal/types"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	accounts []types.TrackedAccount
	platform types.Platform
	theme    types.Theme
}

func (f *fakeState) Visible() []types.TrackedAccount {
	var out []types.TrackedAccount
	for _, a := range f.accounts {
		if a.Platform == f.platform {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeState) Platform() types.Platform { return f.platform }
func (f *fakeState) Theme() types.Theme       { return f.theme }
func (f *fakeState) Stats() types.Stats {
	return types.AccountsOf(f.accounts...).Stats()
}

// fakeDispatcher applies a few intents to fakeState, the way the
// coordinator would.
type fakeDispatcher struct {
	state   *fakeState
	notices *NoticeBuffer
	seen    []dispatch.Message
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, msg dispatch.Message) (dispatch.Outcome, error) {
	f.seen = append(f.seen, msg)
	switch msg.Intent {
	case dispatch.IntentLatestPost:
		if msg.Handle == "alice" {
			return dispatch.Outcome{Post: &types.Post{Author: "alice", Permlink: "hello", Title: "Hello"}}, nil
		}
		return dispatch.Outcome{}, nil
	case dispatch.IntentShowVoters:
		r := votersFixture(2)
		return dispatch.Outcome{Voters: &r}, nil
	case dispatch.IntentSwitchPlatform:
		f.state.platform = msg.Platform
	case dispatch.IntentToggleTheme:
		f.state.theme = f.state.theme.Toggle()
		return dispatch.Outcome{Theme: f.state.theme}, nil
	case dispatch.IntentRecordVote:
		f.notices.Notify(curation.Notice{Level: curation.LevelWarning, Message: "Daily vote limit reached for @" + msg.Handle})
	case dispatch.IntentDeleteAccount:
		for i, a := range f.state.accounts {
			if a.Handle == msg.Handle {
				f.state.accounts = append(f.state.accounts[:i], f.state.accounts[i+1:]...)
				break
			}
		}
	case dispatch.IntentImportDelegators:
		return dispatch.Outcome{}, errors.New("server unavailable")
	}
	return dispatch.Outcome{}, nil
}

func (f *fakeDispatcher) intents() []dispatch.Intent {
	var out []dispatch.Intent
	for _, m := range f.seen {
		out = append(out, m.Intent)
	}
	return out
}

func newTestDashboard(t *testing.T) (Dashboard, *fakeDispatcher) {
	t.Helper()
	state := &fakeState{
		platform: types.PlatformSteem,
		theme:    types.ThemeLight,
		accounts: []types.TrackedAccount{
			testAccount("alice", types.PlatformSteem, 0, 2),
			testAccount("bob", types.PlatformSteem, 0, 1),
			testAccount("carol", types.PlatformHive, 0, 1),
		},
	}
	notices := &NoticeBuffer{}
	d := &fakeDispatcher{state: state, notices: notices}
	m := NewDashboard(context.Background(), state, d, notices, DashboardOptions{})

	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(Dashboard)

	// Init's load-accounts intent.
	m = drive(t, m, m.run(m.inflight)())
	return m, d
}

// drive feeds msg to the model and keeps running the intents it starts
// until the queue is idle.
func drive(t *testing.T, m Dashboard, msg tea.Msg) Dashboard {
	t.Helper()
	pending := []tea.Msg{msg}
	for steps := 0; len(pending) > 0; steps++ {
		require.Less(t, steps, 100, "dashboard never settled")
		next := pending[0]
		pending = pending[1:]
		model, cmd := m.Update(next)
		m = model.(Dashboard)
		pending = append(pending, results(cmd)...)
	}
	return m
}

func results(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, results(c)...)
		}
		return out
	case resultMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestDashboard_LoadsLatestPostsAfterAccounts(t *testing.T) {
	m, d := newTestDashboard(t)

	assert.Equal(t, []dispatch.Intent{
		dispatch.IntentLoadAccounts,
		dispatch.IntentLatestPost,
		dispatch.IntentLatestPost,
	}, d.intents())
	assert.Equal(t, PostLoaded, m.posts["alice"].State)
	assert.Equal(t, PostNone, m.posts["bob"].State)
	assert.False(t, m.busy)

	view := m.View()
	assert.Contains(t, view, "@alice")
	assert.Contains(t, view, "Hello")
	assert.NotContains(t, view, "@carol")
}

func TestDashboard_IntentsRunOneAtATime(t *testing.T) {
	m, _ := newTestDashboard(t)

	cmd, handled := m.handleKey(key("t"))
	require.True(t, handled)
	require.NotNil(t, cmd)
	require.True(t, m.busy)

	cmd, _ = m.handleKey(key("v"))
	assert.Nil(t, cmd, "second intent waits")
	require.Len(t, m.queue, 1)
	assert.Equal(t, dispatch.IntentRecordVote, m.queue[0].Intent)
}

func TestDashboard_SwitchPlatformFetchesNewPosts(t *testing.T) {
	m, d := newTestDashboard(t)
	d.seen = nil

	m = drive(t, m, key("p"))

	assert.Equal(t, types.PlatformHive, m.platform)
	assert.Equal(t, []dispatch.Intent{dispatch.IntentSwitchPlatform, dispatch.IntentLatestPost}, d.intents())
	assert.Equal(t, "carol", d.seen[1].Handle)
	assert.Contains(t, m.View(), "@carol")
}

func TestDashboard_VoteShowsCoordinatorNotice(t *testing.T) {
	m, d := newTestDashboard(t)
	d.seen = nil

	m = drive(t, m, key("v"))

	require.Len(t, d.seen, 1)
	assert.Equal(t, "alice", d.seen[0].Handle)
	assert.Contains(t, m.View(), "Daily vote limit reached for @alice")
}

func TestDashboard_DeleteSelected(t *testing.T) {
	m, d := newTestDashboard(t)
	d.seen = nil

	m = drive(t, m, key("down"))
	m = drive(t, m, key("x"))

	require.Len(t, d.seen, 1)
	assert.Equal(t, "bob", d.seen[0].Handle)
	assert.NotContains(t, m.posts, "bob")
	assert.Equal(t, 0, m.cursor, "cursor clamps to the remaining accounts")
}

func TestDashboard_VotersModal(t *testing.T) {
	m, d := newTestDashboard(t)
	d.seen = nil

	m = drive(t, m, key("enter"))

	require.Len(t, d.seen, 1)
	assert.Equal(t, "@alice/hello", d.seen[0].PostRef)
	require.NotNil(t, m.modal)
	assert.False(t, m.modal.loading)
	assert.Contains(t, m.View(), "voter01")

	m = drive(t, m, key("esc"))
	assert.Nil(t, m.modal)
	assert.Contains(t, m.View(), "@alice")
}

func TestDashboard_VotersNeedAPost(t *testing.T) {
	m, d := newTestDashboard(t)
	d.seen = nil

	m = drive(t, m, key("down"))
	m = drive(t, m, key("enter"))

	assert.Empty(t, d.seen)
	assert.Nil(t, m.modal)
	require.NotNil(t, m.notice)
	assert.Contains(t, m.notice.Message, "@bob")
}

func TestDashboard_ErrorsWithoutNoticeAreShown(t *testing.T) {
	m, _ := newTestDashboard(t)

	m = drive(t, m, key("i"))

	require.NotNil(t, m.notice)
	assert.Equal(t, curation.LevelError, m.notice.Level)
	assert.Contains(t, m.View(), "server unavailable")
}

func TestDashboard_ToggleTheme(t *testing.T) {
	m, _ := newTestDashboard(t)
	require.False(t, m.styles.Theme.IsDark)

	m = drive(t, m, key("t"))
	assert.True(t, m.styles.Theme.IsDark)
}

func TestDashboard_SettingsReload(t *testing.T) {
	m, _ := newTestDashboard(t)

	model, _ := m.Update(SettingsMsg{MaxVoters: 3})
	m = model.(Dashboard)
	assert.Equal(t, 3, m.opts.MaxVoters)
	assert.Equal(t, 80, m.opts.WrapWidth)
}

func TestDashboard_Quit(t *testing.T) {
	m, _ := newTestDashboard(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
