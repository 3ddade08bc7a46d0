package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cur8/internal/curation"
	"cur8/internal/dispatch"
	"cur8/internal/logging"
	"cur8/internal/types"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DashboardState is the read side of the coordinator.
type DashboardState interface {
	Visible() []types.TrackedAccount
	Platform() types.Platform
	Theme() types.Theme
	Stats() types.Stats
}

// Dispatcher runs intents.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg dispatch.Message) (dispatch.Outcome, error)
}

// NoticeBuffer collects coordinator notices until the dashboard drains them.
type NoticeBuffer struct {
	mu      sync.Mutex
	notices []curation.Notice
}

func (b *NoticeBuffer) Notify(n curation.Notice) {
	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()
}

// Drain returns and clears the buffered notices.
func (b *NoticeBuffer) Drain() []curation.Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notices
	b.notices = nil
	return out
}

// DashboardOptions tunes the dashboard.
type DashboardOptions struct {
	MaxVoters int
	WrapWidth int
}

// SettingsMsg carries reloaded UI settings into a running dashboard.
type SettingsMsg DashboardOptions

type resultMsg struct {
	req dispatch.Message
	out dispatch.Outcome
	err error
}

type modal struct {
	title   string
	body    string
	loading bool
}

const (
	headerHeight = 2
	footerHeight = 1
)

// Dashboard is the interactive account view. Intents run one at a time,
// in the order they were requested; the view only reads state between
// intents.
type Dashboard struct {
	ctx        context.Context
	state      DashboardState
	dispatcher Dispatcher
	notices    *NoticeBuffer
	opts       DashboardOptions

	styles   Styles
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	accounts []types.TrackedAccount
	platform types.Platform
	stats    types.Stats
	posts    map[string]PostSlot
	cursor   int
	modal    *modal
	notice   *curation.Notice

	busy     bool
	inflight dispatch.Message
	queue    []dispatch.Message
}

// NewDashboard creates the dashboard. notices may be nil.
func NewDashboard(ctx context.Context, state DashboardState, d Dispatcher, notices *NoticeBuffer, opts DashboardOptions) Dashboard {
	if opts.MaxVoters <= 0 {
		opts.MaxVoters = DefaultMaxVoters
	}
	if opts.WrapWidth <= 0 {
		opts.WrapWidth = 80
	}
	if notices == nil {
		notices = &NoticeBuffer{}
	}

	styles := StylesFor(state.Theme())
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := Dashboard{
		ctx:        ctx,
		state:      state,
		dispatcher: d,
		notices:    notices,
		opts:       opts,
		styles:     styles,
		spinner:    sp,
		viewport:   viewport.New(80, 20),
		posts:      make(map[string]PostSlot),
		busy:       true,
		inflight:   dispatch.Message{Intent: dispatch.IntentLoadAccounts},
	}
	m.refresh()
	return m
}

func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(m.inflight))
}

func (m Dashboard) run(req dispatch.Message) tea.Cmd {
	ctx, d := m.ctx, m.dispatcher
	return func() tea.Msg {
		out, err := d.Dispatch(ctx, req)
		return resultMsg{req: req, out: out, err: err}
	}
}

// enqueue starts req now or after the intents already waiting.
func (m *Dashboard) enqueue(req dispatch.Message) tea.Cmd {
	if m.busy {
		m.queue = append(m.queue, req)
		return nil
	}
	m.busy = true
	m.inflight = req
	return m.run(req)
}

func (m *Dashboard) next() tea.Cmd {
	if m.busy || len(m.queue) == 0 {
		return nil
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	m.busy = true
	m.inflight = req
	return m.run(req)
}

// refresh copies coordinator state for the view and re-renders.
func (m *Dashboard) refresh() {
	m.accounts = m.state.Visible()
	m.platform = m.state.Platform()
	m.stats = m.state.Stats()
	if m.cursor >= len(m.accounts) {
		m.cursor = len(m.accounts) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.renderContent()
}

func (m *Dashboard) renderContent() {
	if m.modal != nil {
		body := m.modal.body
		if m.modal.loading {
			body = m.spinner.View() + " " + body
		}
		m.viewport.SetContent(RenderModal(m.styles, m.modal.title, body, 0))
		return
	}
	m.viewport.SetContent(RenderAccountList(m.styles, m.accounts, m.platform, m.posts, m.selected()))
}

func (m Dashboard) selected() string {
	if m.cursor < len(m.accounts) {
		return m.accounts[m.cursor].Handle
	}
	return ""
}

// lookups queues a latest-post fetch for every visible account without one.
func (m *Dashboard) lookups() tea.Cmd {
	var cmds []tea.Cmd
	for _, a := range m.accounts {
		if _, ok := m.posts[a.Handle]; ok {
			continue
		}
		m.posts[a.Handle] = PostSlot{State: PostLoading}
		cmds = append(cmds, m.enqueue(dispatch.Message{Intent: dispatch.IntentLatestPost, Handle: a.Handle}))
	}
	return tea.Batch(cmds...)
}

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 1)
		m.ready = true
		m.renderContent()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.modal != nil && m.modal.loading {
			m.renderContent()
		}
		return m, cmd

	case SettingsMsg:
		if msg.MaxVoters > 0 {
			m.opts.MaxVoters = msg.MaxVoters
		}
		if msg.WrapWidth > 0 {
			m.opts.WrapWidth = msg.WrapWidth
		}
		logging.UIDebug("dashboard settings reloaded: %+v", m.opts)
		return m, nil

	case resultMsg:
		m.busy = false
		m.apply(msg)
		m.refresh()
		cmds = append(cmds, m.next(), m.lookups())
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.renderContent()
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Dashboard) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit, true
	case "esc":
		if m.modal != nil {
			m.modal = nil
			return nil, true
		}
		return nil, false
	}
	if m.modal != nil {
		// Scrolling keys go to the viewport.
		return nil, false
	}

	handle := m.selected()
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return nil, true
	case "down", "j":
		if m.cursor < len(m.accounts)-1 {
			m.cursor++
		}
		return nil, true
	case "p":
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentSwitchPlatform, Platform: m.platform.Other()}), true
	case "t":
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentToggleTheme}), true
	case "i":
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentImportDelegators}), true
	case "r":
		m.posts = make(map[string]PostSlot)
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentLoadAccounts}), true
	case "v":
		if handle == "" {
			return nil, true
		}
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentRecordVote, Handle: handle}), true
	case "x", "delete":
		if handle == "" {
			return nil, true
		}
		return m.enqueue(dispatch.Message{Intent: dispatch.IntentDeleteAccount, Handle: handle}), true
	case "enter":
		return m.openVoters(handle), true
	}
	return nil, false
}

func (m *Dashboard) openVoters(handle string) tea.Cmd {
	slot, ok := m.posts[handle]
	if !ok || slot.State != PostLoaded {
		m.notice = &curation.Notice{Level: curation.LevelInfo, Message: "No post to analyse for @" + handle}
		return nil
	}
	ref := "@" + slot.Post.Author + "/" + slot.Post.Permlink
	m.modal = &modal{title: "Voters of " + ref, body: "Loading voters...", loading: true}
	return m.enqueue(dispatch.Message{Intent: dispatch.IntentShowVoters, PostRef: ref})
}

// apply folds an intent result into the view state.
func (m *Dashboard) apply(res resultMsg) {
	drained := m.notices.Drain()
	if len(drained) > 0 {
		last := drained[len(drained)-1]
		m.notice = &last
	}

	switch res.req.Intent {
	case dispatch.IntentLatestPost:
		m.posts[res.req.Handle] = LoadedPost(res.out.Post, res.err)
		return
	case dispatch.IntentShowVoters:
		if m.modal == nil {
			return
		}
		m.modal.loading = false
		if res.err != nil {
			m.modal.body = m.styles.Error.Render("Error loading voters: " + res.err.Error())
			return
		}
		md := VotersMarkdown(res.req.PostRef, *res.out.Voters, m.opts.MaxVoters)
		m.modal.body = RenderMarkdown(m.styles.Theme, m.opts.WrapWidth, md)
		return
	case dispatch.IntentDeleteAccount:
		delete(m.posts, res.req.Handle)
	case dispatch.IntentToggleTheme:
		if res.err == nil {
			m.styles = StylesFor(res.out.Theme)
			m.spinner.Style = m.styles.Spinner
		}
	}

	if res.err != nil && len(drained) == 0 {
		m.notice = &curation.Notice{Level: curation.LevelError, Message: res.err.Error()}
	}
}

func (m Dashboard) View() string {
	if !m.ready {
		return m.spinner.View() + " Loading accounts..."
	}

	header := m.styles.Header.Render(fmt.Sprintf("cur8 · %s", strings.ToUpper(string(m.platform))))
	counts := m.styles.Muted.Render(fmt.Sprintf("  %d tracked · %d steem · %d hive · %d at limit",
		m.stats.Total, m.stats.Steem, m.stats.Hive, m.stats.AtLimit))

	status := ""
	if m.busy {
		status = m.spinner.View() + " "
	}
	if m.notice != nil {
		status += RenderNotice(m.styles, *m.notice)
	}

	help := "↑/↓ select · enter voters · v vote · x delete · p platform · t theme · i import delegators · r reload · q quit"
	if m.modal != nil {
		help = "↑/↓ scroll · esc close · q quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header+counts,
		status,
		m.viewport.View(),
		m.styles.Footer.Render(help),
	)
}
