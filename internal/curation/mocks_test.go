package curation

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cur8/internal/api"
	"cur8/internal/store"
	"cur8/internal/types"
)

func result(ok bool) api.Result {
	if ok {
		return api.Result{OK: true, Status: 200, Attempts: 1}
	}
	return api.Result{Error: "HTTP 503: unavailable", Status: 503, Attempts: 3}
}

// fakeAPI records every call. Syncs run on other goroutines, so all access
// goes through mu.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	added []types.TrackedAccount

	listed     *types.Accounts
	listOK     bool
	writeOK    bool
	failAdd    map[string]bool
	delegators *types.DelegatorsResponse
	voters     *types.VotersResponse
	votersURL  string
	minImp     float64
	curatorOK  bool

	onList func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{listOK: true, writeOK: true, curatorOK: true, failAdd: map[string]bool{}}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) ListAccounts(ctx context.Context) (*types.Accounts, api.Result) {
	f.record("GET /users")
	if f.onList != nil {
		f.onList()
	}
	if !f.listOK {
		return nil, result(false)
	}
	if f.listed == nil {
		return types.NewAccounts(), result(true)
	}
	return f.listed.Clone(), result(true)
}

func (f *fakeAPI) AddAccount(ctx context.Context, a types.TrackedAccount) api.Result {
	f.record("POST /users " + a.Handle)
	f.mu.Lock()
	f.added = append(f.added, a)
	fail := f.failAdd[a.Handle]
	f.mu.Unlock()
	return result(f.writeOK && !fail)
}

func (f *fakeAPI) UpdateAccount(ctx context.Context, a types.TrackedAccount) api.Result {
	f.record("PUT /users/" + a.Handle)
	return result(f.writeOK)
}

func (f *fakeAPI) DeleteAccount(ctx context.Context, handle string) api.Result {
	f.record("DELETE /users/" + handle)
	return result(f.writeOK)
}

func (f *fakeAPI) ClearAccounts(ctx context.Context) api.Result {
	f.record("POST /users/clear")
	return result(f.writeOK)
}

func (f *fakeAPI) PostVoters(ctx context.Context, postURL string, minImportance float64) (*types.VotersResponse, api.Result) {
	f.record("GET /api/post_voters")
	f.mu.Lock()
	f.votersURL, f.minImp = postURL, minImportance
	f.mu.Unlock()
	if f.voters == nil {
		return nil, result(false)
	}
	return f.voters, result(true)
}

func (f *fakeAPI) Delegators(ctx context.Context, platform types.Platform) (*types.DelegatorsResponse, api.Result) {
	f.record("GET /api/delegators/" + string(platform))
	if f.delegators == nil {
		return nil, result(false)
	}
	return f.delegators, result(true)
}

func (f *fakeAPI) UpdateCurator(ctx context.Context, u types.CuratorUpdate) api.Result {
	f.record(fmt.Sprintf("POST /api/curator/update %s %s", u.Platform, u.Username))
	return result(f.curatorOK)
}

type fakeChain struct {
	known map[string]bool
	err   error
	posts map[string]*types.Post
	asked []types.Platform
}

func (f *fakeChain) AccountExists(ctx context.Context, platform types.Platform, handle string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.known[handle], nil
}

func (f *fakeChain) LatestPost(ctx context.Context, platform types.Platform, handle string) (*types.Post, error) {
	f.asked = append(f.asked, platform)
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[handle], nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(x Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, x)
	n.mu.Unlock()
}

func (n *noticeLog) Last() Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return Notice{}
	}
	return n.notices[len(n.notices)-1]
}

func (n *noticeLog) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notices))
	for i, x := range n.notices {
		out[i] = x.Message
	}
	return out
}

func openMirror(t *testing.T) *store.MirrorStore {
	t.Helper()
	m, err := store.Open(store.DriverModernc, filepath.Join(t.TempDir(), "mirror.db"))
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

type harness struct {
	c      *Coordinator
	api    *fakeAPI
	mirror *store.MirrorStore
	clock  *clock
	notes  *noticeLog
}

func newHarness(t *testing.T, opts ...func(*Config)) *harness {
	t.Helper()
	h := &harness{
		api:    newFakeAPI(),
		mirror: openMirror(t),
		clock:  &clock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		notes:  &noticeLog{},
	}
	cfg := Config{
		API:      h.api,
		Mirror:   h.mirror,
		Notifier: h.notes,
		Clock:    h.clock.Now,
		Location: time.UTC,
	}
	for _, o := range opts {
		o(&cfg)
	}
	h.c = New(cfg)
	t.Cleanup(func() { h.c.WaitSyncs() })
	return h
}

// seed puts accounts into both the mirror and the coordinator.
func (h *harness) seed(t *testing.T, list ...types.TrackedAccount) {
	t.Helper()
	if err := h.mirror.SaveAccounts(types.AccountsOf(list...)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.c.accounts = h.mirror.LoadAccounts()
}

func account(handle string, platform types.Platform) types.TrackedAccount {
	return types.TrackedAccount{
		Handle:      handle,
		Platform:    platform,
		VoteDelay:   types.Minutes(10),
		VoteWeight:  50,
		VotesPerDay: 2,
	}
}
