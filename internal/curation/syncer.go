package curation

import (
	"context"
	"sync"

	"cur8/internal/api"
	"cur8/internal/logging"

	"golang.org/x/sync/errgroup"
)

// SyncOp names the server mutation a background sync performs.
type SyncOp string

const (
	SyncAdd    SyncOp = "add"
	SyncUpdate SyncOp = "update"
	SyncDelete SyncOp = "delete"
	SyncClear  SyncOp = "clear"
)

// DefaultSyncConcurrency bounds in-flight server syncs.
const DefaultSyncConcurrency = 4

// MaxSyncResults is how many finished results a Syncer keeps for Wait.
// Older ones are dropped; every result is logged when it completes.
const MaxSyncResults = 256

// SyncResult is the outcome of one best-effort server sync.
type SyncResult struct {
	Op       SyncOp
	Handle   string
	OK       bool
	Error    string
	Attempts int
}

// SyncTask is a handle on one background sync. Done delivers exactly one
// result and is then never written again.
type SyncTask struct {
	Op     SyncOp
	Handle string
	done   chan SyncResult
}

// Done returns the channel the result is delivered on.
func (t *SyncTask) Done() <-chan SyncResult {
	return t.done
}

// Wait blocks for the result or until ctx is done.
func (t *SyncTask) Wait(ctx context.Context) (SyncResult, bool) {
	select {
	case r := <-t.done:
		return r, true
	case <-ctx.Done():
		return SyncResult{Op: t.Op, Handle: t.Handle, Error: ctx.Err().Error()}, false
	}
}

// Syncer runs server syncs in the background with bounded concurrency.
// Local state is already updated when a sync is started; failures are only
// logged and reported on the task.
type Syncer struct {
	g       *errgroup.Group
	pending sync.WaitGroup

	mu         sync.Mutex
	results    []SyncResult
	maxResults int
	dropped    int
}

// NewSyncer creates a Syncer running at most limit syncs at once.
func NewSyncer(limit int) *Syncer {
	if limit < 1 {
		limit = DefaultSyncConcurrency
	}
	g := new(errgroup.Group)
	g.SetLimit(limit)
	return &Syncer{g: g, maxResults: MaxSyncResults}
}

// Go starts fn in the background and returns its task. It never blocks on
// the concurrency limit.
func (s *Syncer) Go(ctx context.Context, op SyncOp, handle string, fn func(context.Context) api.Result) *SyncTask {
	task := &SyncTask{Op: op, Handle: handle, done: make(chan SyncResult, 1)}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.g.Go(func() error {
			res := fn(ctx)
			r := SyncResult{Op: op, Handle: handle, OK: res.OK, Error: res.Error, Attempts: res.Attempts}
			if r.OK {
				logging.SyncInfo("%s @%s synced", op, handle)
			} else {
				logging.SyncWarn("%s @%s sync failed after %d attempt(s): %s", op, handle, res.Attempts, res.Error)
			}
			s.record(r)
			task.done <- r
			return nil
		})
	}()
	return task
}

func (s *Syncer) record(r SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) >= s.maxResults {
		n := len(s.results) - s.maxResults + 1
		s.results = append(s.results[:0], s.results[n:]...)
		s.dropped += n
	}
	s.results = append(s.results, r)
}

// Wait blocks until every started sync has finished and returns the most
// recent MaxSyncResults results in completion order. The collected results
// are reset.
func (s *Syncer) Wait() []SyncResult {
	s.pending.Wait()
	_ = s.g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropped > 0 {
		logging.SyncDebug("%d older sync result(s) were not kept", s.dropped)
	}
	out := s.results
	s.results = nil
	s.dropped = 0
	return out
}
