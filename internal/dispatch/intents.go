package dispatch

import (
	"context"
	"fmt"

	"cur8/internal/curation"
	"cur8/internal/types"
)

// Intent names a user action.
type Intent string

const (
	IntentLoadAccounts     Intent = "load-accounts"
	IntentAddAccount       Intent = "add-account"
	IntentEditAccount      Intent = "edit-account"
	IntentDeleteAccount    Intent = "delete-account"
	IntentClearAccounts    Intent = "clear-accounts"
	IntentSwitchPlatform   Intent = "switch-platform"
	IntentToggleTheme      Intent = "toggle-theme"
	IntentExport           Intent = "export"
	IntentImport           Intent = "import"
	IntentLatestPost       Intent = "latest-post"
	IntentShowVoters       Intent = "show-voters"
	IntentShowDelegators   Intent = "show-delegators"
	IntentAddDelegator     Intent = "add-delegator"
	IntentImportDelegators Intent = "import-delegators"
	IntentRecordVote       Intent = "record-vote"
	IntentCanVote          Intent = "can-vote"
	IntentStats            Intent = "stats"
	IntentChangeCurator    Intent = "change-curator"
)

// Message is a user intent with its arguments. Only the fields the intent
// needs are read.
type Message struct {
	Intent   Intent
	Handle   string
	Platform types.Platform
	Account  types.TrackedAccount
	Edit     curation.AccountEdit
	Path     string // export directory or import file
	PostRef  string
	Curator  types.CuratorUpdate
}

// Outcome carries whatever the intent produced.
type Outcome struct {
	Intent     Intent
	Source     curation.Source
	Account    *types.TrackedAccount
	Sync       *curation.SyncResult
	Syncs      []curation.SyncResult
	Tasks      []*curation.SyncTask
	Report     *curation.ImportReport
	Post       *types.Post
	Voters     *types.VotersResponse
	Delegators []types.Delegator
	Path       string
	Theme      types.Theme
	Platform   types.Platform
	CanVote    bool
	Stats      types.Stats
}

// Coordinator is the set of operations the table routes to.
type Coordinator interface {
	LoadAccounts(ctx context.Context) curation.Source
	AddAccount(ctx context.Context, a types.TrackedAccount) (curation.SyncResult, error)
	UpdateAccount(ctx context.Context, handle string, edit curation.AccountEdit) (types.TrackedAccount, curation.SyncResult, error)
	DeleteAccount(ctx context.Context, handle string) (curation.SyncResult, error)
	ClearAll(ctx context.Context) (curation.SyncResult, error)
	SwitchPlatform(p types.Platform) error
	ToggleTheme() (types.Theme, error)
	Export(dir string) (string, error)
	Import(ctx context.Context, path string) ([]curation.SyncResult, error)
	LatestPost(ctx context.Context, handle string) (*types.Post, error)
	Voters(ctx context.Context, ref string) (*types.VotersResponse, error)
	Delegators(ctx context.Context) ([]types.Delegator, error)
	AddDelegator(ctx context.Context, handle string) (*curation.SyncTask, error)
	ImportDelegators(ctx context.Context) (curation.ImportReport, error)
	RecordVote(handle string) (types.TrackedAccount, error)
	CanVoteToday(handle string) (bool, error)
	Stats() types.Stats
	ChangeCurator(ctx context.Context, u types.CuratorUpdate) (curation.ImportReport, error)
}

var _ Coordinator = (*curation.Coordinator)(nil)

func requireHandle(msg Message) error {
	if msg.Handle == "" {
		return fmt.Errorf("%w: handle for %s", ErrMissingField, msg.Intent)
	}
	return nil
}

// New returns a table with every intent bound to c.
func New(c Coordinator) *Table {
	t := NewTable()

	t.MustRegister(IntentLoadAccounts, func(ctx context.Context, msg Message) (Outcome, error) {
		return Outcome{Source: c.LoadAccounts(ctx)}, nil
	})
	t.MustRegister(IntentAddAccount, func(ctx context.Context, msg Message) (Outcome, error) {
		r, err := c.AddAccount(ctx, msg.Account)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Sync: &r}, nil
	})
	t.MustRegister(IntentEditAccount, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		a, r, err := c.UpdateAccount(ctx, msg.Handle, msg.Edit)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Account: &a, Sync: &r}, nil
	})
	t.MustRegister(IntentDeleteAccount, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		r, err := c.DeleteAccount(ctx, msg.Handle)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Sync: &r}, nil
	})
	t.MustRegister(IntentClearAccounts, func(ctx context.Context, msg Message) (Outcome, error) {
		r, err := c.ClearAll(ctx)
		return Outcome{Sync: &r}, err
	})
	t.MustRegister(IntentSwitchPlatform, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := c.SwitchPlatform(msg.Platform); err != nil {
			return Outcome{}, err
		}
		return Outcome{Platform: msg.Platform}, nil
	})
	t.MustRegister(IntentToggleTheme, func(ctx context.Context, msg Message) (Outcome, error) {
		theme, err := c.ToggleTheme()
		return Outcome{Theme: theme}, err
	})
	t.MustRegister(IntentExport, func(ctx context.Context, msg Message) (Outcome, error) {
		path, err := c.Export(msg.Path)
		return Outcome{Path: path}, err
	})
	t.MustRegister(IntentImport, func(ctx context.Context, msg Message) (Outcome, error) {
		if msg.Path == "" {
			return Outcome{}, fmt.Errorf("%w: path for %s", ErrMissingField, msg.Intent)
		}
		syncs, err := c.Import(ctx, msg.Path)
		return Outcome{Syncs: syncs, Path: msg.Path}, err
	})
	t.MustRegister(IntentLatestPost, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		post, err := c.LatestPost(ctx, msg.Handle)
		return Outcome{Post: post}, err
	})
	t.MustRegister(IntentShowVoters, func(ctx context.Context, msg Message) (Outcome, error) {
		if msg.PostRef == "" {
			return Outcome{}, fmt.Errorf("%w: post for %s", ErrMissingField, msg.Intent)
		}
		voters, err := c.Voters(ctx, msg.PostRef)
		return Outcome{Voters: voters}, err
	})
	t.MustRegister(IntentShowDelegators, func(ctx context.Context, msg Message) (Outcome, error) {
		list, err := c.Delegators(ctx)
		return Outcome{Delegators: list}, err
	})
	t.MustRegister(IntentAddDelegator, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		task, err := c.AddDelegator(ctx, msg.Handle)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Tasks: []*curation.SyncTask{task}}, nil
	})
	t.MustRegister(IntentImportDelegators, func(ctx context.Context, msg Message) (Outcome, error) {
		report, err := c.ImportDelegators(ctx)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Report: &report, Tasks: report.Syncs}, nil
	})
	t.MustRegister(IntentRecordVote, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		a, err := c.RecordVote(msg.Handle)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Account: &a}, nil
	})
	t.MustRegister(IntentCanVote, func(ctx context.Context, msg Message) (Outcome, error) {
		if err := requireHandle(msg); err != nil {
			return Outcome{}, err
		}
		ok, err := c.CanVoteToday(msg.Handle)
		return Outcome{CanVote: ok}, err
	})
	t.MustRegister(IntentStats, func(ctx context.Context, msg Message) (Outcome, error) {
		return Outcome{Stats: c.Stats()}, nil
	})
	t.MustRegister(IntentChangeCurator, func(ctx context.Context, msg Message) (Outcome, error) {
		report, err := c.ChangeCurator(ctx, msg.Curator)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Report: &report, Tasks: report.Syncs}, nil
	})

	return t
}
