package curation

import (
	"context"
	"fmt"

	"cur8/internal/api"
	"cur8/internal/logging"
	"cur8/internal/types"
)

// Snapshot captures the accounts and the active platform.
func (c *Coordinator) Snapshot() types.Snapshot {
	return types.NewSnapshot(c.accounts, c.platform, c.now())
}

// Export writes a snapshot into dir and returns the file path.
func (c *Coordinator) Export(dir string) (string, error) {
	path, err := c.mirror.ExportToFile(dir, c.Snapshot())
	if err != nil {
		c.failure("Error exporting data!")
		return "", err
	}
	c.success("Data exported successfully!")
	return path, nil
}

// Import reads a snapshot file, pushes every account to the server and then
// replaces the local state with the snapshot whatever the server answered.
// A file that cannot be read or decoded leaves the state untouched.
func (c *Coordinator) Import(ctx context.Context, path string) ([]SyncResult, error) {
	res := c.mirror.ImportSnapshot(ctx, path)
	if !res.OK {
		c.failure("Error importing data: %v", res.Err)
		return nil, fmt.Errorf("import failed: %w", res.Err)
	}
	snap := res.Snapshot

	tasks := make([]*SyncTask, 0, snap.Users.Len())
	for _, a := range snap.Users.List() {
		tasks = append(tasks, c.syncer.Go(ctx, SyncAdd, a.Handle, func(ctx context.Context) api.Result {
			return c.api.AddAccount(ctx, a)
		}))
	}
	results := make([]SyncResult, 0, len(tasks))
	synced := true
	for _, t := range tasks {
		r, _ := t.Wait(ctx)
		if !r.OK {
			logging.CurationWarn("Failed to sync user %s with API", t.Handle)
			synced = false
		}
		results = append(results, r)
	}

	c.accounts = snap.Users.Clone()
	c.platform = snap.CurrentPlatform
	c.persist()

	if synced {
		c.success("Data imported and synced with API successfully!")
	} else {
		c.info("Data imported locally. API sync failed.")
	}
	return results, nil
}
