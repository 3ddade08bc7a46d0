package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"cur8/internal/logging"
	"cur8/internal/types"
)

// SnapshotFileName returns curation-data-YYYY-MM-DD.json for the day of t in
// its own location. Exports pass the UTC export date.
func SnapshotFileName(t time.Time) string {
	return fmt.Sprintf("curation-data-%s.json", t.Format("2006-01-02"))
}

// ExportSnapshot writes snap as indented JSON.
func (s *MirrorStore) ExportSnapshot(w io.Writer, snap types.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		logging.StoreWarn("Error exporting data: %v", err)
		return fmt.Errorf("failed to export snapshot: %w", err)
	}
	return nil
}

// ExportToFile writes snap into dir under the dated export name and returns
// the file path.
func (s *MirrorStore) ExportToFile(dir string, snap types.Snapshot) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.StoreWarn("Error exporting data: %v", err)
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, SnapshotFileName(snap.ExportDate.UTC()))

	tmp, err := os.CreateTemp(dir, ".curation-export-*")
	if err != nil {
		logging.StoreWarn("Error exporting data: %v", err)
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.ExportSnapshot(tmp, snap); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		logging.StoreWarn("Error exporting data: %v", err)
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	logging.Store("exported %d account(s) to %s", snap.Users.Len(), path)
	return path, nil
}

// ImportResult is the outcome of ImportSnapshot.
type ImportResult struct {
	OK       bool
	Snapshot types.Snapshot
	Err      error
}

// ImportSnapshot reads and validates an export file. The file is read on a
// separate goroutine; cancelling ctx abandons the wait. It never panics and
// reports failures through the result.
func (s *MirrorStore) ImportSnapshot(ctx context.Context, path string) ImportResult {
	type readResult struct {
		data []byte
		err  error
	}
	ch := make(chan readResult, 1)
	go func() {
		data, err := os.ReadFile(path)
		ch <- readResult{data: data, err: err}
	}()

	var rr readResult
	select {
	case <-ctx.Done():
		err := fmt.Errorf("import cancelled: %w", ctx.Err())
		logging.StoreWarn("Error importing data: %v", err)
		return ImportResult{Err: err}
	case rr = <-ch:
	}

	if rr.err != nil {
		logging.StoreWarn("Error importing data: %v", rr.err)
		return ImportResult{Err: fmt.Errorf("failed to read import file: %w", rr.err)}
	}
	snap, err := types.DecodeSnapshot(rr.data)
	if err != nil {
		logging.StoreWarn("Error importing data: %v", err)
		return ImportResult{Err: err}
	}
	logging.Store("read snapshot with %d account(s) from %s", snap.Users.Len(), path)
	return ImportResult{OK: true, Snapshot: snap}
}
