// internal/storage/archive/archive.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/tkaraxa/sibyl/internal/storage/report"
)

// Archiver writes completed analysis reports to cold storage as JSON
// documents, keyed by asset and date so a day's output can be listed with a
// single prefix scan.
type Archiver struct {
	storage Storage
	logger  *zap.Logger
}

// NewArchiver creates an Archiver over the given backend.
func NewArchiver(storage Storage, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{storage: storage, logger: logger}
}

// Archive stores one report. Failures are returned, not fatal: callers
// treat archiving as best-effort.
func (a *Archiver) Archive(ctx context.Context, r report.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	path := fmt.Sprintf("%s/%s/%s.json",
		r.Analysis.Asset, r.CreatedAt.Format("2006-01-02"), r.ID)

	if err := a.storage.Write(ctx, path, data); err != nil {
		return fmt.Errorf("writing report %s: %w", r.ID, err)
	}

	a.logger.Debug("report archived",
		zap.String("id", r.ID),
		zap.String("path", path))
	return nil
}

// Load reads a report back from storage.
func (a *Archiver) Load(ctx context.Context, path string) (report.Report, error) {
	data, err := a.storage.Read(ctx, path)
	if err != nil {
		return report.Report{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var r report.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return report.Report{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return r, nil
}

// ListDay returns the storage paths of an asset's reports for one date
// (formatted 2006-01-02).
func (a *Archiver) ListDay(ctx context.Context, asset, date string) ([]string, error) {
	return a.storage.List(ctx, fmt.Sprintf("%s/%s", asset, date))
}
