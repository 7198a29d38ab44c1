package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/predictdash/internal/domain"
)

const contentTypeJSONL = "application/x-ndjson"

// PurchaseSource is the part of the purchase journal the archiver reads and
// prunes.
type PurchaseSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.Purchase, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// ArchiverConfig controls the archive job.
type ArchiverConfig struct {
	// DeleteAfterUpload prunes archived rows once the upload succeeded.
	DeleteAfterUpload bool
	PartSize          int64
}

// Archiver implements domain.Archiver by exporting old purchases as JSONL.
type Archiver struct {
	writer    domain.BlobWriter
	purchases PurchaseSource
	audit     domain.AuditStore
	cfg       ArchiverConfig
	logger    *slog.Logger
}

// NewArchiver creates an Archiver. audit may be nil.
func NewArchiver(writer domain.BlobWriter, purchases PurchaseSource, audit domain.AuditStore, cfg ArchiverConfig, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:    writer,
		purchases: purchases,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "archiver")),
	}
}

// ArchivePurchases uploads every purchase created before the cutoff and
// returns how many were archived. Rows are only deleted after the upload
// succeeded.
func (a *Archiver) ArchivePurchases(ctx context.Context, before time.Time) (int64, error) {
	purchases, err := a.purchases.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive purchases query: %w", err)
	}
	if len(purchases) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(purchases)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive purchases marshal: %w", err)
	}

	path := archivePath("purchases", before)
	if err := a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), a.cfg.PartSize); err != nil {
		return 0, fmt.Errorf("s3blob: archive purchases upload: %w", err)
	}
	count := int64(len(purchases))

	var deleted int64
	if a.cfg.DeleteAfterUpload {
		deleted, err = a.purchases.DeleteBefore(ctx, before)
		if err != nil {
			return count, fmt.Errorf("s3blob: archive purchases prune: %w", err)
		}
	}

	a.logger.InfoContext(ctx, "purchases archived",
		slog.String("path", path),
		slog.Int64("count", count),
		slog.Int64("deleted", deleted),
	)

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.purchases", map[string]any{
			"path":    path,
			"count":   count,
			"deleted": deleted,
			"before":  before.UTC().Format(time.RFC3339),
		}); err != nil {
			return count, fmt.Errorf("s3blob: archive purchases audit log: %w", err)
		}
	}
	return count, nil
}

// archivePath partitions archives by the cutoff month, one file per cutoff:
//
//	archive/purchases/2025-01/20250131T000000Z.jsonl
func archivePath(kind string, before time.Time) string {
	before = before.UTC()
	return fmt.Sprintf("archive/%s/%s/%s.jsonl", kind, before.Format("2006-01"), before.Format("20060102T150405Z"))
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*Archiver)(nil)
