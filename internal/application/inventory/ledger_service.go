package inventory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/storeops/backend/internal/application/validation"
	"github.com/storeops/backend/internal/domain/ledger"
	"github.com/storeops/backend/internal/domain/material"
	"github.com/storeops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ErrExportStorageNotConfigured is returned when exports cannot be archived
var ErrExportStorageNotConfigured = shared.NewDomainError("EXPORT_STORAGE_NOT_CONFIGURED", "Export storage is not configured")

// DefaultExportLinkExpiry is how long an export download link stays valid
const DefaultExportLinkExpiry = 24 * time.Hour

// LedgerService reads and exports the stock ledger
type LedgerService struct {
	ledger    ledger.Repository
	materials material.Repository
	exporter  LedgerExporter
	storage   ExportStorage
	logger    *zap.Logger
}

// NewLedgerService creates a new LedgerService. storage may be nil, in which
// case exports can only be streamed.
func NewLedgerService(
	ledgerRepo ledger.Repository,
	materials material.Repository,
	exporter LedgerExporter,
	storage ExportStorage,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		ledger:    ledgerRepo,
		materials: materials,
		exporter:  exporter,
		storage:   storage,
		logger:    logger,
	}
}

// Query returns ledger entries oldest first, skipping q.Offset and capped at
// q.Limit (default 100)
func (s *LedgerService) Query(ctx context.Context, q LedgerQuery) ([]LedgerEntryResponse, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	entries, err := s.ledger.Query(ctx, ledger.Query{
		MaterialID:  q.MaterialID,
		VariationID: q.VariationID,
		Reason:      ledger.Reason(q.Reason),
		OrderID:     q.OrderID,
		From:        q.From,
		To:          q.To,
		Limit:       q.Limit,
		Offset:      q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return s.withNames(ctx, entries)
}

// ExportFormat returns the content type and file extension of exports
func (s *LedgerService) ExportFormat() (contentType, extension string) {
	return s.exporter.ContentType(), s.exporter.Extension()
}

// WriteExport renders the entries matched by q into w
func (s *LedgerService) WriteExport(ctx context.Context, q LedgerQuery, w io.Writer) (int, error) {
	entries, err := s.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	if err := s.exporter.Export(ctx, entries, w); err != nil {
		return 0, fmt.Errorf("render ledger export: %w", err)
	}
	return len(entries), nil
}

// ArchiveExport renders the entries matched by q, uploads the document and
// returns a time-limited download link.
func (s *LedgerService) ArchiveExport(ctx context.Context, q LedgerQuery) (*LedgerExportResponse, error) {
	if s.storage == nil {
		return nil, ErrExportStorageNotConfigured
	}
	var buf bytes.Buffer
	count, err := s.WriteExport(ctx, q, &buf)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("exports/ledger/%s-%s.%s", time.Now().UTC().Format("20060102T150405Z"), shared.NewID(), s.exporter.Extension())
	if err := s.storage.Upload(ctx, key, buf.Bytes(), s.exporter.ContentType()); err != nil {
		return nil, fmt.Errorf("upload ledger export: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, DefaultExportLinkExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign ledger export link: %w", err)
	}

	s.logger.Info("Ledger export archived", zap.String("storage_key", key), zap.Int("entries", count))
	return &LedgerExportResponse{
		StorageKey:  key,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
		EntryCount:  count,
	}, nil
}

func (s *LedgerService) withNames(ctx context.Context, entries []ledger.Entry) ([]LedgerEntryResponse, error) {
	out := make([]LedgerEntryResponse, 0, len(entries))
	if len(entries) == 0 {
		return out, nil
	}
	materials, err := s.materials.FindAllWithVariations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load materials: %w", err)
	}
	catalog := material.NewCatalog(materials)
	for _, e := range entries {
		resp := ToLedgerEntryResponse(e)
		if m, ok := catalog.FindMaterial(e.MaterialProductID.String()); ok {
			var v *material.Variation
			if e.MaterialVariationID != nil {
				v, _ = m.Variation(*e.MaterialVariationID)
			}
			resp.MaterialName = m.DisplayName(v)
		}
		out = append(out, resp)
	}
	return out, nil
}
