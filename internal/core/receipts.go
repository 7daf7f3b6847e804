package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/tdfffffffff/bto-housing-management-system/internal/blob"
	"github.com/tdfffffffff/bto-housing-management-system/pkg/domain"
)

const receiptPrefix = "receipts/"

// ErrNoReceiptArchive is returned by receipt lookups when the service was built
// without WithReceiptArchive.
var ErrNoReceiptArchive = errors.New("receipt archive not configured")

// ReceiptArchive keeps booking receipts as JSON documents in a blob store,
// keyed receipts/<project>/<receipt>.json.
type ReceiptArchive struct {
	store     blob.Store
	urlExpiry time.Duration
}

// NewReceiptArchive wraps store. Presigned URLs expire after urlExpiry, or the
// blob default when zero.
func NewReceiptArchive(store blob.Store, urlExpiry time.Duration) *ReceiptArchive {
	return &ReceiptArchive{store: store, urlExpiry: urlExpiry}
}

// ReceiptKey returns the blob key for a receipt.
func ReceiptKey(projectID, receiptID string) string {
	return receiptPrefix + path.Join(projectID, receiptID+".json")
}

// Save writes r. Receipts are immutable, so saving the same receipt twice
// fails with blob.ErrExists.
func (a *ReceiptArchive) Save(ctx context.Context, r Receipt) (blob.Info, error) {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode receipt %s: %w", r.ID, err)
	}
	info, err := a.store.Put(ctx, ReceiptKey(r.ProjectID, r.ID), bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"application-id": r.ApplicationID,
			"applicant-nric": r.ApplicantNRIC,
			"flat-type":      string(r.FlatType),
		},
	})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store receipt %s: %w", r.ID, err)
	}
	return info, nil
}

// Get loads a receipt by ID. With a projectID the key is checked with one Head;
// without one every project's receipts are scanned.
func (a *ReceiptArchive) Get(ctx context.Context, projectID, receiptID string) (Receipt, error) {
	key, err := a.lookup(ctx, projectID, receiptID)
	if err != nil {
		return Receipt{}, err
	}
	return a.load(ctx, key)
}

// List returns the receipts of one project, or of all projects when projectID
// is empty, ordered by key.
func (a *ReceiptArchive) List(ctx context.Context, projectID string) ([]Receipt, error) {
	prefix := receiptPrefix
	if projectID != "" {
		prefix += projectID + "/"
	}
	infos, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	out := make([]Receipt, 0, len(infos))
	for _, info := range infos {
		r, err := a.load(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// URL returns a time-limited download link for a receipt. Drivers without
// presigning report blob.ErrUnsupported.
func (a *ReceiptArchive) URL(ctx context.Context, projectID, receiptID string) (string, error) {
	key, err := a.lookup(ctx, projectID, receiptID)
	if err != nil {
		return "", err
	}
	return a.store.PresignURL(ctx, key, blob.SignedURLOptions{Method: "GET", Expiry: a.urlExpiry})
}

func (a *ReceiptArchive) lookup(ctx context.Context, projectID, receiptID string) (string, error) {
	if projectID != "" {
		key := ReceiptKey(projectID, receiptID)
		if _, err := a.store.Head(ctx, key); err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				return "", domain.NotFound("receipt", receiptID)
			}
			return "", fmt.Errorf("head receipt %s: %w", key, err)
		}
		return key, nil
	}
	infos, err := a.store.List(ctx, receiptPrefix)
	if err != nil {
		return "", fmt.Errorf("list receipts: %w", err)
	}
	suffix := "/" + receiptID + ".json"
	for _, info := range infos {
		if strings.HasSuffix(info.Key, suffix) {
			return info.Key, nil
		}
	}
	return "", domain.NotFound("receipt", receiptID)
}

func (a *ReceiptArchive) load(ctx context.Context, key string) (Receipt, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return Receipt{}, fmt.Errorf("read receipt %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	var r Receipt
	if err := json.NewDecoder(rc).Decode(&r); err != nil {
		return Receipt{}, fmt.Errorf("decode receipt %s: %w", key, err)
	}
	return r, nil
}

// archiveReceipt stores a committed booking's receipt. The booking stands even
// when the archive write fails.
func (s *Service) archiveReceipt(ctx context.Context, r Receipt) {
	if s.receipts == nil {
		return
	}
	info, err := s.receipts.Save(ctx, r)
	if err != nil {
		s.logger.Error("archive receipt failed", "receipt_id", r.ID, "application_id", r.ApplicationID, "error", err)
		return
	}
	s.logger.Debug("receipt archived", "receipt_id", r.ID, "key", info.Key, "size", info.Size)
}

// GetReceipt loads an archived receipt. projectID may be empty when unknown.
func (s *Service) GetReceipt(ctx context.Context, projectID, receiptID string) (Receipt, error) {
	if s.receipts == nil {
		return Receipt{}, ErrNoReceiptArchive
	}
	return s.receipts.Get(ctx, projectID, receiptID)
}

// ListReceipts lists archived receipts, optionally for one project.
func (s *Service) ListReceipts(ctx context.Context, projectID string) ([]Receipt, error) {
	if s.receipts == nil {
		return nil, ErrNoReceiptArchive
	}
	return s.receipts.List(ctx, projectID)
}

// ReceiptURL returns a presigned download URL for an archived receipt.
func (s *Service) ReceiptURL(ctx context.Context, projectID, receiptID string) (string, error) {
	if s.receipts == nil {
		return "", ErrNoReceiptArchive
	}
	return s.receipts.URL(ctx, projectID, receiptID)
}
