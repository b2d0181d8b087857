package places

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keyxmakerx/placekit/internal/apperror"
)

// BulkOperation names a bulk mutation.
type BulkOperation string

// Supported bulk operations.
const (
	OpUpdateStatus BulkOperation = "updateStatus"
	OpDelete       BulkOperation = "delete"
	OpToggleActive BulkOperation = "toggleActive"
)

// Per-record failure reasons reported in a BulkReport.
const (
	ReasonNotFound = "not found"
	ReasonInternal = "internal error"
)

// BulkRequest asks for one operation over many places.
type BulkRequest struct {
	IDs       []string
	Operation BulkOperation
	// Status is the target status for OpUpdateStatus.
	Status string
}

// BulkItem is a place ID with the reason it was not mutated.
type BulkItem struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkReport lists the outcome of every requested ID. Each distinct ID
// appears in exactly one list.
type BulkReport struct {
	Succeeded []string   `json:"succeeded"`
	Failed    []BulkItem `json:"failed"`
	Skipped   []BulkItem `json:"skipped"`
}

func newBulkReport() *BulkReport {
	return &BulkReport{
		Succeeded: []string{},
		Failed:    []BulkItem{},
		Skipped:   []BulkItem{},
	}
}

// BulkStore is the persistence the executor needs. PlaceRepository
// satisfies it.
type BulkStore interface {
	FindByID(ctx context.Context, id string) (*Place, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// BulkExecutor applies bulk operations record by record. A failure on one
// record is reported and never aborts the rest of the batch.
type BulkExecutor struct {
	store  BulkStore
	maxIDs int
}

// NewBulkExecutor creates an executor over store. maxIDs caps the number of
// distinct IDs per request; values below 1 mean no cap.
func NewBulkExecutor(store BulkStore, maxIDs int) *BulkExecutor {
	return &BulkExecutor{store: store, maxIDs: maxIDs}
}

// Execute validates req and applies it to every distinct ID in input order.
// Only request-level problems return an error (400); per-record problems
// are recorded in the report.
func (e *BulkExecutor) Execute(ctx context.Context, req BulkRequest) (*BulkReport, error) {
	ids := dedupeIDs(req.IDs)
	if len(ids) == 0 {
		return nil, apperror.NewBadRequest("at least one place ID is required")
	}
	if e.maxIDs > 0 && len(ids) > e.maxIDs {
		return nil, apperror.NewBadRequest(fmt.Sprintf("at most %d place IDs are allowed per request", e.maxIDs))
	}

	var status string
	switch req.Operation {
	case OpUpdateStatus:
		if strings.TrimSpace(req.Status) == "" {
			return nil, apperror.NewBadRequest("a target status is required")
		}
		status = NormalizeStatus(req.Status)
		if !ValidStatus(status) {
			return nil, apperror.NewBadRequest(fmt.Sprintf("unknown status %q", req.Status))
		}
	case OpDelete, OpToggleActive:
	default:
		return nil, apperror.NewBadRequest(fmt.Sprintf("unknown bulk operation %q", req.Operation))
	}

	report := newBulkReport()
	for _, id := range ids {
		var err error
		var skipReason string

		// Once the caller goes away the remaining IDs fail without touching
		// the store.
		if err = ctx.Err(); err == nil {
			switch req.Operation {
			case OpUpdateStatus:
				skipReason, err = e.updateStatus(ctx, id, status)
			case OpDelete:
				err = e.store.Delete(ctx, id)
			case OpToggleActive:
				err = e.toggleActive(ctx, id)
			}
		}

		switch {
		case err != nil:
			report.Failed = append(report.Failed, BulkItem{ID: id, Reason: failureReason(ctx, id, req.Operation, err)})
		case skipReason != "":
			report.Skipped = append(report.Skipped, BulkItem{ID: id, Reason: skipReason})
		default:
			report.Succeeded = append(report.Succeeded, id)
		}
	}

	return report, nil
}

// updateStatus sets the status unless the place already has it, in which
// case it returns a skip reason.
func (e *BulkExecutor) updateStatus(ctx context.Context, id, status string) (string, error) {
	place, err := e.store.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if place.Status == status {
		return "already " + status, nil
	}
	return "", e.store.UpdateStatus(ctx, id, status)
}

// toggleActive flips the active flag. The read and the write are separate
// statements, so concurrent toggles of one place resolve last-write-wins.
func (e *BulkExecutor) toggleActive(ctx context.Context, id string) error {
	place, err := e.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return e.store.SetActive(ctx, id, !place.IsActive)
}

// failureReason classifies a per-record error and logs unexpected ones.
func failureReason(ctx context.Context, id string, op BulkOperation, err error) string {
	if apperror.IsNotFound(err) {
		return ReasonNotFound
	}
	level := slog.LevelError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		level = slog.LevelWarn
	}
	slog.Log(ctx, level, "bulk mutation failed for place",
		slog.String("place_id", id),
		slog.String("operation", string(op)),
		slog.Any("error", err),
	)
	return ReasonInternal
}

// dedupeIDs trims IDs and drops blanks and repeats, keeping first
// occurrence order.
func dedupeIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
