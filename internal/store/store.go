// Package store defines the document store adapter used by all three
// engines. The store offers per-document atomicity, small multi-document
// transactions with optimistic retry, and batch commits capped at
// MaxBatchOps operations. Engines express every mutation as either one
// transaction or one bounded batch; there is no cross-unit locking.
package store

import (
	"context"
	"errors"

	"voltport-backend/internal/domain"
)

// MaxBatchOps is the store's hard per-commit operation ceiling.
const MaxBatchOps = 500

var ErrBatchTooLarge = errors.New("batch exceeds the store's per-commit operation limit")

type UpdateKind int

const (
	UpdateSet UpdateKind = iota
	UpdateIncrement
	UpdateServerTimestamp
)

// Update describes a single field mutation applied inside an atomic unit.
type Update struct {
	Field string
	Value any
	Kind  UpdateKind
}

func Set(field string, value any) Update {
	return Update{Field: field, Value: value, Kind: UpdateSet}
}

// Increment is a blind atomic add; it does not require reading the document
// first and composes with concurrent increments from other units.
func Increment(field string, delta float64) Update {
	return Update{Field: field, Value: delta, Kind: UpdateIncrement}
}

func ServerTimestamp(field string) Update {
	return Update{Field: field, Kind: UpdateServerTimestamp}
}

// Tx is one atomic unit over a small named document set. The store may
// re-run the closure on write conflicts, so closures must stay free of
// non-idempotent side effects. All reads must happen before writes.
type Tx interface {
	Account(id string) (*domain.Account, error)
	Activity(accountID, activityID string) (*domain.Activity, error)
	UpdateAccount(id string, updates ...Update) error
	UpdateActivity(accountID, activityID string, updates ...Update) error
	// CreateActivity allocates a globally unique id when a.ID is empty and
	// returns the id of the created document.
	CreateActivity(accountID string, a *domain.Activity) (string, error)
}

// Batch accumulates writes that commit together atomically, up to
// MaxBatchOps operations. Commit with zero staged operations is a no-op.
type Batch interface {
	UpdateAccount(id string, updates ...Update)
	UpdatePort(accountID, portID string, updates ...Update)
	CreateActivity(accountID string, a *domain.Activity)
	Len() int
	Commit(ctx context.Context) error
}

type Store interface {
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	NewBatch() Batch

	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccountIDs(ctx context.Context) ([]string, error)
	ListPorts(ctx context.Context, accountID string) ([]domain.Port, error)
	// ListActivePorts queries ports across all accounts (collection-group
	// style); each result carries its owning AccountID.
	ListActivePorts(ctx context.Context) ([]domain.Port, error)
	// FindActivity locates an activity by document id without knowing the
	// owning account. Activity ids are globally unique.
	FindActivity(ctx context.Context, activityID string) (*domain.Activity, error)

	Close() error
}
