// Package firestore implements the document store adapter on Cloud
// Firestore via the Firebase Admin SDK, using the same collection layout as
// the production database: users/{id}, users/{id}/ports/{id},
// users/{id}/activity/{id}.
package firestore

import (
	"context"
	"fmt"

	fs "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/store"
)

const (
	usersCollection    = "users"
	portsCollection    = "ports"
	activityCollection = "activity"
)

type Store struct {
	client *fs.Client
}

// NewStore opens a Firestore client from an initialized Firebase app.
func NewStore(ctx context.Context, app *firebase.App) (*Store, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) accountRef(id string) *fs.DocumentRef {
	return s.client.Collection(usersCollection).Doc(id)
}

func (s *Store) portRef(accountID, portID string) *fs.DocumentRef {
	return s.accountRef(accountID).Collection(portsCollection).Doc(portID)
}

func (s *Store) activityRef(accountID, activityID string) *fs.DocumentRef {
	return s.accountRef(accountID).Collection(activityCollection).Doc(activityID)
}

func toFirestoreUpdates(updates []store.Update) []fs.Update {
	out := make([]fs.Update, 0, len(updates))
	for _, u := range updates {
		fu := fs.Update{Path: u.Field}
		switch u.Kind {
		case store.UpdateIncrement:
			fu.Value = fs.Increment(u.Value)
		case store.UpdateServerTimestamp:
			fu.Value = fs.ServerTimestamp
		default:
			fu.Value = u.Value
		}
		out = append(out, fu)
	}
	return out
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *fs.Transaction) error {
		return fn(&tx{s: s, t: t})
	})
}

type tx struct {
	s *Store
	t *fs.Transaction
}

func (x *tx) Account(id string) (*domain.Account, error) {
	snap, err := x.t.Get(x.s.accountRef(id))
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	var a domain.Account
	if err := snap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	a.ID = snap.Ref.ID
	return &a, nil
}

func (x *tx) Activity(accountID, activityID string) (*domain.Activity, error) {
	snap, err := x.t.Get(x.s.activityRef(accountID, activityID))
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrActivityNotFound
	}
	if err != nil {
		return nil, err
	}
	var a domain.Activity
	if err := snap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode activity %s: %w", activityID, err)
	}
	a.ID = snap.Ref.ID
	a.AccountID = accountID
	return &a, nil
}

func (x *tx) UpdateAccount(id string, updates ...store.Update) error {
	return x.t.Update(x.s.accountRef(id), toFirestoreUpdates(updates))
}

func (x *tx) UpdateActivity(accountID, activityID string, updates ...store.Update) error {
	return x.t.Update(x.s.activityRef(accountID, activityID), toFirestoreUpdates(updates))
}

func (x *tx) CreateActivity(accountID string, a *domain.Activity) (string, error) {
	col := x.s.accountRef(accountID).Collection(activityCollection)
	ref := col.NewDoc()
	if a.ID != "" {
		ref = col.Doc(a.ID)
	}
	if err := x.t.Create(ref, a); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *Store) NewBatch() store.Batch {
	return &batch{s: s, b: s.client.Batch()}
}

type batch struct {
	s *Store
	b *fs.WriteBatch
	n int
}

func (b *batch) UpdateAccount(id string, updates ...store.Update) {
	b.b.Update(b.s.accountRef(id), toFirestoreUpdates(updates))
	b.n++
}

func (b *batch) UpdatePort(accountID, portID string, updates ...store.Update) {
	b.b.Update(b.s.portRef(accountID, portID), toFirestoreUpdates(updates))
	b.n++
}

func (b *batch) CreateActivity(accountID string, a *domain.Activity) {
	col := b.s.accountRef(accountID).Collection(activityCollection)
	ref := col.NewDoc()
	if a.ID != "" {
		ref = col.Doc(a.ID)
	}
	b.b.Create(ref, a)
	b.n++
}

func (b *batch) Len() int {
	return b.n
}

func (b *batch) Commit(ctx context.Context) error {
	if b.n == 0 {
		return nil
	}
	if b.n > store.MaxBatchOps {
		return store.ErrBatchTooLarge
	}
	_, err := b.b.Commit(ctx)
	return err
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	snap, err := s.accountRef(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	var a domain.Account
	if err := snap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode account %s: %w", id, err)
	}
	a.ID = snap.Ref.ID
	return &a, nil
}

func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	var ids []string
	it := s.client.Collection(usersCollection).DocumentRefs(ctx)
	for {
		ref, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list accounts: %w", err)
		}
		ids = append(ids, ref.ID)
	}
	return ids, nil
}

func (s *Store) ListPorts(ctx context.Context, accountID string) ([]domain.Port, error) {
	it := s.accountRef(accountID).Collection(portsCollection).Documents(ctx)
	defer it.Stop()
	var ports []domain.Port
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list ports for account %s: %w", accountID, err)
		}
		var p domain.Port
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode port %s: %w", snap.Ref.ID, err)
		}
		p.ID = snap.Ref.ID
		p.AccountID = accountID
		ports = append(ports, p)
	}
	return ports, nil
}

func (s *Store) ListActivePorts(ctx context.Context) ([]domain.Port, error) {
	q := s.client.CollectionGroup(portsCollection).
		Where("status", "==", string(domain.PortStatusActive))
	it := q.Documents(ctx)
	defer it.Stop()
	var ports []domain.Port
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query active ports: %w", err)
		}
		var p domain.Port
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode port %s: %w", snap.Ref.ID, err)
		}
		p.ID = snap.Ref.ID
		p.AccountID = snap.Ref.Parent.Parent.ID
		ports = append(ports, p)
	}
	return ports, nil
}

func (s *Store) FindActivity(ctx context.Context, activityID string) (*domain.Activity, error) {
	q := s.client.CollectionGroup(activityCollection).
		Where(fs.DocumentID, "==", activityID).
		Limit(1)
	it := q.Documents(ctx)
	defer it.Stop()
	snap, err := it.Next()
	if err == iterator.Done {
		return nil, domain.ErrActivityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up activity %s: %w", activityID, err)
	}
	var a domain.Activity
	if err := snap.DataTo(&a); err != nil {
		return nil, fmt.Errorf("failed to decode activity %s: %w", activityID, err)
	}
	a.ID = snap.Ref.ID
	a.AccountID = snap.Ref.Parent.Parent.ID
	return &a, nil
}
