// Package memory implements the document store adapter in memory. It backs
// the engine tests and the local development mode, mirroring the adapter's
// contract: transactions apply wholly or not at all, batches are capped at
// the store's per-commit ceiling, and activity ids are globally unique.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"voltport-backend/internal/domain"
	"voltport-backend/internal/store"
)

type Store struct {
	mu         sync.Mutex
	accounts   map[string]*domain.Account
	ports      map[string]map[string]*domain.Port     // accountID -> portID
	activities map[string]map[string]*domain.Activity // accountID -> activityID
	actIndex   map[string]string                      // activityID -> accountID
}

func nowUTC() time.Time { return time.Now().UTC() }

func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*domain.Account),
		ports:      make(map[string]map[string]*domain.Port),
		activities: make(map[string]map[string]*domain.Activity),
		actIndex:   make(map[string]string),
	}
}

func (s *Store) Close() error { return nil }

// PutAccount seeds or replaces an account document.
func (s *Store) PutAccount(a *domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.accounts[a.ID] = &cp
}

// PutPort seeds or replaces a port document under its owning account.
func (s *Store) PutPort(p *domain.Port) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ports[p.AccountID] == nil {
		s.ports[p.AccountID] = make(map[string]*domain.Port)
	}
	cp := *p
	s.ports[p.AccountID][p.ID] = &cp
}

// PutActivity seeds or replaces an activity document. Panics on an id owned
// by a different account, since activity ids are globally unique.
func (s *Store) PutActivity(a *domain.Activity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if owner, ok := s.actIndex[a.ID]; ok && owner != a.AccountID {
		panic(fmt.Sprintf("memory: activity id %s already owned by account %s", a.ID, owner))
	}
	if s.activities[a.AccountID] == nil {
		s.activities[a.AccountID] = make(map[string]*domain.Activity)
	}
	s.activities[a.AccountID][a.ID] = cloneActivity(a)
	s.actIndex[a.ID] = a.AccountID
}

func cloneActivity(a *domain.Activity) *domain.Activity {
	cp := *a
	if a.Details != nil {
		cp.Details = make(map[string]string, len(a.Details))
		for k, v := range a.Details {
			cp.Details[k] = v
		}
	}
	if a.SessionDetails != nil {
		sd := *a.SessionDetails
		cp.SessionDetails = &sd
	}
	return &cp
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func applyAccountUpdate(a *domain.Account, u store.Update) error {
	if u.Kind == store.UpdateServerTimestamp {
		if u.Field != "lastMonthlyReset" {
			return fmt.Errorf("memory: unsupported timestamp field %q on account", u.Field)
		}
		a.LastMonthlyReset = nowUTC()
		return nil
	}
	target := map[string]*float64{
		"availableBalance":     &a.AvailableBalance,
		"monthlyEarnings":      &a.MonthlyEarnings,
		"monthlyKwhDelivered":  &a.MonthlyKwhDelivered,
		"monthlyCo2Offset":     &a.MonthlyCo2Offset,
		"lifetimeEarnings":     &a.LifetimeEarnings,
		"lifetimeKwhDelivered": &a.LifetimeKwhDelivered,
		"lifetimeCo2Offset":    &a.LifetimeCo2Offset,
	}
	if f, ok := target[u.Field]; ok {
		v, ok := asFloat(u.Value)
		if !ok {
			return fmt.Errorf("memory: non-numeric value for account field %q", u.Field)
		}
		if u.Kind == store.UpdateIncrement {
			*f += v
		} else {
			*f = v
		}
		return nil
	}
	counters := map[string]*int64{
		"monthlySessions":  &a.MonthlySessions,
		"lifetimeSessions": &a.LifetimeSessions,
	}
	if c, ok := counters[u.Field]; ok {
		v, ok := asFloat(u.Value)
		if !ok {
			return fmt.Errorf("memory: non-numeric value for account field %q", u.Field)
		}
		if u.Kind == store.UpdateIncrement {
			*c += int64(v)
		} else {
			*c = int64(v)
		}
		return nil
	}
	return fmt.Errorf("memory: unknown account field %q", u.Field)
}

func applyPortUpdate(p *domain.Port, u store.Update) error {
	target := map[string]*float64{
		"lifetimeEarnings":       &p.LifetimeEarnings,
		"monthlyEarnings":        &p.MonthlyEarnings,
		"monthlyDurationMinutes": &p.MonthlyDurationMinutes,
		"utilization":            &p.Utilization,
	}
	f, ok := target[u.Field]
	if !ok {
		return fmt.Errorf("memory: unknown port field %q", u.Field)
	}
	v, ok := asFloat(u.Value)
	if !ok {
		return fmt.Errorf("memory: non-numeric value for port field %q", u.Field)
	}
	if u.Kind == store.UpdateIncrement {
		*f += v
	} else {
		*f = v
	}
	return nil
}

func applyActivityUpdate(a *domain.Activity, u store.Update) error {
	switch u.Field {
	case "status":
		v, ok := u.Value.(domain.WithdrawalStatus)
		if !ok {
			sv, sok := u.Value.(string)
			if !sok {
				return fmt.Errorf("memory: invalid status value %v", u.Value)
			}
			v = domain.WithdrawalStatus(sv)
		}
		a.Status = v
	case "balanceUpdated":
		v, ok := u.Value.(bool)
		if !ok {
			return fmt.Errorf("memory: invalid balanceUpdated value %v", u.Value)
		}
		a.BalanceUpdated = v
	default:
		return fmt.Errorf("memory: unknown activity field %q", u.Field)
	}
	return nil
}

// stage is a working overlay of cloned documents shared by transactions and
// batches. Writes land on the clones; merge publishes them, so a failed unit
// leaves the store untouched.
type stage struct {
	s          *Store
	accounts   map[string]*domain.Account
	ports      map[string]*domain.Port
	activities map[string]*domain.Activity
	created    []*domain.Activity
}

func newStage(s *Store) *stage {
	return &stage{
		s:          s,
		accounts:   make(map[string]*domain.Account),
		ports:      make(map[string]*domain.Port),
		activities: make(map[string]*domain.Activity),
	}
}

func (st *stage) account(id string) (*domain.Account, error) {
	if a, ok := st.accounts[id]; ok {
		return a, nil
	}
	a, ok := st.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	st.accounts[id] = &cp
	return &cp, nil
}

func (st *stage) port(accountID, portID string) (*domain.Port, error) {
	key := accountID + "/" + portID
	if p, ok := st.ports[key]; ok {
		return p, nil
	}
	p, ok := st.s.ports[accountID][portID]
	if !ok {
		return nil, fmt.Errorf("memory: port %s not found under account %s", portID, accountID)
	}
	cp := *p
	st.ports[key] = &cp
	return &cp, nil
}

func (st *stage) activity(accountID, activityID string) (*domain.Activity, error) {
	key := accountID + "/" + activityID
	if a, ok := st.activities[key]; ok {
		return a, nil
	}
	a, ok := st.s.activities[accountID][activityID]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	cp := cloneActivity(a)
	st.activities[key] = cp
	return cp, nil
}

func (st *stage) createActivity(accountID string, a *domain.Activity) (string, error) {
	cp := cloneActivity(a)
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, exists := st.s.actIndex[cp.ID]; exists {
		return "", fmt.Errorf("memory: duplicate activity id %s", cp.ID)
	}
	if cp.Timestamp.IsZero() {
		cp.Timestamp = nowUTC()
	}
	cp.AccountID = accountID
	st.created = append(st.created, cp)
	return cp.ID, nil
}

func (st *stage) merge() {
	for id, a := range st.accounts {
		st.s.accounts[id] = a
	}
	for _, p := range st.ports {
		st.s.ports[p.AccountID][p.ID] = p
	}
	for _, a := range st.activities {
		st.s.activities[a.AccountID][a.ID] = a
	}
	for _, a := range st.created {
		if st.s.activities[a.AccountID] == nil {
			st.s.activities[a.AccountID] = make(map[string]*domain.Activity)
		}
		st.s.activities[a.AccountID][a.ID] = a
		st.s.actIndex[a.ID] = a.AccountID
	}
}

func (s *Store) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := newStage(s)
	if err := fn(&memTx{st: st}); err != nil {
		return err
	}
	st.merge()
	return nil
}

type memTx struct {
	st *stage
}

func (t *memTx) Account(id string) (*domain.Account, error) {
	a, err := t.st.account(id)
	if err != nil {
		return nil, err
	}
	cp := *a
	return &cp, nil
}

func (t *memTx) Activity(accountID, activityID string) (*domain.Activity, error) {
	a, err := t.st.activity(accountID, activityID)
	if err != nil {
		return nil, err
	}
	return cloneActivity(a), nil
}

func (t *memTx) UpdateAccount(id string, updates ...store.Update) error {
	a, err := t.st.account(id)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := applyAccountUpdate(a, u); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) UpdateActivity(accountID, activityID string, updates ...store.Update) error {
	a, err := t.st.activity(accountID, activityID)
	if err != nil {
		return err
	}
	for _, u := range updates {
		if err := applyActivityUpdate(a, u); err != nil {
			return err
		}
	}
	return nil
}

func (t *memTx) CreateActivity(accountID string, a *domain.Activity) (string, error) {
	if _, err := t.st.account(accountID); err != nil {
		return "", err
	}
	return t.st.createActivity(accountID, a)
}

type opKind int

const (
	opUpdateAccount opKind = iota
	opUpdatePort
	opCreateActivity
)

type batchOp struct {
	kind      opKind
	accountID string
	docID     string
	updates   []store.Update
	activity  *domain.Activity
}

type memBatch struct {
	s   *Store
	ops []batchOp
}

func (s *Store) NewBatch() store.Batch {
	return &memBatch{s: s}
}

func (b *memBatch) UpdateAccount(id string, updates ...store.Update) {
	b.ops = append(b.ops, batchOp{kind: opUpdateAccount, accountID: id, updates: updates})
}

func (b *memBatch) UpdatePort(accountID, portID string, updates ...store.Update) {
	b.ops = append(b.ops, batchOp{kind: opUpdatePort, accountID: accountID, docID: portID, updates: updates})
}

func (b *memBatch) CreateActivity(accountID string, a *domain.Activity) {
	b.ops = append(b.ops, batchOp{kind: opCreateActivity, accountID: accountID, activity: cloneActivity(a)})
}

func (b *memBatch) Len() int {
	return len(b.ops)
}

func (b *memBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}
	if len(b.ops) > store.MaxBatchOps {
		return store.ErrBatchTooLarge
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	st := newStage(b.s)
	for _, op := range b.ops {
		switch op.kind {
		case opUpdateAccount:
			a, err := st.account(op.accountID)
			if err != nil {
				return err
			}
			for _, u := range op.updates {
				if err := applyAccountUpdate(a, u); err != nil {
					return err
				}
			}
		case opUpdatePort:
			p, err := st.port(op.accountID, op.docID)
			if err != nil {
				return err
			}
			for _, u := range op.updates {
				if err := applyPortUpdate(p, u); err != nil {
					return err
				}
			}
		case opCreateActivity:
			if _, err := st.createActivity(op.accountID, op.activity); err != nil {
				return err
			}
		}
	}
	st.merge()
	return nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAccountIDs(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListPorts(ctx context.Context, accountID string) ([]domain.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ports []domain.Port
	for _, p := range s.ports[accountID] {
		ports = append(ports, *p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].ID < ports[j].ID })
	return ports, nil
}

func (s *Store) ListActivePorts(ctx context.Context) ([]domain.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ports []domain.Port
	for _, byID := range s.ports {
		for _, p := range byID {
			if p.Status == domain.PortStatusActive {
				ports = append(ports, *p)
			}
		}
	}
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].AccountID != ports[j].AccountID {
			return ports[i].AccountID < ports[j].AccountID
		}
		return ports[i].ID < ports[j].ID
	})
	return ports, nil
}

func (s *Store) FindActivity(ctx context.Context, activityID string) (*domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accountID, ok := s.actIndex[activityID]
	if !ok {
		return nil, domain.ErrActivityNotFound
	}
	return cloneActivity(s.activities[accountID][activityID]), nil
}

// GetActivity is a test helper for reading an activity under a known account.
func (s *Store) GetActivity(accountID, activityID string) (*domain.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[accountID][activityID]
	if !ok {
		return nil, false
	}
	return cloneActivity(a), true
}

// GetPort is a test helper for reading a port under a known account.
func (s *Store) GetPort(accountID, portID string) (*domain.Port, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.ports[accountID][portID]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// ListActivities is a test helper returning every activity for an account.
func (s *Store) ListActivities(accountID string) []domain.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Activity
	for _, a := range s.activities[accountID] {
		out = append(out, *cloneActivity(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
