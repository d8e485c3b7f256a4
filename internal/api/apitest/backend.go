// Package apitest provides an in-memory stand-in for the comptes backend.
package apitest

import (
	"context"
	"strconv"
	"sync"

	"github.com/comptes-dev/comptes/internal/api"
	"github.com/comptes-dev/comptes/internal/model"
)

// Backend is an in-memory collection that records every call. Injected errors
// are returned instead of touching the collection. It is safe for concurrent use.
type Backend struct {
	mu       sync.Mutex
	accounts []model.Account
	nextID   int

	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Gate, when non-nil, is received from before every call returns,
	// letting a test hold requests in flight.
	Gate chan struct{}

	Calls    []api.Op
	Payloads []model.Payload
}

// NewBackend returns a backend seeded with accounts. Seeded accounts keep
// their ids; new ones are numbered after the largest numeric id.
func NewBackend(accounts ...model.Account) *Backend {
	b := &Backend{nextID: 1}
	for _, a := range accounts {
		b.accounts = append(b.accounts, a)
		if n, err := strconv.Atoi(a.ID.String()); err == nil && n >= b.nextID {
			b.nextID = n + 1
		}
	}
	return b
}

// Seed replaces the collection without recording a call.
func (b *Backend) Seed(accounts ...model.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = append([]model.Account(nil), accounts...)
}

// Accounts returns a copy of the collection.
func (b *Backend) Accounts() []model.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Account(nil), b.accounts...)
}

// CallCount returns how many times op was invoked.
func (b *Backend) CallCount(op api.Op) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.Calls {
		if c == op {
			n++
		}
	}
	return n
}

// SetErr injects err for op; nil clears it.
func (b *Backend) SetErr(op api.Op, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch op {
	case api.OpList:
		b.ListErr = err
	case api.OpCreate:
		b.CreateErr = err
	case api.OpUpdate:
		b.UpdateErr = err
	case api.OpDelete:
		b.DeleteErr = err
	}
}

func (b *Backend) record(ctx context.Context, op api.Op) error {
	b.mu.Lock()
	b.Calls = append(b.Calls, op)
	gate := b.Gate
	b.mu.Unlock()
	if gate == nil {
		return nil
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return &api.Error{Op: op, Err: ctx.Err()}
	}
}

// List implements the list operation.
func (b *Backend) List(ctx context.Context) ([]model.Account, error) {
	if err := b.record(ctx, api.OpList); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return append([]model.Account{}, b.accounts...), nil
}

// Create implements the create operation.
func (b *Backend) Create(ctx context.Context, p model.Payload) (model.Account, error) {
	if err := b.record(ctx, api.OpCreate); err != nil {
		return model.Account{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Payloads = append(b.Payloads, p)
	if b.CreateErr != nil {
		return model.Account{}, b.CreateErr
	}
	a := model.Account{
		ID:           model.ID(strconv.Itoa(b.nextID)),
		Balance:      p.Balance,
		CreationDate: p.CreationDate,
		Type:         p.Type,
	}
	b.nextID++
	b.accounts = append(b.accounts, a)
	return a, nil
}

// Update implements the update operation.
func (b *Backend) Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error) {
	if err := b.record(ctx, api.OpUpdate); err != nil {
		return model.Account{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Payloads = append(b.Payloads, p)
	if b.UpdateErr != nil {
		return model.Account{}, b.UpdateErr
	}
	for i, a := range b.accounts {
		if a.ID == id {
			b.accounts[i] = model.Account{ID: id, Balance: p.Balance, CreationDate: p.CreationDate, Type: p.Type}
			return b.accounts[i], nil
		}
	}
	return model.Account{}, &api.Error{Op: api.OpUpdate, Status: 404}
}

// Delete implements the delete operation.
func (b *Backend) Delete(ctx context.Context, id model.ID) error {
	if err := b.record(ctx, api.OpDelete); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.DeleteErr != nil {
		return b.DeleteErr
	}
	for i, a := range b.accounts {
		if a.ID == id {
			b.accounts = append(b.accounts[:i], b.accounts[i+1:]...)
			return nil
		}
	}
	return &api.Error{Op: api.OpDelete, Status: 404}
}
