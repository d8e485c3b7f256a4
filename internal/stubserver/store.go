package stubserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/comptes-dev/comptes/internal/config"
	"github.com/comptes-dev/comptes/internal/model"
)

// ErrNotFound is returned for ids the store does not hold.
var ErrNotFound = errors.New("compte not found")

// Store persists the accounts served by the stub backend.
type Store interface {
	List(ctx context.Context) ([]model.Account, error)
	Create(ctx context.Context, p model.Payload) (model.Account, error)
	Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error)
	Delete(ctx context.Context, id model.ID) error
	Ping(ctx context.Context) error
}

// Store kinds accepted by OpenStore.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// OpenStore builds the store cfg selects. The returned close function
// releases its connections.
func OpenStore(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (Store, func(), error) {
	switch cfg.Store {
	case "", StoreMemory:
		return NewMemoryStore(), func() {}, nil
	case StoreRedis:
		client, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}
		return NewRedisStore(client), closeFn, nil
	case StorePostgres:
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want memory, redis or postgres)", cfg.Store)
	}
}

// MemoryStore keeps accounts in process memory, in creation order.
type MemoryStore struct {
	mu       sync.Mutex
	accounts []model.Account
	nextID   int64
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

func (s *MemoryStore) List(context.Context) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Account{}, s.accounts...), nil
}

func (s *MemoryStore) Create(_ context.Context, p model.Payload) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct := fromPayload(model.ID(strconv.FormatInt(s.nextID, 10)), p)
	s.nextID++
	s.accounts = append(s.accounts, acct)
	return acct, nil
}

func (s *MemoryStore) Update(_ context.Context, id model.ID, p model.Payload) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts[i] = fromPayload(id, p)
			return s.accounts[i], nil
		}
	}
	return model.Account{}, ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, id model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func fromPayload(id model.ID, p model.Payload) model.Account {
	return model.Account{ID: id, Balance: p.Balance, CreationDate: p.CreationDate, Type: p.Type}
}

// sortByID orders accounts by numeric id, falling back to text order.
func sortByID(accounts []model.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		a, errA := strconv.ParseInt(accounts[i].ID.String(), 10, 64)
		b, errB := strconv.ParseInt(accounts[j].ID.String(), 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return accounts[i].ID < accounts[j].ID
	})
}
