package list

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/comptes-dev/comptes/internal/events"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/prompt"
)

// User-facing messages.
const (
	LoadFailedMessage    = "Erreur lors du chargement des comptes. Assurez-vous que le serveur backend est démarré."
	ConfirmDeleteMessage = "Êtes-vous sûr de vouloir supprimer ce compte ?"
	DeletedMessage       = "Compte supprimé avec succès"
	DeleteFailedMessage  = "Erreur lors de la suppression du compte"
)

// ErrNotFound is returned by RequestEdit for an id missing from the snapshot.
var ErrNotFound = errors.New("compte not in list")

// Backend is the part of the REST API the list needs.
type Backend interface {
	List(ctx context.Context) ([]model.Account, error)
	Delete(ctx context.Context, id model.ID) error
}

// EditHandler receives the account the user asked to edit.
type EditHandler func(account model.Account) error

// Controller owns the local snapshot of the collection. The snapshot is only
// ever replaced wholesale by a successful reload.
type Controller struct {
	backend   Backend
	prompter  prompt.Prompter
	onEdit    EditHandler
	publisher events.Publisher
	logger    *slog.Logger

	mu       sync.Mutex
	accounts []model.Account
	loading  bool
	errMsg   string
	seq      uint64
}

// Option customizes a Controller.
type Option func(*Controller)

// WithEditHandler sets the receiver of RequestEdit.
func WithEditHandler(h EditHandler) Option {
	return func(c *Controller) { c.onEdit = h }
}

// WithPublisher sets where deletions are announced.
func WithPublisher(p events.Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithLogger sets the logger for failed calls.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController returns a controller in the loading state, as before mount.
func NewController(backend Backend, prompter prompt.Prompter, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		prompter: prompter,
		logger:   slog.Default(),
		loading:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mount performs the initial load.
func (c *Controller) Mount(ctx context.Context) error {
	return c.Reload(ctx)
}

// Reload fetches the full collection and replaces the snapshot. On failure
// the previous snapshot stays and the error message is set. When a newer
// reload has started in the meantime, this response is discarded.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()

	accounts, err := c.backend.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		c.logger.Debug("discarding stale reload", "seq", seq, "latest", c.seq)
		return err
	}
	c.loading = false
	if err != nil {
		c.errMsg = LoadFailedMessage
		c.logger.Warn("loading comptes failed", "error", err)
		return fmt.Errorf("reloading comptes: %w", err)
	}
	c.accounts = append(make([]model.Account, 0, len(accounts)), accounts...)
	return nil
}

// RequestDelete asks for confirmation, then deletes id and reloads. A decline
// returns (false, nil) without any call. A failed delete leaves the snapshot
// as it was.
func (c *Controller) RequestDelete(ctx context.Context, id model.ID) (bool, error) {
	if c.prompter == nil || !c.prompter.Confirm(ConfirmDeleteMessage) {
		return false, nil
	}

	if err := c.backend.Delete(ctx, id); err != nil {
		c.logger.Warn("deleting compte failed", "id", id.String(), "error", err)
		c.notify(DeleteFailedMessage)
		return false, fmt.Errorf("deleting compte %s: %w", id, err)
	}

	c.notify(DeletedMessage)
	reloadErr := c.Reload(ctx)
	if c.publisher != nil {
		c.publisher.Publish(ctx, events.Committed{Op: events.OpDeleted, ID: id})
	}
	return true, reloadErr
}

// RequestEdit forwards the account with id to the edit handler.
func (c *Controller) RequestEdit(id model.ID) error {
	account, ok := c.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if c.onEdit == nil {
		return nil
	}
	return c.onEdit(account)
}

// HandleCommitted is the bus subscriber: creates and updates trigger a reload.
// Deletions already reloaded in RequestDelete.
func (c *Controller) HandleCommitted(ctx context.Context, evt events.Committed) {
	if evt.Op == events.OpDeleted {
		return
	}
	_ = c.Reload(ctx)
}

// Find returns the account with id from the snapshot.
func (c *Controller) Find(id model.ID) (model.Account, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return model.Account{}, false
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Accounts: append([]model.Account(nil), c.accounts...),
		Loading:  c.loading,
		Error:    c.errMsg,
	}
}

func (c *Controller) notify(message string) {
	if c.prompter != nil {
		c.prompter.Notify(message)
	}
}
