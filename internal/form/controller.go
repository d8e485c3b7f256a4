package form

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

// Mode tells whether the draft creates a new account or edits an existing one.
type Mode int

const (
	ModeCreating Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "creating"
}

// Title is the form heading for the mode.
func (m Mode) Title() string {
	if m == ModeEditing {
		return "Modifier un Compte"
	}
	return "Ajouter un Compte"
}

// SubmitLabel is the submit action label for the mode.
func (m Mode) SubmitLabel() string {
	if m == ModeEditing {
		return "Modifier"
	}
	return "Ajouter"
}

// SubmittingLabel replaces SubmitLabel while a submit is in flight.
const SubmittingLabel = "En cours..."

// Field names an editable draft field, using the wire names.
type Field string

const (
	FieldBalance      Field = "solde"
	FieldCreationDate Field = "dateCreation"
	FieldType         Field = "type"
)

// Fields lists the editable fields in form order.
var Fields = []Field{FieldBalance, FieldCreationDate, FieldType}

// Draft holds the raw, possibly invalid, field values being edited.
type Draft struct {
	Balance      string
	CreationDate string
	Type         string
}

// EmptyDraft is the draft a fresh form starts with.
func EmptyDraft() Draft {
	return Draft{Type: string(model.DefaultAccountType)}
}

// Get returns the raw value of field.
func (d Draft) Get(field Field) string {
	switch field {
	case FieldBalance:
		return d.Balance
	case FieldCreationDate:
		return d.CreationDate
	case FieldType:
		return d.Type
	default:
		return ""
	}
}

var (
	// ErrSubmitInProgress is returned when Submit is called while a previous
	// submit has not finished.
	ErrSubmitInProgress = errors.New("submit already in progress")
	// ErrMissingID is returned when an account without an id is loaded for edit.
	ErrMissingID = errors.New("account has no id")
	// ErrUnknownField is returned by UpdateField for names outside Fields.
	ErrUnknownField = errors.New("unknown field")
)

// Backend is the part of the REST API the form needs.
type Backend interface {
	Create(ctx context.Context, p model.Payload) (model.Account, error)
	Update(ctx context.Context, id model.ID, p model.Payload) (model.Account, error)
}

// SubmitError is a network failure while saving the draft. The draft is left
// untouched so the user can retry.
type SubmitError struct {
	Mode     Mode
	TargetID model.ID
	Err      error
}

func (e *SubmitError) Error() string {
	if e.Mode == ModeEditing {
		return fmt.Sprintf("updating compte %s: %v", e.TargetID, e.Err)
	}
	return fmt.Sprintf("creating compte: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Message is the user-facing text for the failure.
func (e *SubmitError) Message() string {
	if e.Mode == ModeEditing {
		return "Erreur lors de la modification du compte"
	}
	return "Erreur lors de la création du compte"
}

// State is a snapshot of the controller.
type State struct {
	Draft      Draft
	Mode       Mode
	TargetID   model.ID
	Submitting bool
	LastError  error
}

// Controller owns one in-progress draft and submits it to the backend.
// It is safe for concurrent use; the lock is never held across a network call.
type Controller struct {
	backend   Backend
	notifier  prompt.Notifier
	publisher events.Publisher
	logger    *slog.Logger

	mu         sync.Mutex
	draft      Draft
	mode       Mode
	targetID   model.ID
	submitting bool
	lastErr    error
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPublisher sets where committed events go after a successful submit.
func WithPublisher(p events.Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithLogger sets the logger for submit failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// NewController returns a controller with an empty CREATING draft.
func NewController(backend Backend, notifier prompt.Notifier, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		notifier: notifier,
		logger:   slog.Default(),
		draft:    EmptyDraft(),
		mode:     ModeCreating,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadForEdit switches to EDITING and copies account into the draft.
func (c *Controller) LoadForEdit(account model.Account) error {
	if account.ID.IsZero() {
		return ErrMissingID
	}
	accountType := account.Type
	if accountType == "" {
		accountType = model.DefaultAccountType
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = ModeEditing
	c.targetID = account.ID
	c.draft = Draft{
		Balance:      account.Balance.String(),
		CreationDate: account.CreationDate.String(),
		Type:         string(accountType),
	}
	c.lastErr = nil
	return nil
}

// UpdateField sets one raw draft value. Nothing is validated here.
func (c *Controller) UpdateField(field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch field {
	case FieldBalance:
		c.draft.Balance = value
	case FieldCreationDate:
		c.draft.CreationDate = value
	case FieldType:
		c.draft.Type = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Reset empties the draft, returns to CREATING and forgets the last submit
// error. An in-flight submit keeps its reentrancy guard until it finishes.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.lastErr = nil
}

func (c *Controller) resetLocked() {
	c.draft = EmptyDraft()
	c.mode = ModeCreating
	c.targetID = ""
}

// Validate checks the current draft and returns the payload it would submit.
func (c *Controller) Validate() (model.Payload, error) {
	c.mu.Lock()
	d := c.draft
	c.mu.Unlock()
	return validateDraft(d)
}

// Submit validates the draft and creates or updates the account. Validation
// failures make no network call. On success the draft is reset and a
// committed event is published before Submit returns.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	payload, err := validateDraft(c.draft)
	if err != nil {
		c.lastErr = err
		c.mu.Unlock()
		c.logger.Debug("draft rejected", "error", err)
		c.notify(err.Error())
		return err
	}
	mode, targetID := c.mode, c.targetID
	c.submitting = true
	c.lastErr = nil
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	var saved model.Account
	if mode == ModeEditing {
		saved, err = c.backend.Update(ctx, targetID, payload)
	} else {
		saved, err = c.backend.Create(ctx, payload)
	}
	if err != nil {
		submitErr := &SubmitError{Mode: mode, TargetID: targetID, Err: err}
		c.mu.Lock()
		c.lastErr = submitErr
		c.mu.Unlock()
		c.logger.Warn("submit failed", "mode", mode.String(), "id", targetID.String(), "error", err)
		c.notify(submitErr.Message())
		return submitErr
	}

	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	evt := events.Committed{Op: events.OpCreated, ID: saved.ID}
	message := "Compte ajouté avec succès"
	if mode == ModeEditing {
		evt = events.Committed{Op: events.OpUpdated, ID: targetID}
		message = "Compte modifié avec succès"
	}
	c.notify(message)
	if c.publisher != nil {
		c.publisher.Publish(ctx, evt)
	}
	return nil
}

func (c *Controller) notify(message string) {
	if c.notifier != nil {
		c.notifier.Notify(message)
	}
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Submitting reports whether a submit is in flight.
func (c *Controller) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Draft:      c.draft,
		Mode:       c.mode,
		TargetID:   c.targetID,
		Submitting: c.submitting,
		LastError:  c.lastErr,
	}
}
