package app

import (
	"context"
	"log/slog"

	"github.com/comptes-dev/comptes/internal/activity"
	"github.com/comptes-dev/comptes/internal/events"
	"github.com/comptes-dev/comptes/internal/form"
	"github.com/comptes-dev/comptes/internal/list"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/prompt"
)

// Backend is the full REST API: what the list and the form need together.
type Backend interface {
	list.Backend
	form.Backend
}

// Coordinator plays the parent view: it owns the bus and wires the list and
// form controllers together. Neither controller reads the other's state.
type Coordinator struct {
	Form *form.Controller
	List *list.Controller

	bus          *events.Bus
	unsubscribes []func()
}

// Options configures New.
type Options struct {
	Logger   *slog.Logger
	Activity *activity.Recorder
}

// New builds both controllers on backend and subscribes the list to
// committed events.
func New(backend Backend, p prompt.Prompter, opts Options) *Coordinator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	bus := events.NewBus()

	c := &Coordinator{bus: bus}
	c.Form = form.NewController(backend, p,
		form.WithPublisher(bus),
		form.WithLogger(logger),
	)
	c.List = list.NewController(backend, p,
		list.WithEditHandler(c.Form.LoadForEdit),
		list.WithPublisher(bus),
		list.WithLogger(logger),
	)

	c.unsubscribes = append(c.unsubscribes, bus.Subscribe(c.List.HandleCommitted))
	if opts.Activity != nil {
		c.unsubscribes = append(c.unsubscribes, bus.Subscribe(opts.Activity.Handle))
	}
	return c
}

// Subscribe adds another listener for committed changes.
func (c *Coordinator) Subscribe(h events.Handler) (unsubscribe func()) {
	return c.bus.Subscribe(h)
}

// Mount performs the list's initial load.
func (c *Coordinator) Mount(ctx context.Context) error {
	return c.List.Mount(ctx)
}

// Reload refreshes the list; it is also the retry action of the error view.
func (c *Coordinator) Reload(ctx context.Context) error {
	return c.List.Reload(ctx)
}

// Edit loads the listed account id into the form.
func (c *Coordinator) Edit(id model.ID) error {
	return c.List.RequestEdit(id)
}

// Cancel abandons the current draft.
func (c *Coordinator) Cancel() {
	c.Form.Reset()
}

// Submit saves the draft; on success the list has already reloaded when
// Submit returns.
func (c *Coordinator) Submit(ctx context.Context) error {
	return c.Form.Submit(ctx)
}

// Delete asks for confirmation and deletes id.
func (c *Coordinator) Delete(ctx context.Context, id model.ID) (bool, error) {
	return c.List.RequestDelete(ctx, id)
}

// Close detaches every subscriber New registered.
func (c *Coordinator) Close() {
	for _, unsubscribe := range c.unsubscribes {
		unsubscribe()
	}
	c.unsubscribes = nil
}
