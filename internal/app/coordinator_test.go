package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptes-dev/comptes/internal/activity"
	"github.com/comptes-dev/comptes/internal/api"
	"github.com/comptes-dev/comptes/internal/api/apitest"
	"github.com/comptes-dev/comptes/internal/events"
	"github.com/comptes-dev/comptes/internal/form"
	"github.com/comptes-dev/comptes/internal/list"
	"github.com/comptes-dev/comptes/internal/logging"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/prompt"
)

func account500() model.Account {
	return model.Account{
		ID:           "1",
		Balance:      decimal.RequireFromString("500"),
		CreationDate: model.Date{Year: 2025, Month: time.January, Day: 10},
		Type:         model.AccountTypeChecking,
	}
}

func newCoordinator(t *testing.T, backend Backend, answer bool) (*Coordinator, *prompt.Recorder) {
	t.Helper()
	rec := &prompt.Recorder{Answer: answer}
	c := New(backend, rec, Options{Logger: logging.Discard()})
	t.Cleanup(c.Close)
	return c, rec
}

func TestCreateTriggersReload(t *testing.T) {
	backend := apitest.NewBackend()
	c, _ := newCoordinator(t, backend, false)
	require.NoError(t, c.Mount(context.Background()))
	assert.Equal(t, list.ViewEmpty, c.List.State().View())

	require.NoError(t, c.Form.UpdateField(form.FieldBalance, "250"))
	require.NoError(t, c.Form.UpdateField(form.FieldCreationDate, "2025-02-01"))
	require.NoError(t, c.Submit(context.Background()))

	st := c.List.State()
	require.Len(t, st.Accounts, 1)
	assert.True(t, decimal.RequireFromString("250").Equal(st.Accounts[0].Balance))
	assert.Equal(t, 2, backend.CallCount(api.OpList))
}

func TestEditLoadsFormThenUpdateReloads(t *testing.T) {
	backend := apitest.NewBackend(account500())
	c, _ := newCoordinator(t, backend, false)
	require.NoError(t, c.Mount(context.Background()))

	require.NoError(t, c.Edit("1"))
	assert.Equal(t, form.ModeEditing, c.Form.Mode())
	assert.Equal(t, "500", c.Form.Draft().Balance)

	require.NoError(t, c.Form.UpdateField(form.FieldType, "EPARGNE"))
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, form.ModeCreating, c.Form.Mode())
	assert.Equal(t, model.AccountTypeSavings, c.List.State().Accounts[0].Type)
}

func TestCancelReturnsToCreating(t *testing.T) {
	c, _ := newCoordinator(t, apitest.NewBackend(account500()), false)
	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.Edit("1"))

	c.Cancel()
	assert.Equal(t, form.ModeCreating, c.Form.Mode())
	assert.Equal(t, form.EmptyDraft(), c.Form.Draft())
}

func TestDeleteScenario_EmptyAfterReload(t *testing.T) {
	backend := apitest.NewBackend(account500())
	c, rec := newCoordinator(t, backend, true)
	require.NoError(t, c.Mount(context.Background()))
	require.Len(t, c.List.State().Accounts, 1)

	deleted, err := c.Delete(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	st := c.List.State()
	assert.Equal(t, list.ViewEmpty, st.View())
	assert.Equal(t, 0, st.Count())
	// Deletes reload once in place, not again through the bus.
	assert.Equal(t, 2, backend.CallCount(api.OpList))
	assert.Equal(t, list.DeletedMessage, rec.Last())
}

func TestFailedSubmitDoesNotReload(t *testing.T) {
	backend := apitest.NewBackend()
	backend.CreateErr = &api.Error{Op: api.OpCreate, Status: 503}
	c, _ := newCoordinator(t, backend, false)
	require.NoError(t, c.Mount(context.Background()))

	require.NoError(t, c.Form.UpdateField(form.FieldBalance, "5"))
	require.NoError(t, c.Form.UpdateField(form.FieldCreationDate, "2025-02-01"))
	require.Error(t, c.Submit(context.Background()))

	assert.Equal(t, 1, backend.CallCount(api.OpList))
	assert.Equal(t, "5", c.Form.Draft().Balance)
}

func TestActivityRecorded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity.csv")
	backend := apitest.NewBackend(account500())
	rec := &prompt.Recorder{Answer: true}
	c := New(backend, rec, Options{
		Logger:   logging.Discard(),
		Activity: activity.NewRecorder(path, "http://test/api", logging.Discard()),
	})
	defer c.Close()

	require.NoError(t, c.Mount(context.Background()))
	require.NoError(t, c.Form.UpdateField(form.FieldBalance, "1"))
	require.NoError(t, c.Form.UpdateField(form.FieldCreationDate, "2025-02-01"))
	require.NoError(t, c.Submit(context.Background()))
	_, err := c.Delete(context.Background(), "1")
	require.NoError(t, err)

	entries, err := activity.Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, events.OpCreated, entries[0].Op)
	assert.Equal(t, model.ID("2"), entries[0].AccountID)
	assert.Equal(t, events.OpDeleted, entries[1].Op)
	assert.Equal(t, model.ID("1"), entries[1].AccountID)
}

func TestExtraSubscriberAndClose(t *testing.T) {
	backend := apitest.NewBackend()
	c, _ := newCoordinator(t, backend, false)

	var seen []events.Op
	unsubscribe := c.Subscribe(func(_ context.Context, evt events.Committed) { seen = append(seen, evt.Op) })
	defer unsubscribe()

	require.NoError(t, c.Form.UpdateField(form.FieldBalance, "1"))
	require.NoError(t, c.Form.UpdateField(form.FieldCreationDate, "2025-02-01"))
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, []events.Op{events.OpCreated}, seen)

	c.Close()
	require.NoError(t, c.Form.UpdateField(form.FieldBalance, "2"))
	require.NoError(t, c.Form.UpdateField(form.FieldCreationDate, "2025-02-01"))
	require.NoError(t, c.Submit(context.Background()))

	// The list is detached; only the extra subscriber still hears events.
	assert.Equal(t, 1, backend.CallCount(api.OpList))
	assert.Len(t, seen, 2)
}
