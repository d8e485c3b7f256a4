package form

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comptes-dev/comptes/internal/api"
	"github.com/comptes-dev/comptes/internal/api/apitest"
	"github.com/comptes-dev/comptes/internal/events"
	"github.com/comptes-dev/comptes/internal/logging"
	"github.com/comptes-dev/comptes/internal/model"
	"github.com/comptes-dev/comptes/internal/prompt"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Committed
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Committed) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func newTestController(t *testing.T, backend Backend) (*Controller, *prompt.Recorder, *recordingPublisher) {
	t.Helper()
	rec := &prompt.Recorder{}
	pub := &recordingPublisher{}
	return NewController(backend, rec, WithPublisher(pub), WithLogger(logging.Discard())), rec, pub
}

func fill(t *testing.T, c *Controller, balance, date, accountType string) {
	t.Helper()
	require.NoError(t, c.UpdateField(FieldBalance, balance))
	require.NoError(t, c.UpdateField(FieldCreationDate, date))
	require.NoError(t, c.UpdateField(FieldType, accountType))
}

func existingAccount() model.Account {
	return model.Account{
		ID:           "1",
		Balance:      decimal.RequireFromString("500"),
		CreationDate: model.Date{Year: 2024, Month: time.December, Day: 31},
		Type:         model.AccountTypeChecking,
	}
}

func validationCode(t *testing.T, err error) Code {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Code
}

func TestNewController_EmptyDraft(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())

	assert.Equal(t, Draft{Balance: "", CreationDate: "", Type: "COURANT"}, c.Draft())
	assert.Equal(t, ModeCreating, c.Mode())
	assert.False(t, c.Submitting())
}

func TestValidate_Order(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		want    Code
		wantErr bool
	}{
		{"balance and date empty reports balance", Draft{Type: "COURANT"}, MissingBalance, true},
		{"everything empty reports balance", Draft{}, MissingBalance, true},
		{"whitespace balance", Draft{Balance: "  ", CreationDate: "2025-01-10", Type: "COURANT"}, MissingBalance, true},
		{"not a number", Draft{Balance: "abc", Type: "COURANT"}, InvalidBalance, true},
		{"negative", Draft{Balance: "-5", Type: "COURANT"}, NegativeBalance, true},
		{"negative before missing date", Draft{Balance: "-5"}, NegativeBalance, true},
		{"missing date", Draft{Balance: "10", Type: "COURANT"}, MissingDate, true},
		{"bad date", Draft{Balance: "10", CreationDate: "10/01/2025", Type: "COURANT"}, InvalidDate, true},
		{"missing type", Draft{Balance: "10", CreationDate: "2025-01-10"}, MissingType, true},
		{"bad type", Draft{Balance: "10", CreationDate: "2025-01-10", Type: "GOLD"}, InvalidType, true},
		{"zero balance is fine", Draft{Balance: "0", CreationDate: "2025-01-10", Type: "EPARGNE"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateDraft(tt.draft)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, validationCode(t, err))
		})
	}
}

func TestValidate_Success(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())
	fill(t, c, "100.50", "2025-01-10", "EPARGNE")

	p, err := c.Validate()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("100.5").Equal(p.Balance))
	assert.InDelta(t, 100.5, p.Balance.InexactFloat64(), 0.0001)
	assert.Equal(t, "2025-01-10", p.CreationDate.String())
	assert.Equal(t, model.AccountTypeSavings, p.Type)
}

func TestValidationError_Messages(t *testing.T) {
	err := &ValidationError{Code: NegativeBalance, Field: FieldBalance}
	assert.Equal(t, "Le solde ne peut pas être négatif", err.Error())
	assert.Equal(t, "NegativeBalance", NegativeBalance.String())
	for code := MissingBalance; code <= InvalidType; code++ {
		assert.NotEmpty(t, code.Message(), "code %s", code)
	}
}

func TestUpdateField_Unknown(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())
	err := c.UpdateField("iban", "FR76")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSubmit_ValidationErrorMakesNoCall(t *testing.T) {
	backend := apitest.NewBackend()
	c, rec, pub := newTestController(t, backend)
	fill(t, c, "", "", "COURANT")

	err := c.Submit(context.Background())
	assert.Equal(t, MissingBalance, validationCode(t, err))

	assert.Empty(t, backend.Calls)
	assert.Empty(t, pub.events)
	assert.Equal(t, "Veuillez entrer un solde", rec.Last())
	assert.False(t, c.Submitting())
	assert.Equal(t, err, c.State().LastError)
}

func TestSubmit_CreateSuccessResetsDraft(t *testing.T) {
	backend := apitest.NewBackend()
	c, rec, pub := newTestController(t, backend)
	fill(t, c, "100.50", "2025-01-10", "EPARGNE")

	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, []api.Op{api.OpCreate}, backend.Calls)
	require.Len(t, backend.Payloads, 1)
	assert.True(t, decimal.RequireFromString("100.5").Equal(backend.Payloads[0].Balance))

	assert.Equal(t, EmptyDraft(), c.Draft())
	assert.Equal(t, ModeCreating, c.Mode())
	assert.False(t, c.Submitting())
	assert.Equal(t, "Compte ajouté avec succès", rec.Last())
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.OpCreated, pub.events[0].Op)
	assert.Equal(t, model.ID("1"), pub.events[0].ID)
}

func TestSubmit_EditIssuesUpdate(t *testing.T) {
	backend := apitest.NewBackend(existingAccount())
	c, rec, pub := newTestController(t, backend)

	require.NoError(t, c.LoadForEdit(existingAccount()))
	assert.Equal(t, ModeEditing, c.Mode())
	assert.Equal(t, Draft{Balance: "500", CreationDate: "2024-12-31", Type: "COURANT"}, c.Draft())

	require.NoError(t, c.UpdateField(FieldBalance, "750.25"))
	require.NoError(t, c.Submit(context.Background()))

	assert.Equal(t, []api.Op{api.OpUpdate}, backend.Calls)
	assert.True(t, decimal.RequireFromString("750.25").Equal(backend.Accounts()[0].Balance))
	assert.Equal(t, ModeCreating, c.Mode())
	assert.Equal(t, "Compte modifié avec succès", rec.Last())
	require.Len(t, pub.events, 1)
	assert.Equal(t, events.Committed{Op: events.OpUpdated, ID: "1"}, pub.events[0])
}

func TestSubmit_NetworkFailureKeepsDraft(t *testing.T) {
	backend := apitest.NewBackend(existingAccount())
	backend.UpdateErr = &api.Error{Op: api.OpUpdate, Status: 500}
	c, rec, pub := newTestController(t, backend)

	require.NoError(t, c.LoadForEdit(existingAccount()))
	require.NoError(t, c.UpdateField(FieldType, "EPARGNE"))
	before := c.Draft()

	err := c.Submit(context.Background())
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, ModeEditing, submitErr.Mode)
	assert.Equal(t, model.ID("1"), submitErr.TargetID)
	var apiErr *api.Error
	assert.ErrorAs(t, err, &apiErr)

	assert.Equal(t, before, c.Draft())
	assert.Equal(t, ModeEditing, c.Mode())
	assert.False(t, c.Submitting())
	assert.Equal(t, "Erreur lors de la modification du compte", rec.Last())
	assert.Empty(t, pub.events)

	// Retry after the backend recovers.
	backend.SetErr(api.OpUpdate, nil)
	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, model.AccountTypeSavings, backend.Accounts()[0].Type)
}

func TestSubmit_CreateFailureMessage(t *testing.T) {
	backend := apitest.NewBackend()
	backend.CreateErr = errors.New("connection refused")
	c, rec, _ := newTestController(t, backend)
	fill(t, c, "1", "2025-01-10", "COURANT")

	err := c.Submit(context.Background())
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, ModeCreating, submitErr.Mode)
	assert.Contains(t, err.Error(), "creating compte")
	assert.Equal(t, "Erreur lors de la création du compte", rec.Last())
	assert.Equal(t, "1", c.Draft().Balance)
}

func TestSubmit_ReentrancyGuard(t *testing.T) {
	backend := apitest.NewBackend()
	backend.Gate = make(chan struct{})
	c, _, _ := newTestController(t, backend)
	fill(t, c, "10", "2025-01-10", "COURANT")

	done := make(chan error, 1)
	go func() { done <- c.Submit(context.Background()) }()

	require.Eventually(t, c.Submitting, time.Second, time.Millisecond)
	assert.ErrorIs(t, c.Submit(context.Background()), ErrSubmitInProgress)

	backend.Gate <- struct{}{}
	require.NoError(t, <-done)
	assert.False(t, c.Submitting())
	assert.Equal(t, 1, backend.CallCount(api.OpCreate))
}

func TestLoadForEditThenReset(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())

	require.NoError(t, c.LoadForEdit(existingAccount()))
	c.Reset()
	assert.Equal(t, ModeCreating, c.Mode())
	assert.Equal(t, EmptyDraft(), c.Draft())
	assert.Empty(t, c.State().TargetID)

	// Reset from CREATING stays CREATING.
	c.Reset()
	assert.Equal(t, ModeCreating, c.Mode())
}

func TestLoadForEdit_DefaultsAndNormalizes(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())

	acct := existingAccount()
	acct.Type = ""
	acct.CreationDate = model.Date{}
	require.NoError(t, c.LoadForEdit(acct))
	assert.Equal(t, "COURANT", c.Draft().Type)
	assert.Equal(t, "", c.Draft().CreationDate)

	assert.ErrorIs(t, c.LoadForEdit(model.Account{}), ErrMissingID)
}

func TestReset_ClearsLastError(t *testing.T) {
	c, _, _ := newTestController(t, apitest.NewBackend())
	require.Error(t, c.Submit(context.Background()))
	require.Error(t, c.State().LastError)

	c.Reset()
	assert.NoError(t, c.State().LastError)
}

func TestModeLabels(t *testing.T) {
	assert.Equal(t, "Ajouter un Compte", ModeCreating.Title())
	assert.Equal(t, "Modifier", ModeEditing.SubmitLabel())
	assert.Equal(t, "editing", ModeEditing.String())
}

func TestSubmit_NilNotifierAndPublisher(t *testing.T) {
	c := NewController(apitest.NewBackend(), nil, WithLogger(logging.Discard()))
	fill(t, c, "3", "2025-01-10", "COURANT")
	assert.NoError(t, c.Submit(context.Background()))
}
