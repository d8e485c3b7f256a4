package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// AccountType classifies a compte. Values are the wire enum.
type AccountType string

const (
	AccountTypeChecking AccountType = "COURANT"
	AccountTypeSavings  AccountType = "EPARGNE"
)

// DefaultAccountType is used for new drafts and for accounts the backend
// returns without a type.
const DefaultAccountType = AccountTypeChecking

// ParseAccountType accepts the wire names and the English aliases,
// case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COURANT", "CHECKING":
		return AccountTypeChecking, nil
	case "EPARGNE", "ÉPARGNE", "SAVINGS":
		return AccountTypeSavings, nil
	default:
		return "", fmt.Errorf("unknown account type %q", s)
	}
}

// Valid reports whether t is one of the known types.
func (t AccountType) Valid() bool {
	return t == AccountTypeChecking || t == AccountTypeSavings
}

// Label returns the display name.
func (t AccountType) Label() string {
	switch t {
	case AccountTypeChecking:
		return "Courant"
	case AccountTypeSavings:
		return "Épargne"
	default:
		return string(t)
	}
}

// ID is the backend-assigned account identifier. The backend may send it as
// a JSON number or string; it is kept as its textual form.
type ID string

// MarshalJSON emits canonical integer IDs as JSON numbers and everything
// else, including "007" or "+5", as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON accepts a JSON number, string, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// String returns the textual form of the ID.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id == "" }

// Account is a persisted compte as returned by the backend.
type Account struct {
	ID           ID              `json:"id,omitempty"`
	Balance      decimal.Decimal `json:"solde"`
	CreationDate Date            `json:"dateCreation"`
	Type         AccountType     `json:"type"`
}

// MarshalJSON writes the balance as a JSON number.
func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID           ID          `json:"id,omitempty"`
		Solde        json.Number `json:"solde"`
		DateCreation Date        `json:"dateCreation"`
		Type         AccountType `json:"type"`
	}{a.ID, json.Number(a.Balance.String()), a.CreationDate, a.Type})
}

var (
	errNegativeBalance = errors.New("balance must not be negative")
	errMissingDate     = errors.New("creation date must be set")
	errInvalidType     = errors.New("account type must be COURANT or EPARGNE")
	errMissingID       = errors.New("persisted account must have an id")
)

// Validate checks the invariants every persisted account must satisfy.
func (a Account) Validate() error {
	if a.ID.IsZero() {
		return errMissingID
	}
	if a.Balance.IsNegative() {
		return errNegativeBalance
	}
	if a.CreationDate.IsZero() {
		return errMissingDate
	}
	if !a.Type.Valid() {
		return errInvalidType
	}
	return nil
}

// Payload is the body of a create or update request.
type Payload struct {
	Balance      decimal.Decimal
	CreationDate Date
	Type         AccountType
}

type wirePayload struct {
	Solde        json.Number `json:"solde"`
	DateCreation Date        `json:"dateCreation"`
	Type         AccountType `json:"type"`
}

// MarshalJSON writes the balance as a JSON number rather than the quoted
// string decimal.Decimal produces by default.
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePayload{
		Solde:        json.Number(p.Balance.String()),
		DateCreation: p.CreationDate,
		Type:         p.Type,
	})
}

// UnmarshalJSON reads a payload in wire form.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var w struct {
		Solde        decimal.Decimal `json:"solde"`
		DateCreation Date            `json:"dateCreation"`
		Type         AccountType     `json:"type"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Payload{Balance: w.Solde, CreationDate: w.DateCreation, Type: w.Type}
	return nil
}
