package form

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/comptes-dev/comptes/internal/model"
)

// Code identifies which draft check failed.
type Code int

const (
	MissingBalance Code = iota + 1
	InvalidBalance
	NegativeBalance
	MissingDate
	InvalidDate
	MissingType
	InvalidType
)

var codeMessages = map[Code]string{
	MissingBalance:  "Veuillez entrer un solde",
	InvalidBalance:  "Le solde doit être un nombre",
	NegativeBalance: "Le solde ne peut pas être négatif",
	MissingDate:     "Veuillez sélectionner une date de création",
	InvalidDate:     "La date de création doit être au format AAAA-MM-JJ",
	MissingType:     "Veuillez sélectionner un type de compte",
	InvalidType:     "Le type de compte doit être COURANT ou EPARGNE",
}

var codeNames = map[Code]string{
	MissingBalance:  "MissingBalance",
	InvalidBalance:  "InvalidBalance",
	NegativeBalance: "NegativeBalance",
	MissingDate:     "MissingDate",
	InvalidDate:     "InvalidDate",
	MissingType:     "MissingType",
	InvalidType:     "InvalidType",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "Unknown"
}

// Message is the user-facing text for the code.
func (c Code) Message() string {
	return codeMessages[c]
}

// ValidationError is a draft that cannot be submitted. It never reaches the
// network and is always recoverable by editing the draft.
type ValidationError struct {
	Code  Code
	Field Field
}

func (e *ValidationError) Error() string {
	return e.Code.Message()
}

func invalid(code Code, field Field) *ValidationError {
	return &ValidationError{Code: code, Field: field}
}

// validateDraft runs the checks in order and stops at the first failure.
func validateDraft(d Draft) (model.Payload, error) {
	rawBalance := strings.TrimSpace(d.Balance)
	if rawBalance == "" {
		return model.Payload{}, invalid(MissingBalance, FieldBalance)
	}
	balance, err := decimal.NewFromString(rawBalance)
	if err != nil {
		return model.Payload{}, invalid(InvalidBalance, FieldBalance)
	}
	if balance.IsNegative() {
		return model.Payload{}, invalid(NegativeBalance, FieldBalance)
	}

	rawDate := strings.TrimSpace(d.CreationDate)
	if rawDate == "" {
		return model.Payload{}, invalid(MissingDate, FieldCreationDate)
	}
	date, err := model.ParseDate(rawDate)
	if err != nil {
		return model.Payload{}, invalid(InvalidDate, FieldCreationDate)
	}

	if strings.TrimSpace(d.Type) == "" {
		return model.Payload{}, invalid(MissingType, FieldType)
	}
	accountType, err := model.ParseAccountType(d.Type)
	if err != nil {
		return model.Payload{}, invalid(InvalidType, FieldType)
	}

	return model.Payload{Balance: balance, CreationDate: date, Type: accountType}, nil
}
