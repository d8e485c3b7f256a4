package stubserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/shopspring/decimal"

	"github.com/comptes-dev/comptes/internal/model"
)

// accountRequest is the body of POST /comptes and PUT /comptes/:id.
type accountRequest struct {
	Solde        json.Number `json:"solde" validate:"required,numeric"`
	DateCreation string      `json:"dateCreation" validate:"required,datetime=2006-01-02"`
	Type         string      `json:"type" validate:"required,oneof=COURANT EPARGNE"`
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationError carries field failures up to the error handler.
type validationError struct {
	fields []fieldError
}

func (e *validationError) Error() string {
	parts := make([]string, len(e.fields))
	for i, f := range e.fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// handler serves the comptes resource from a Store.
type handler struct {
	store    Store
	validate *validator.Validate
}

func (h *handler) list(c *fiber.Ctx) error {
	accounts, err := h.store.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(accounts)
}

func (h *handler) create(c *fiber.Ctx) error {
	p, err := h.payload(c)
	if err != nil {
		return err
	}
	acct, err := h.store.Create(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(acct)
}

func (h *handler) update(c *fiber.Ctx) error {
	p, err := h.payload(c)
	if err != nil {
		return err
	}
	acct, err := h.store.Update(c.UserContext(), idParam(c), p)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(acct)
}

func (h *handler) delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), idParam(c)); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// idParam copies the :id route param out of the request buffer, which
// fasthttp reuses once the handler returns.
func idParam(c *fiber.Ctx) model.ID {
	return model.ID(utils.CopyString(c.Params("id")))
}

func (h *handler) health(c *fiber.Ctx) error {
	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(c.UserContext()); err != nil {
		status = err.Error()
		code = http.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"store": status})
}

// payload parses and validates the request body.
func (h *handler) payload(c *fiber.Ctx) (model.Payload, error) {
	var req accountRequest
	if err := c.BodyParser(&req); err != nil {
		return model.Payload{}, fiber.NewError(http.StatusBadRequest, fmt.Sprintf("corps de requête invalide: %v", err))
	}

	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.Payload{}, fiber.NewError(http.StatusBadRequest, err.Error())
		}
		out := &validationError{}
		for _, fe := range verrs {
			out.fields = append(out.fields, fieldError{Field: fe.Field(), Message: translateValidationError(fe)})
		}
		return model.Payload{}, out
	}

	balance, err := decimal.NewFromString(req.Solde.String())
	if err != nil {
		return model.Payload{}, &validationError{fields: []fieldError{{Field: "solde", Message: "solde doit être un nombre"}}}
	}
	if balance.IsNegative() {
		return model.Payload{}, &validationError{fields: []fieldError{{Field: "solde", Message: "solde ne peut pas être négatif"}}}
	}
	date, err := model.ParseDate(req.DateCreation)
	if err != nil {
		return model.Payload{}, &validationError{fields: []fieldError{{Field: "dateCreation", Message: "dateCreation doit être une date valide"}}}
	}

	return model.Payload{Balance: balance, CreationDate: date, Type: model.AccountType(req.Type)}, nil
}

func translateValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s est obligatoire", fe.Field())
	case "numeric":
		return fmt.Sprintf("%s doit être un nombre", fe.Field())
	case "datetime":
		return fmt.Sprintf("%s doit être une date au format AAAA-MM-JJ", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s doit être l'une des valeurs: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("la validation '%s' a échoué pour %s", fe.Tag(), fe.Field())
	}
}

// statusOf maps a handler error to its response status.
func statusOf(err error) int {
	var (
		verr *validationError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ferr):
		return ferr.Code
	default:
		return http.StatusInternalServerError
	}
}

// errorHandler renders every failure as an errorResponse.
func errorHandler(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	resp := errorResponse{Code: http.StatusText(status), Message: err.Error()}

	var (
		verr *validationError
		ferr *fiber.Error
	)
	switch {
	case errors.As(err, &verr):
		resp = errorResponse{Code: "VALIDATION_ERROR", Message: "Erreur de validation des champs", Fields: verr.fields}
	case errors.Is(err, ErrNotFound):
		resp = errorResponse{Code: "NOT_FOUND", Message: "Compte introuvable"}
	case errors.As(err, &ferr):
		resp.Message = ferr.Message
	}
	return c.Status(status).JSON(resp)
}
