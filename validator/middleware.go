package validator

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/vocdoni/stripe-checkout/errors"
	"go.vocdoni.io/dvote/log"
)

// keys for storing models in context
type (
	ModelKey          struct{}
	ValidatedModelKey struct{}
)

// ValidationError represents an individual validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a slice of ValidationError.
type ValidationErrors []ValidationError

// Error returns a string representation of the validation errors.
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return sb.String()
}

// AddModelMiddleware adds the provided model to the request context.
func (v *Validator) AddModelMiddleware(model any) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ModelKey{}, model)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InputValidator validates the JSON request body against the model stored in the context.
// If successful, the validated instance is added to the context for downstream handlers.
//
// A body that is not JSON at all is rejected with errors.ErrMalformedBody. A
// well formed body whose fields have the wrong type or fail the model rules
// is rejected with errors.ErrInvalidRequestData.
func (v *Validator) InputValidator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only validate for methods that may have a body.
		if r.Method == http.MethodGet || r.Method == http.MethodHead ||
			r.Method == http.MethodOptions || r.Method == http.MethodDelete {
			next.ServeHTTP(w, r)
			return
		}

		// Ensure the Content-Type header indicates JSON.
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			next.ServeHTTP(w, r)
			return
		}

		model := r.Context().Value(ModelKey{})
		if model == nil {
			next.ServeHTTP(w, r)
			return
		}
		instance := reflect.New(reflect.TypeOf(model)).Interface()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			errors.ErrMalformedBody.WithErr(err).Write(w)
			return
		}

		if err := json.Unmarshal(body, instance); err != nil {
			DecodeError(err).Write(w)
			return
		}

		if err := v.validator.Struct(instance); err != nil {
			var fieldErrs validator.ValidationErrors
			if !stderrors.As(err, &fieldErrs) {
				errors.ErrInvalidRequestData.WithErr(err).Write(w)
				return
			}
			var validationErrors ValidationErrors
			for _, fieldErr := range fieldErrs {
				validationErrors = append(validationErrors, ValidationError{
					Field:   fieldErr.Field(),
					Message: getErrorMessage(fieldErr),
				})
			}
			log.Debugw("validation errors", "errors", validationErrors)
			errors.ErrInvalidRequestData.WithErr(validationErrors).Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), ValidatedModelKey{}, instance)
		// Reset the body for downstream use.
		r.Body = io.NopCloser(bytes.NewBuffer(body))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DecodeError classifies a JSON decoding error: type mismatches are the
// caller sending a wrong value, anything else is a malformed body.
func DecodeError(err error) errors.Error {
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		return errors.ErrInvalidRequestData.Withf("%s: invalid value type", typeErr.Field)
	}
	return errors.ErrMalformedBody.WithMessage(err.Error())
}

// GetValidatedModel retrieves the validated model from the context.
func GetValidatedModel(ctx context.Context) (any, bool) {
	model := ctx.Value(ValidatedModelKey{})
	return model, model != nil
}

// getErrorMessage returns a human-readable error message for a validation error.
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return fmt.Sprintf("Must be greater than %s", err.Param())
	case "min":
		return fmt.Sprintf("Must be at least %s characters long", err.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters long", err.Param())
	case "stripeid":
		return "Invalid Stripe identifier"
	case "invoiceid":
		return fmt.Sprintf("Must be at most %d printable characters", MaxInvoiceIDLength)
	default:
		return fmt.Sprintf("Invalid value: %s", err.Tag())
	}
}
