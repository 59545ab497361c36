// Package validator decodes JSON request bodies and checks them against
// go-playground/validator struct tags.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

// ErrMalformedBody is wrapped by DecodeAndValidate when the body is empty,
// is not JSON of the destination's shape, or has data after the object.
var ErrMalformedBody = errors.New("malformed request body")

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

// jsonFieldName reports fields by the key clients send.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	default:
		return name
	}
}

// ValidationError lists every failed field of a request payload.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field() + " " + describe(fe)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Details returns one response detail per failed field, in declaration order.
func (e *ValidationError) Details() []apperrors.Detail {
	details := make([]apperrors.Detail, len(e.Errors))
	for i, fe := range e.Errors {
		details[i] = apperrors.Detail{Path: fe.Field(), Message: describe(fe)}
	}
	return details
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

// Validate checks s against its validate tags. Field failures are returned
// as *ValidationError.
func Validate(s any) error {
	err := validate.Struct(s)
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return &ValidationError{Errors: fieldErrs}
	}
	return err
}

// DecodeAndValidate decodes a single JSON value from the request body into
// dst and validates it. Unknown keys are ignored. Decoding failures wrap both
// ErrMalformedBody and the decoder's error, so callers can still detect
// *http.MaxBytesError.
func DecodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		return fmt.Errorf("decode request body: %w: %w", ErrMalformedBody, err)
	}
	switch _, err := dec.Token(); {
	case err == nil:
		return fmt.Errorf("decode request body: %w: trailing data after JSON value", ErrMalformedBody)
	case !errors.Is(err, io.EOF):
		return fmt.Errorf("decode request body: %w: %w", ErrMalformedBody, err)
	}
	return Validate(dst)
}
