package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"stuffbox-backend/internal/repository"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnauthenticated means the request carried no live token
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNotFound covers both missing entities and ownership failures so callers
	// cannot probe for existence
	ErrNotFound = errors.New("not found")
	// ErrAlreadyInRelation rejects a like/follow that already holds
	ErrAlreadyInRelation = errors.New("already in relation")
	// ErrNotInRelation rejects an unlike/unfollow that does not hold
	ErrNotInRelation = errors.New("not in relation")
	// ErrStoreUnavailable is transient; the whole request may be retried
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidCredentials is returned by Login
	ErrInvalidCredentials = errors.New("unable to login")
	// ErrConflict rejects a write whose snapshot was changed by another request
	ErrConflict = errors.New("conflicting update, reload and retry")
	// ErrInvalidUpdate rejects requests that touch fields or members they may not
	ErrInvalidUpdate = errors.New("invalid update")
)

// ValidationError carries field constraint violations, surfaced verbatim to the caller
type ValidationError struct {
	Fields map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+": "+rule)
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func validationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

// PartialFailureError reports a multi-document operation that stopped after some
// of its steps were committed. Applied steps are not rolled back.
type PartialFailureError struct {
	Op        string
	Step      string
	Completed []string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s: step %q failed after %v: %v", e.Op, e.Step, e.Completed, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

// newValidator reports fields by their json names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and converts failures into a ValidationError
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fe.Field()] = rule
	}
	return &ValidationError{Fields: fields}
}

// storeErr maps repository errors onto the service error set
func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func isPartial(err error) bool {
	var pf *PartialFailureError
	return errors.As(err, &pf)
}
