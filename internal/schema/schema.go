// Package schema validates request and response shapes declared in package domain.
//
// Validation never panics and never returns a bare error: callers receive a
// Result that is either OK or carries field-path-qualified issues.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"

	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

var (
	nonNegativeNumeric = regexp.MustCompile(`^\d+(\.\d+)?$`)
	languageCode       = regexp.MustCompile(`^[a-z]{2}$`)
)

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the client's custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("nonneg_numeric", func(fl validator.FieldLevel) bool {
			return nonNegativeNumeric.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
			return languageCode.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Result is either a valid Value or a list of issues.
type Result[T any] struct {
	Value  T
	Issues []apperrors.FieldIssue
}

// OK reports whether validation passed.
func (r Result[T]) OK() bool {
	return len(r.Issues) == 0
}

// Err returns nil for a valid result and a *ValidationError otherwise.
func (r Result[T]) Err() error {
	if r.OK() {
		return nil
	}
	return apperrors.NewValidationError(r.Issues...)
}

// Validate checks v against its struct tags.
func Validate[T any](v T) Result[T] {
	return Result[T]{Value: v, Issues: collect(reflect.ValueOf(v), "")}
}

// Decode parses raw JSON into T and validates it.
func Decode[T any](raw []byte) Result[T] {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result[T]{Value: out, Issues: []apperrors.FieldIssue{decodeIssue(err)}}
	}
	return Validate(out)
}

// Check validates any value and returns a *ValidationError or nil.
func Check(v any) error {
	issues := collect(reflect.ValueOf(v), "")
	if len(issues) == 0 {
		return nil
	}
	return apperrors.NewValidationError(issues...)
}

func collect(rv reflect.Value, prefix string) []apperrors.FieldIssue {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		err := Validator().Struct(rv.Interface())
		return toIssues(err, rv.Type().Name(), prefix)
	case reflect.Slice, reflect.Array:
		var issues []apperrors.FieldIssue
		for i := 0; i < rv.Len(); i++ {
			issues = append(issues, collect(rv.Index(i), fmt.Sprintf("%s[%d]", prefix, i))...)
		}
		return issues
	default:
		return nil
	}
}

func toIssues(err error, rootName, prefix string) []apperrors.FieldIssue {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []apperrors.FieldIssue{{Field: prefix, Message: err.Error()}}
	}

	issues := make([]apperrors.FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		path := strings.TrimPrefix(fe.Namespace(), rootName+".")
		if prefix != "" {
			path = prefix + "." + path
		}
		issues = append(issues, apperrors.FieldIssue{Field: path, Message: message(fe)})
	}
	return issues
}

func decodeIssue(err error) apperrors.FieldIssue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.FieldIssue{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("must be of type %s", typeErr.Type),
		}
	}
	return apperrors.FieldIssue{Message: fmt.Sprintf("malformed json: %v", err)}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return strings.ToLower(fld.Name)
	}
	return name
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "e164":
		return "must be a phone number in E.164 format"
	case "eqfield":
		return fmt.Sprintf("must match %s", strings.ToLower(fe.Param()))
	case "gtfield":
		return fmt.Sprintf("must be after %s", strings.ToLower(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at least %s items", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must contain at most %s items", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "nonneg_numeric":
		return "must be a non-negative number"
	case "lang":
		return "must be a two-letter language code"
	case "datetime":
		return fmt.Sprintf("must be a date in %s layout", fe.Param())
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a UUID"
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
