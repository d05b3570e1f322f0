package validation

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a validation failure by the step that produced it.
type Kind int

const (
	Unauthorized Kind = iota + 1
	InvalidHeader
	InvalidPathParameter
	InvalidQuery
	InvalidBody
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case InvalidHeader:
		return "InvalidHeader"
	case InvalidPathParameter:
		return "InvalidPathParameter"
	case InvalidQuery:
		return "InvalidQuery"
	case InvalidBody:
		return "InvalidBody"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrorCode constants for machine-readable error identification
const (
	ErrCodeRequired     = "required"
	ErrCodeType         = "type"
	ErrCodeMinLength    = "min_length"
	ErrCodeMaxLength    = "max_length"
	ErrCodePattern      = "pattern"
	ErrCodeFormat       = "format"
	ErrCodeMin          = "min"
	ErrCodeMax          = "max"
	ErrCodeExclusiveMin = "exclusive_min"
	ErrCodeExclusiveMax = "exclusive_max"
	ErrCodeMinItems     = "min_items"
	ErrCodeMaxItems     = "max_items"
	ErrCodeUniqueItems  = "unique_items"
	ErrCodeEnum         = "enum"
	ErrCodeSchema       = "schema"
	ErrCodeInvalidJSON  = "invalid_json"
	ErrCodeUnknownField = "unknown_field"
	ErrCodeEmptyValue   = "empty_value"
	ErrCodeTooLarge     = "too_large"
	ErrCodeCredentials  = "credentials"
)

// ErrorLocation constants
const (
	LocationBody   = "body"
	LocationPath   = "path"
	LocationQuery  = "query"
	LocationHeader = "header"
	LocationCookie = "cookie"
)

// FieldError represents a detailed validation error for a single field.
type FieldError struct {
	// Field is the name of the field that failed validation
	Field string `json:"field"`

	// Location indicates where the field is: body, path, query, header, cookie
	Location string `json:"location"`

	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Received is the actual value that was received
	Received any `json:"received,omitempty"`

	// Expected describes what was expected
	Expected string `json:"expected,omitempty"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s %q: %s", e.Location, e.Field, e.Message)
	}
	return e.Message
}

// Result collects the field errors of one step.
type Result struct {
	Errors []*FieldError
}

// AddError adds a validation error to the result
func (r *Result) AddError(err *FieldError) {
	r.Errors = append(r.Errors, err)
}

// HasErrors returns true if there are any validation errors
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Error is the outcome of a failed pipeline step. It is a value, never a panic.
type Error struct {
	Kind Kind
	// Step is the name of the failing step.
	Step   string
	Status int
	// Message names the stage and the offending field.
	Message string
	Fields  []*FieldError
	// Challenge is the WWW-Authenticate value for 401 responses.
	Challenge string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// newStepError builds a 400 error for step from the collected field errors.
func newStepError(kind Kind, step, stage string, result *Result) *Error {
	msg := stage + " validation failed"
	switch len(result.Errors) {
	case 0:
	case 1:
		msg += ": " + result.Errors[0].Error()
	default:
		msg += fmt.Sprintf(": %s (and %d more)", result.Errors[0].Error(), len(result.Errors)-1)
	}
	return &Error{
		Kind:    kind,
		Step:    step,
		Status:  http.StatusBadRequest,
		Message: msg,
		Fields:  result.Errors,
	}
}

// ErrorResponse is the HTTP response body for validation failures. Message
// is the field clients rely on; the rest is detail.
type ErrorResponse struct {
	Message string        `json:"message"`
	Step    string        `json:"step"`
	Errors  []*FieldError `json:"errors,omitempty"`
}

// NewErrorResponse creates an ErrorResponse from a pipeline error.
func NewErrorResponse(err *Error) *ErrorResponse {
	return &ErrorResponse{
		Message: err.Message,
		Step:    err.Step,
		Errors:  err.Fields,
	}
}

// Helper functions for creating common errors

// NewRequiredError creates an error for a missing required field
func NewRequiredError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeRequired,
		Message:  "is required",
		Expected: "a value",
	}
}

// NewEmptyValueError creates an error for an empty parameter that does not
// allow one.
func NewEmptyValueError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeEmptyValue,
		Message:  "must not be empty",
		Expected: "a non-empty value",
	}
}

// NewSchemaError creates an error for JSON Schema validation failure
func NewSchemaError(field, location, code, message string, received any) *FieldError {
	if code == "" {
		code = ErrCodeSchema
	}
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     code,
		Message:  message,
		Received: received,
	}
}

// NewInvalidJSONError creates an error for malformed JSON
func NewInvalidJSONError(message string) *FieldError {
	return &FieldError{
		Location: LocationBody,
		Code:     ErrCodeInvalidJSON,
		Message:  fmt.Sprintf("invalid JSON: %s", message),
		Expected: "a JSON document",
	}
}

// NewTooLargeError creates an error for a body over the size limit.
func NewTooLargeError(limit int64) *FieldError {
	return &FieldError{
		Location: LocationBody,
		Code:     ErrCodeTooLarge,
		Message:  fmt.Sprintf("body exceeds %d bytes", limit),
		Expected: fmt.Sprintf("<= %d bytes", limit),
	}
}

// keywordCodes maps the failing JSON Schema keyword to an error code.
var keywordCodes = map[string]string{
	"type":                 ErrCodeType,
	"minLength":            ErrCodeMinLength,
	"maxLength":            ErrCodeMaxLength,
	"pattern":              ErrCodePattern,
	"format":               ErrCodeFormat,
	"minimum":              ErrCodeMin,
	"maximum":              ErrCodeMax,
	"exclusiveMinimum":     ErrCodeExclusiveMin,
	"exclusiveMaximum":     ErrCodeExclusiveMax,
	"minItems":             ErrCodeMinItems,
	"maxItems":             ErrCodeMaxItems,
	"uniqueItems":          ErrCodeUniqueItems,
	"enum":                 ErrCodeEnum,
	"const":                ErrCodeEnum,
	"required":             ErrCodeRequired,
	"additionalProperties": ErrCodeUnknownField,
}

// codeForKeyword derives an error code from a keyword location such as
// "/allOf/0/properties/age/minimum".
func codeForKeyword(keywordLocation string) string {
	kw := keywordLocation
	if i := strings.LastIndexByte(kw, '/'); i >= 0 {
		kw = kw[i+1:]
	}
	if code, ok := keywordCodes[kw]; ok {
		return code
	}
	return ErrCodeSchema
}
