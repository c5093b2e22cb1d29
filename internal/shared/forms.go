package shared

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// FieldErrors collects per-field validation messages for form re-rendering.
type FieldErrors map[string]string

// Any reports whether at least one field failed validation.
func (e FieldErrors) Any() bool { return len(e) > 0 }

// First returns an arbitrary message, used when a single summary is needed.
func (e FieldErrors) First() string {
	for _, msg := range e {
		return msg
	}
	return ""
}

// Form field coercion follows a lenient-coercion, strict-shape policy:
// a blank field takes the zero default, a malformed field is a validation
// error. Text fields are trimmed and default to "".

// FormText returns the trimmed value of a posted field.
func FormText(r *http.Request, field string) string {
	return strings.TrimSpace(r.PostFormValue(field))
}

// FormFloat parses a posted numeric field. Blank coerces to 0.
func FormFloat(r *http.Request, field string, errs FieldErrors) float64 {
	raw := FormText(r, field)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs[field] = fmt.Sprintf("%s must be a number", field)
		return 0
	}
	return v
}

// FormInt parses a posted integer field. Blank coerces to 0.
func FormInt(r *http.Request, field string, errs FieldErrors) int {
	raw := FormText(r, field)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		errs[field] = fmt.Sprintf("%s must be a whole number", field)
		return 0
	}
	return v
}

// FormInt64 parses a posted 64-bit integer field. Blank coerces to 0.
func FormInt64(r *http.Request, field string, errs FieldErrors) int64 {
	raw := FormText(r, field)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		errs[field] = fmt.Sprintf("%s must be a whole number", field)
		return 0
	}
	return v
}
