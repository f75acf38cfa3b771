package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/platefeed/platefeed/pkg/validator"
)

// JSONResponse is the standard JSON response envelope.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information returned to the caller.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// jsonResponse implements Response for JSON rendering.
type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSON creates a 200 JSON response wrapping data.
func JSON(data any) Response {
	return JSONWithStatus(data, http.StatusOK)
}

// JSONWithStatus creates a JSON response with an explicit status code.
func JSONWithStatus(data any, status int) Response {
	return jsonResponse{
		status: status,
		body:   JSONResponse{Data: data},
	}
}

// JSONError converts an error into a JSON error response.
//
// Validation errors render as 400 with a per-field detail map, HTTPError
// values keep their status and key, and anything else collapses into a
// generic 500 so infrastructure failures never leak internals to callers.
func JSONError(err error) Response {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{
		Code:    "internal_error",
		Message: "something went wrong",
	}

	var valErrs validator.ValidationErrors
	var httpErr HTTPError
	switch {
	case errors.As(err, &valErrs):
		status = http.StatusBadRequest
		detail.Code = "validation_error"
		detail.Message = "validation failed"
		detail.Details = make(map[string][]string, len(valErrs.Fields()))
		for _, field := range valErrs.Fields() {
			detail.Details[field] = valErrs.Get(field)
		}
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = httpErr.Message
		if detail.Message == "" {
			detail.Message = http.StatusText(httpErr.Code)
		}
	}

	return jsonResponse{
		status: status,
		body:   JSONResponse{Error: detail},
	}
}
