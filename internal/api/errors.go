// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnauthorized indicates a missing, expired or rejected token (401).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the signed-in user lacks the required role (403).
	ErrForbidden = errors.New("not enough permissions")

	// ErrNotFound indicates the resource does not exist (404).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest covers 400, 409 and 422 responses.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited indicates too many requests were made (429).
	ErrRateLimited = errors.New("rate limited")

	// ErrServer covers 5xx responses.
	ErrServer = errors.New("server error")

	// ErrInvalid is returned for requests rejected before they are sent.
	ErrInvalid = errors.New("invalid request")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status    int
	Detail    string
	Method    string
	Path      string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s %s: HTTP %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, e.Detail)
}

// Unwrap maps the status code to a sentinel error.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrServer
	case e.Status >= 400:
		return ErrBadRequest
	default:
		return nil
	}
}

// Message returns the text to show a user for err: the server's detail when
// there is one, the error text otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// errorBody is the FastAPI error envelope. Detail is a string for
// HTTPException and a list of field errors for request validation.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// parseDetail extracts a readable message from an error body.
func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if err := json.Unmarshal(eb.Detail, &s); err == nil {
		return s
	}

	var fields []fieldError
	if err := json.Unmarshal(eb.Detail, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			loc := make([]string, 0, len(f.Loc))
			for _, l := range f.Loc {
				// FastAPI prefixes the location with "body" or "query"
				if s, ok := l.(string); ok && (s == "body" || s == "query" || s == "path") {
					continue
				}
				loc = append(loc, fmt.Sprint(l))
			}
			if len(loc) == 0 {
				parts = append(parts, f.Msg)
				continue
			}
			parts = append(parts, strings.Join(loc, ".")+": "+f.Msg)
		}
		return strings.Join(parts, "; ")
	}

	return string(eb.Detail)
}
