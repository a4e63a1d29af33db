package auth

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport indicates a network failure or a non-2xx answer from a token endpoint.
	ErrTransport = errors.New("token endpoint request failed")

	// ErrMalformedResponse indicates an undecodable token response or a
	// token record missing a required field.
	ErrMalformedResponse = errors.New("malformed token response")
)

// Token endpoint operations.
const (
	OperationExchange = "exchange"
	OperationRefresh  = "refresh"
)

// EndpointError describes a failed token endpoint call.
// It matches ErrTransport or ErrMalformedResponse with errors.Is.
type EndpointError struct {
	Provider  string
	Operation string
	Endpoint  string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// Code and Description carry the OAuth error response fields, if any.
	Code        string
	Description string

	// Kind is ErrTransport or ErrMalformedResponse.
	Kind error
	Err  error
}

// Error implements the error interface.
func (e *EndpointError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s token %s at %s: %v", e.Provider, e.Operation, e.Endpoint, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(": " + e.Code)
		if e.Description != "" {
			b.WriteString(": " + e.Description)
		}
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the error kind and the underlying cause.
func (e *EndpointError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// oauthErrorBody is the RFC 6749 error response.
type oauthErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
