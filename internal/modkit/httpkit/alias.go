// Package httpkit is the http surface modules build routes with, so
// they never import internal/platform/net/http directly
package httpkit

import (
	"net/http"

	phttp "oracle/internal/platform/net/http"
)

type (
	// Handler is the platform handler type
	Handler = phttp.Handler

	// Router is the platform router seam
	Router = phttp.Router
)

// Created marks data as a 201 response when returned from a handler
func Created(data any) phttp.Response { return phttp.Created(data) }

// Call adapts a handler that takes no JSON body; a returned Response
// passes through untouched
func Call(fn func(*http.Request) (any, error)) Handler {
	return phttp.JSONHandlerNoBody(fn)
}
