package transport

import (
	"context"
	"net/http"
	"strings"
)

// Request is a fully resolved call: Path already has URL tokens substituted
// and Query holds the remaining parameters.
type Request struct {
	Method  string
	Path    string
	Query   map[string]any
	Headers map[string]string
	Data    any
}

type Response struct {
	Data    any
	Headers http.Header
	Status  int
}

// Transport issues requests. Send fails for non-2xx statuses and network
// errors, reporting them as faults.TransportError (see StatusError).
type Transport interface {
	Send(ctx context.Context, request Request) (Response, error)
}

// Func adapts a function into a Transport.
type Func func(ctx context.Context, request Request) (Response, error)

func (f Func) Send(ctx context.Context, request Request) (Response, error) {
	return f(ctx, request)
}

// HasBody reports whether method attaches a request body.
func HasBody(method string) bool {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
