package app

import (
	"net/http"

	"google.golang.org/grpc"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	httpMiddleware          []func(http.Handler) http.Handler
	unaryServerInterceptors []grpc.UnaryServerInterceptor
}

// WithHTTPMiddleware wraps the app's HTTP handler with the provided middleware.
//
// Middleware is applied in addition order, so the first added is the outermost.
func WithHTTPMiddleware(middleware func(http.Handler) http.Handler) Option {
	return func(o *opts) {
		o.httpMiddleware = append(o.httpMiddleware, middleware)
	}
}

func (o *opts) wrap(handler http.Handler) http.Handler {
	for i := len(o.httpMiddleware) - 1; i >= 0; i-- {
		handler = o.httpMiddleware[i](handler)
	}
	return handler
}
