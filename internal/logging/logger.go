// Package logging defines the structured-logging interface the portal
// passes around, keeping handlers and services off any concrete backend.
package logging

import "context"

// Logger is a context-aware, structured logger. Variadic args are
// key-value pairs:
//
//	log.Info(ctx, "request", "method", r.Method, "path", r.URL.Path)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries the given key-value
	// pairs, e.g. With("module", "web").
	With(args ...any) Logger
}
