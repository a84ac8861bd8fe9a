package correlation

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// runIDKey is an unexported type for context keys within this package.
type runIDKey struct{}

// ExtractRunID fetches the batch run ID from the context if present.
func ExtractRunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if val, ok := ctx.Value(runIDKey{}).(string); ok {
		return val
	}
	return ""
}

// ContextWithRunID sets the run ID onto the context.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// EnsureRunID guarantees a run ID on the context, generating one when missing.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	id := ExtractRunID(ctx)
	if id == "" {
		id = ulid.Make().String()
	}
	return ContextWithRunID(ctx, id), id
}
