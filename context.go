package capsql

import (
	"context"
)

// labelKey is an unexported context key type.
type labelKey struct{}
type skipKey struct{}

// WithLabel attaches a label that is recorded on every statement issued with ctx.
func WithLabel(ctx context.Context, v string) context.Context {
	return context.WithValue(ctx, labelKey{}, v)
}

// WithSkip marks the context so capsql ignores subsequent statements.
func WithSkip(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipKey{}, true)
}

// extractLabel extracts the label from context.
func extractLabel(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(labelKey{}).(string); ok {
		return v
	}
	return ""
}

// extractSkip extracts skip flag from context.
func extractSkip(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(skipKey{}).(bool); ok {
		return v
	}
	return false
}
