package services

import "context"

type contextKey string

const (
	articleIDKey contextKey = "article_id"
	phaseKey     contextKey = "phase"
	requestIDKey contextKey = "request_id"
)

// WithArticleID annotates context with the article identifier.
func WithArticleID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, articleIDKey, id)
}

// ArticleIDFromContext extracts the article identifier if present.
func ArticleIDFromContext(ctx context.Context) (int64, bool) {
	switch val := ctx.Value(articleIDKey).(type) {
	case int64:
		return val, true
	case int:
		return int64(val), true
	default:
		return 0, false
	}
}

// WithPhase annotates context with the generation phase name.
func WithPhase(ctx context.Context, phase string) context.Context {
	if phase == "" {
		return ctx
	}
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase name if present.
func PhaseFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(phaseKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with an attempt correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
