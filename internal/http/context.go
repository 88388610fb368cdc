package http

import (
	"context"

	"github.com/example/seminar-coordinator/internal/application"
)

type contextKey string

const (
	principalContextKey contextKey = "principal"
	speakerIDContextKey contextKey = "speaker_id"
	dateIDContextKey    contextKey = "date_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithSpeakerID injects the speaker identifier resolved from the request path.
func ContextWithSpeakerID(ctx context.Context, speakerID string) context.Context {
	return context.WithValue(ctx, speakerIDContextKey, speakerID)
}

// SpeakerIDFromContext extracts a speaker identifier previously associated with the context.
func SpeakerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(speakerIDContextKey).(string)
	return id, ok
}

// ContextWithDateID injects the date identifier resolved from the request path.
func ContextWithDateID(ctx context.Context, dateID string) context.Context {
	return context.WithValue(ctx, dateIDContextKey, dateID)
}

// DateIDFromContext extracts a date identifier previously associated with the context.
func DateIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(dateIDContextKey).(string)
	return id, ok
}
