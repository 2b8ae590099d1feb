package rest

import (
	"context"

	"github.com/baechuer/real-time-ressys/services/rsvp-service/internal/security"
)

type ctxKeyPrincipal struct{}

func withPrincipal(ctx context.Context, p security.Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal{}, p)
}

func GetPrincipal(ctx context.Context) (security.Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal{}).(security.Principal)
	return p, ok
}
