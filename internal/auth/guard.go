package auth

import (
	"context"
	"strings"

	"socialql/internal/models"
	"socialql/internal/observability"
)

type authorizationKey struct{}

// WithAuthorization stores the raw Authorization header value on ctx.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authorizationKey{}, header)
}

// AuthorizationFrom returns the header stored by WithAuthorization.
func AuthorizationFrom(ctx context.Context) string {
	header, _ := ctx.Value(authorizationKey{}).(string)
	return header
}

const bearerPrefix = "Bearer "

// Guard resolves the caller identity from request metadata. The identity is
// taken from the token as-is; it is not re-checked against the user store.
type Guard struct {
	codec *TokenCodec
}

// NewGuard returns a Guard verifying tokens with codec.
func NewGuard(codec *TokenCodec) *Guard {
	return &Guard{codec: codec}
}

// Authenticate returns the identity behind the bearer token on ctx.
func (g *Guard) Authenticate(ctx context.Context) (models.Identity, error) {
	header := AuthorizationFrom(ctx)
	if header == "" {
		observability.AuthFailures.WithLabelValues("missing_header").Inc()
		return models.Identity{}, models.NewMissingHeaderError("Authorization header must be provided")
	}

	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok || token == "" {
		observability.AuthFailures.WithLabelValues("malformed_header").Inc()
		return models.Identity{}, models.NewMalformedHeaderError("Authentication token must be 'Bearer [token]'")
	}

	identity, err := g.codec.Verify(token)
	if err != nil {
		observability.AuthFailures.WithLabelValues("invalid_token").Inc()
		return models.Identity{}, models.NewAuthenticationError("Invalid/expired token", err)
	}
	return identity, nil
}
