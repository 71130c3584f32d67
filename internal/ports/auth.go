package ports

import "context"

// AuthService guards the API: one shared password, hmac-signed token.
type AuthService interface {
	Login(ctx context.Context, password string) (string, error)
	ValidateToken(ctx context.Context, token string) (bool, error)
}
