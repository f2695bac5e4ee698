package ports

import "time"

type AuthClaims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenVerifier interface {
	Verify(raw string) (AuthClaims, error)
}
