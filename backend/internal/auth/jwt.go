package auth

import (
	"context"
	"errors"

	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/jwt"
)

// JWTGate accepts HS256 operator tokens carrying a scopes claim.
type JWTGate struct {
	jwt jwt.JwtService
}

func NewJWTGate(j jwt.JwtService) *JWTGate {
	return &JWTGate{jwt: j}
}

func (g *JWTGate) Check(ctx context.Context, credential string, scopes ...string) (domain.Decision, error) {
	if credential == "" {
		return domain.InvalidCredential, nil
	}
	claims, err := g.jwt.DecodeToken(credential)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) {
			return domain.InvalidCredential, nil
		}
		return domain.InvalidCredential, err
	}
	if !claims.HasScopes(scopes...) {
		return domain.Forbidden, nil
	}
	return domain.Authorized, nil
}
