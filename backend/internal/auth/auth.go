// Package auth holds the authorization gates selected by security.mode.
// Every gate maps a credential and a set of required scopes to a
// domain.Decision; the HTTP translation lives in shared/middleware.
package auth

import (
	"context"

	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/middleware"
)

var (
	_ middleware.Gate = OpenGate{}
	_ middleware.Gate = (*APIKeyGate)(nil)
	_ middleware.Gate = (*JWTGate)(nil)
)

// OpenGate authorizes everything. Used in local mode.
type OpenGate struct{}

func (OpenGate) Check(ctx context.Context, credential string, scopes ...string) (domain.Decision, error) {
	return domain.Authorized, nil
}
