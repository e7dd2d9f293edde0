package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	"github.com/itchan-dev/anniv/shared/logger"
	"github.com/itchan-dev/anniv/shared/utils"
)

// Gate decides whether a credential grants the required scopes.
type Gate interface {
	Check(ctx context.Context, credential string, scopes ...string) (domain.Decision, error)
}

// Auth holds dependencies for authorization middleware
type Auth struct {
	gate      Gate
	header    string // header carrying the credential
	challenge string // WWW-Authenticate value on 401
	devMode   bool
}

// NewAuth creates an Auth middleware reading credentials from header. For the
// Authorization header a "Bearer " prefix is stripped.
func NewAuth(gate Gate, header, challenge string, devMode bool) *Auth {
	return &Auth{gate: gate, header: header, challenge: challenge, devMode: devMode}
}

func (a *Auth) credential(r *http.Request) string {
	v := r.Header.Get(a.header)
	if strings.EqualFold(a.header, "Authorization") {
		v, _ = strings.CutPrefix(v, "Bearer ")
	}
	return strings.TrimSpace(v)
}

// Require short-circuits with 401/403 unless the gate authorizes all scopes.
func (a *Auth) Require(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := a.gate.Check(r.Context(), a.credential(r), scopes...)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err, a.devMode)
				return
			}

			switch decision {
			case domain.Authorized:
				next.ServeHTTP(w, r)
			case domain.Forbidden:
				logger.Log.Info("forbidden", "path", r.URL.Path, "scopes", scopes)
				utils.WriteErrorAndStatusCode(w, internal_errors.Forbidden(), a.devMode)
			default:
				utils.WriteErrorAndStatusCode(w, internal_errors.Unauthorized(a.challenge), a.devMode)
			}
		})
	}
}
