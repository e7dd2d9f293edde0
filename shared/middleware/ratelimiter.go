package middleware

import (
	"net/http"

	"github.com/itchan-dev/anniv/shared/api"
	"github.com/itchan-dev/anniv/shared/middleware/ratelimiter"
	"github.com/itchan-dev/anniv/shared/utils"
)

func writeTooManyRequests(w http.ResponseWriter) {
	utils.WriteJSON(w, http.StatusTooManyRequests, api.ErrorResponse{
		Status:  http.StatusTooManyRequests,
		Message: "Rate limit exceeded, try again later",
	})
}

// RateLimit consumes a token per request.
func RateLimit(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err, false)
				return
			}
			if !rl.Allow(identity) {
				writeTooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitAccepted only charges identities for requests that end in a 2xx
// response, so a rejected or duplicate submission does not burn the window.
// Two concurrent attempts may both pass the check; the second one is still
// subject to storage-level dedup.
func RateLimitAccepted(rl *ratelimiter.UserRateLimiter, getIdentity func(r *http.Request) (string, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err, false)
				return
			}
			if !rl.Available(identity) {
				writeTooManyRequests(w)
				return
			}

			wrapped := NewStatusRecorder(w)
			next.ServeHTTP(wrapped, r)

			if wrapped.Status() >= 200 && wrapped.Status() < 300 {
				rl.Allow(identity)
			}
		})
	}
}

func GlobalRateLimit(rl *ratelimiter.UserRateLimiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// GetIP is the identity function for per-address limits.
func GetIP(r *http.Request) (string, error) {
	return utils.GetIP(r)
}
