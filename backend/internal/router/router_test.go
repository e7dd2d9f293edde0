package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/itchan-dev/anniv/backend/internal/handler"
	"github.com/itchan-dev/anniv/backend/internal/setup"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/domain"
	internal_errors "github.com/itchan-dev/anniv/shared/errors"
	mw "github.com/itchan-dev/anniv/shared/middleware"
	"github.com/stretchr/testify/assert"
)

type stubSubmission struct{ err error }

func (s *stubSubmission) Submit(ctx context.Context, sub domain.Submission) (domain.SubmissionResult, error) {
	return domain.SubmissionResult{Id: 1}, s.err
}

type stubListing struct{}

func (stubListing) List(ctx context.Context, page, pageSize int, visibility domain.Visibility) (domain.Page, error) {
	return domain.Page{Page: page, PageSize: pageSize, PageCount: 1, Items: []domain.Message{{Id: 1}}}, nil
}

type stubModeration struct{}

func (stubModeration) Approve(ctx context.Context, id domain.MsgId, approve bool) error { return nil }
func (stubModeration) Remove(ctx context.Context, id domain.MsgId, ban bool) error      { return nil }
func (stubModeration) List(ctx context.Context, page, pageSize int, pendingOnly bool) (domain.Page, error) {
	return domain.Page{Items: []domain.Message{{Id: 1}}}, nil
}

type stubHealth struct{}

func (stubHealth) Ping(ctx context.Context) error { return nil }

// adminOnlyGate accepts "admin" for every scope and "submitter" for submit.
type adminOnlyGate struct{}

func (adminOnlyGate) Check(ctx context.Context, credential string, scopes ...string) (domain.Decision, error) {
	switch credential {
	case "admin":
		return domain.Authorized, nil
	case "submitter":
		for _, s := range scopes {
			if s != domain.ScopeSubmit {
				return domain.Forbidden, nil
			}
		}
		return domain.Authorized, nil
	default:
		return domain.InvalidCredential, nil
	}
}

func newTestRouter(cfg *config.Config, gate mw.Gate, sub *stubSubmission) http.Handler {
	cfg.ApplyDefaults()
	deps := &setup.Dependencies{
		Config:  cfg,
		Handler: handler.New(sub, stubListing{}, stubModeration{}, stubHealth{}, cfg),
		Auth:    mw.NewAuth(gate, "X-API-Key", `ApiKey realm="anniv"`, false),
	}
	return New(deps, NewLimiters(deps))
}

func do(h http.Handler, method, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

const submitBody = `{"author":{"name":"ann","avatar":["https://x/a.png"]},"content":"hi"}`

func TestPublicRoutes(t *testing.T) {
	h := newTestRouter(&config.Config{}, adminOnlyGate{}, &stubSubmission{})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/ready", "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/metrics", "", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/messages", "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/v1/nope", "", "").Code)

	rr := do(h, http.MethodGet, "/v1/messages", "", "")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestAdminRoutesRequireAdminScope(t *testing.T) {
	h := newTestRouter(&config.Config{}, adminOnlyGate{}, &stubSubmission{})

	tests := []struct {
		method, body string
		okStatus     int
	}{
		{http.MethodGet, "", http.StatusOK},
		{http.MethodPut, `{"id":1,"approve":true}`, http.StatusNoContent},
		{http.MethodDelete, `{"id":1,"ban":true}`, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rr := do(h, tt.method, "/v1/admin/messages", "", tt.body)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

			assert.Equal(t, http.StatusForbidden, do(h, tt.method, "/v1/admin/messages", "submitter", tt.body).Code)
			assert.Equal(t, tt.okStatus, do(h, tt.method, "/v1/admin/messages", "admin", tt.body).Code)
		})
	}
}

func TestSubmitRateLimit(t *testing.T) {
	t.Run("only accepted submissions consume the window", func(t *testing.T) {
		sub := &stubSubmission{err: internal_errors.Conflict()}
		h := newTestRouter(&config.Config{}, adminOnlyGate{}, sub)

		assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/v1/messages", "", submitBody).Code)
		sub.err = nil
		assert.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/messages", "", submitBody).Code)
		assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/v1/messages", "", submitBody).Code)
	})

	t.Run("forwarding headers do not change the identity", func(t *testing.T) {
		h := newTestRouter(&config.Config{}, adminOnlyGate{}, &stubSubmission{})

		codes := make([]int, 0, 3)
		for _, xff := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
			req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(submitBody))
			req.RemoteAddr = "192.0.2.1:1234"
			req.Header.Set("X-Forwarded-For", xff)
			req.Header.Set("X-Real-IP", xff)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			codes = append(codes, rr.Code)
		}
		assert.Equal(t, []int{http.StatusCreated, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	})

	t.Run("trusted proxy keys on the forwarded address", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Server.TrustedProxy = true
		h := newTestRouter(cfg, adminOnlyGate{}, &stubSubmission{})

		send := func(xff string) int {
			req := httptest.NewRequest(http.MethodPost, "/v1/messages", strings.NewReader(submitBody))
			req.RemoteAddr = "192.0.2.1:1234"
			req.Header.Set("X-Forwarded-For", xff)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			return rr.Code
		}
		assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
		assert.Equal(t, http.StatusCreated, send("10.0.0.2"))
		assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	})

	t.Run("dev mode is not throttled", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Server.DevMode = true
		h := newTestRouter(cfg, adminOnlyGate{}, &stubSubmission{})

		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/messages", "", submitBody).Code)
		}
	})
}

func TestProtectSubmit(t *testing.T) {
	cfg := &config.Config{}
	cfg.Public.Security.ProtectSubmit = true
	h := newTestRouter(cfg, adminOnlyGate{}, &stubSubmission{})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/v1/messages", "", submitBody).Code)
	assert.Equal(t, http.StatusCreated, do(h, http.MethodPost, "/v1/messages", "submitter", submitBody).Code)
	// listing stays public
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/v1/messages", "", "").Code)
}
