package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/crypto"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockKeyStorage struct {
	HasAccessFunc func(ctx context.Context, keyHash []byte, scope string) (int, error)
}

func (m *MockKeyStorage) HasAccess(ctx context.Context, keyHash []byte, scope string) (int, error) {
	return m.HasAccessFunc(ctx, keyHash, scope)
}

func protected(t *testing.T, cfg *config.Config, keys *MockKeyStorage) http.Handler {
	a, err := NewAuth(cfg, keys)
	require.NoError(t, err)
	return a.Require(domain.ScopeAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestNewAuth(t *testing.T) {
	t.Run("local mode lets everything through", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Security.Mode = config.SecurityAPIKey
		cfg.Public.Server.LocalMode = true

		rr := httptest.NewRecorder()
		protected(t, cfg, nil).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("api key from header", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Security.Mode = config.SecurityAPIKey
		keys := &MockKeyStorage{HasAccessFunc: func(ctx context.Context, keyHash []byte, scope string) (int, error) {
			if string(keyHash) == string(crypto.HashSecret("k1")) {
				return 0, nil
			}
			return 2, nil
		}}
		h := protected(t, cfg, keys)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", "k1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "X-API-Key", rr.Header().Get("WWW-Authenticate"))
	})

	t.Run("jwt bearer", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Security.Mode = config.SecurityJWT
		cfg.Private.JwtSecret = "s3cret"
		token, err := jwt.New("s3cret", time.Hour).NewToken("ops", []string{domain.ScopeSubmit})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		protected(t, cfg, nil).ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Public.Security.Mode = "kerberos"
		_, err := NewAuth(cfg, nil)
		assert.Error(t, err)
	})
}
