package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itchan-dev/anniv/shared/crypto"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockKeyStorage struct {
	HasAccessFunc func(ctx context.Context, keyHash []byte, scope string) (int, error)
	Scopes        []string
}

func (m *MockKeyStorage) HasAccess(ctx context.Context, keyHash []byte, scope string) (int, error) {
	m.Scopes = append(m.Scopes, scope)
	if m.HasAccessFunc != nil {
		return m.HasAccessFunc(ctx, keyHash, scope)
	}
	return accessGranted, nil
}

func TestOpenGate(t *testing.T) {
	d, err := OpenGate{}.Check(context.Background(), "", domain.ScopeAdmin)
	require.NoError(t, err)
	assert.Equal(t, domain.Authorized, d)
}

func TestAPIKeyGate(t *testing.T) {
	ctx := context.Background()
	key := "secret-key"

	// key grants submit only
	storage := func() *MockKeyStorage {
		return &MockKeyStorage{HasAccessFunc: func(ctx context.Context, keyHash []byte, scope string) (int, error) {
			if string(keyHash) != string(crypto.HashSecret(key)) {
				return accessInvalid, nil
			}
			if scope == domain.ScopeSubmit || scope == "" {
				return accessGranted, nil
			}
			return accessForbidden, nil
		}}
	}

	tests := []struct {
		name       string
		credential string
		scopes     []string
		want       domain.Decision
	}{
		{"authorized", key, []string{domain.ScopeSubmit}, domain.Authorized},
		{"missing scope", key, []string{domain.ScopeAdmin}, domain.Forbidden},
		{"one of two scopes", key, []string{domain.ScopeSubmit, domain.ScopeAdmin}, domain.Forbidden},
		{"no scope required", key, nil, domain.Authorized},
		{"unknown key", "other", []string{domain.ScopeSubmit}, domain.InvalidCredential},
		{"empty credential", "", []string{domain.ScopeSubmit}, domain.InvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewAPIKeyGate(storage()).Check(ctx, tt.credential, tt.scopes...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}

	t.Run("empty credential skips storage", func(t *testing.T) {
		s := storage()
		_, err := NewAPIKeyGate(s).Check(ctx, "", domain.ScopeAdmin)
		require.NoError(t, err)
		assert.Empty(t, s.Scopes)
	})

	t.Run("storage error", func(t *testing.T) {
		s := &MockKeyStorage{HasAccessFunc: func(ctx context.Context, keyHash []byte, scope string) (int, error) {
			return 0, errors.New("db down")
		}}
		_, err := NewAPIKeyGate(s).Check(ctx, key, domain.ScopeAdmin)
		assert.Error(t, err)
	})

	t.Run("unexpected code", func(t *testing.T) {
		s := &MockKeyStorage{HasAccessFunc: func(ctx context.Context, keyHash []byte, scope string) (int, error) {
			return 7, nil
		}}
		_, err := NewAPIKeyGate(s).Check(ctx, key, domain.ScopeAdmin)
		assert.Error(t, err)
	})
}

func TestJWTGate(t *testing.T) {
	ctx := context.Background()
	j := jwt.New("test-secret", time.Hour)
	gate := NewJWTGate(j)

	admin, err := j.NewToken("ops", []string{domain.ScopeAdmin, domain.ScopeSubmit})
	require.NoError(t, err)
	submitter, err := j.NewToken("bot", []string{domain.ScopeSubmit})
	require.NoError(t, err)
	foreign, err := jwt.New("other-secret", time.Hour).NewToken("ops", []string{domain.ScopeAdmin})
	require.NoError(t, err)
	expired, err := jwt.New("test-secret", -time.Minute).NewToken("ops", []string{domain.ScopeAdmin})
	require.NoError(t, err)

	tests := []struct {
		name       string
		credential string
		want       domain.Decision
	}{
		{"admin", admin, domain.Authorized},
		{"insufficient scope", submitter, domain.Forbidden},
		{"wrong signature", foreign, domain.InvalidCredential},
		{"expired", expired, domain.InvalidCredential},
		{"garbage", "not-a-token", domain.InvalidCredential},
		{"empty", "", domain.InvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := gate.Check(ctx, tt.credential, domain.ScopeAdmin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}
