package auth

import (
	"context"
	"fmt"

	"github.com/itchan-dev/anniv/shared/crypto"
	"github.com/itchan-dev/anniv/shared/domain"
)

// Result codes of the has_access database function.
const (
	accessGranted   = 0
	accessForbidden = 1
	accessInvalid   = 2
)

type KeyStorage interface {
	HasAccess(ctx context.Context, keyHash []byte, scope string) (int, error)
}

// APIKeyGate checks hashed API keys against the api_keys table.
type APIKeyGate struct {
	storage KeyStorage
}

func NewAPIKeyGate(storage KeyStorage) *APIKeyGate {
	return &APIKeyGate{storage: storage}
}

func (g *APIKeyGate) Check(ctx context.Context, credential string, scopes ...string) (domain.Decision, error) {
	if credential == "" {
		return domain.InvalidCredential, nil
	}
	hash := crypto.HashSecret(credential)

	// Without a scope the key only has to exist.
	if len(scopes) == 0 {
		scopes = []string{""}
	}

	decision := domain.Authorized
	for _, scope := range scopes {
		code, err := g.storage.HasAccess(ctx, hash, scope)
		if err != nil {
			return domain.InvalidCredential, err
		}
		switch code {
		case accessGranted:
		case accessForbidden:
			decision = domain.Forbidden
		case accessInvalid:
			return domain.InvalidCredential, nil
		default:
			return domain.InvalidCredential, fmt.Errorf("unexpected access code %d", code)
		}
	}
	return decision, nil
}
