package setup

import (
	"context"
	"fmt"

	"github.com/itchan-dev/anniv/backend/internal/auth"
	"github.com/itchan-dev/anniv/backend/internal/avatar"
	"github.com/itchan-dev/anniv/backend/internal/handler"
	"github.com/itchan-dev/anniv/backend/internal/service"
	"github.com/itchan-dev/anniv/backend/internal/storage/fs"
	"github.com/itchan-dev/anniv/backend/internal/storage/pg"
	"github.com/itchan-dev/anniv/backend/internal/storage/s3"
	"github.com/itchan-dev/anniv/shared/config"
	"github.com/itchan-dev/anniv/shared/crypto"
	"github.com/itchan-dev/anniv/shared/jwt"
	mw "github.com/itchan-dev/anniv/shared/middleware"
	"github.com/itchan-dev/anniv/shared/validation"
)

// Assets is what every asset backend provides.
type Assets interface {
	service.AssetStore
	service.GCAssetStore
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Assets  Assets
	Handler *handler.Handler
	Auth    *mw.Auth
	GC      *service.AssetGarbageCollector

	// LocalAssetRoot is set when frames live on disk and should be served by
	// this process.
	LocalAssetRoot string
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Config: cfg, Storage: storage}

	switch cfg.Public.Assets.Backend {
	case "s3":
		store, err := s3.New(ctx, cfg)
		if err != nil {
			storage.Cleanup()
			return nil, err
		}
		deps.Assets = store
	default:
		store, err := fs.New(cfg.Public.Assets.RootPath, cfg.Public.Assets.BaseURL)
		if err != nil {
			storage.Cleanup()
			return nil, err
		}
		deps.Assets = store
		if cfg.Public.Assets.ServeLocal {
			deps.LocalAssetRoot = store.Root()
		}
	}

	hasher, err := crypto.NewEmailHasher(cfg.Private.EmailHashKey)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}

	ingester := avatar.New(cfg.Public.Avatar, deps.Assets)
	listing := service.NewListing(storage, cfg.Public.Listing)
	submission := service.NewSubmission(
		storage,
		deps.Assets,
		ingester,
		validation.NewSubmission(cfg.Public.Submission),
		hasher,
		cfg.Public.Submission.Timeout,
	)
	moderation := service.NewModeration(storage, deps.Assets, listing)

	deps.Handler = handler.New(submission, listing, moderation, storage, cfg)
	deps.GC = service.NewAssetGarbageCollector(storage, deps.Assets, cfg.Public.GC.SafetyThreshold)

	deps.Auth, err = NewAuth(cfg, storage)
	if err != nil {
		storage.Cleanup()
		return nil, err
	}
	return deps, nil
}

// NewAuth picks the gate for the effective security mode.
func NewAuth(cfg *config.Config, keys auth.KeyStorage) (*mw.Auth, error) {
	switch mode := cfg.SecurityMode(); mode {
	case config.SecurityLocal:
		return mw.NewAuth(auth.OpenGate{}, "", "", cfg.DevMode()), nil
	case config.SecurityAPIKey:
		return mw.NewAuth(auth.NewAPIKeyGate(keys), "X-API-Key", "X-API-Key", cfg.DevMode()), nil
	case config.SecurityJWT:
		// verification only, expiry comes from the token
		gate := auth.NewJWTGate(jwt.New(cfg.Private.JwtSecret, 0))
		return mw.NewAuth(gate, "Authorization", "Bearer", cfg.DevMode()), nil
	default:
		return nil, fmt.Errorf("unknown security mode %q", mode)
	}
}
