package cmd

import (
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/kontorlabs/kontor/auth"
	"github.com/kontorlabs/kontor/client"
	"github.com/kontorlabs/kontor/config"
	"github.com/kontorlabs/kontor/db"
	"github.com/kontorlabs/kontor/store"
)

// appEnv bundles what every command needs: the resolved configuration, the
// credential store behind it, and the API clients wired through the
// authenticating transport.
type appEnv struct {
	cfg        *config.Config
	store      auth.Store
	authAPI    *client.AuthAPI
	terminator *auth.Terminator
	api        *client.Client
}

// newApp opens the configured credential store and builds the API clients
// around it. The returned cleanup releases the store's resources and must
// be called once the commands are done.
func newApp(cfg *config.Config) (*appEnv, func(), error) {
	credStore, cleanup, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	authAPI := client.NewAuthAPI(cfg.APIURL)
	coordinator := auth.NewCoordinator(credStore, authAPI, auth.WithRefreshTimeout(cfg.RefreshTimeout))
	terminator := auth.NewTerminator(credStore, auth.WithNavigation(nil, func(target string) {
		fmt.Fprintln(os.Stderr, "Session ended. Run 'kontor login' to sign in again.")
	}))
	transport := client.NewAuthTransport(credStore, coordinator, terminator)
	api := client.New(cfg.APIURL, transport, client.WithTimeout(cfg.RequestTimeout))

	return &appEnv{
		cfg:        cfg,
		store:      credStore,
		authAPI:    authAPI,
		terminator: terminator,
		api:        api,
	}, cleanup, nil
}

// openStore builds the credential store the configuration asks for.
func openStore(cfg *config.Config) (auth.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		db.Path = cfg.DatabasePath
		if err := db.InitDB(); err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := db.CloseDB(); err != nil {
				log.Error().Err(err).Msg("Failed to close the database.")
			}
		}
		return &repoStore{repo: db.NewCredentialRepository(db.GetDB())}, cleanup, nil

	case config.StoreFile:
		return store.NewFileStore(cfg.CredentialsFile), func() {}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		cleanup := func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close the Redis connection.")
			}
		}
		return store.NewRedisStore(rdb, store.WithKeyPrefix(cfg.RedisPrefix)), cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
