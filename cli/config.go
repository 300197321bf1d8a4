package main

import (
	"context"
	"os"
	"path"

	"github.com/kvittoapp/kvitto/client/localstore"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

// settingsKey is the key the CLI's one settings document lives under within
// the local store's settings collection.
const settingsKey = "config"

type settings struct {
	APIAddress string `json:"apiAddress"`
}

func getKvittoHome() (string, error) {
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "error locating user's home directory")
	}
	return path.Join(homeDir, ".kvitto"), nil
}

// getStore opens (creating if necessary) the durable local store under the
// user's kvitto home.
func getStore(ctx context.Context) (localstore.Store, error) {
	kvittoHome, err := getKvittoHome()
	if err != nil {
		return nil, err
	}
	if _, err = os.Stat(kvittoHome); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(
				err,
				"error checking for existence of kvitto home at %s",
				kvittoHome,
			)
		}
		// The directory doesn't exist-- create it
		if err = os.MkdirAll(kvittoHome, 0755); err != nil {
			return nil, errors.Wrapf(
				err,
				"error creating kvitto home at %s",
				kvittoHome,
			)
		}
	}
	store := localstore.NewStore(kvittoHome)
	if err := store.Initialize(ctx); err != nil {
		return nil, errors.Wrap(err, "error initializing local store")
	}
	return store, nil
}

func getSettings(
	ctx context.Context,
	store localstore.Store,
) (settings, error) {
	s := settings{}
	if _, err := store.Get(
		ctx,
		localstore.Settings,
		settingsKey,
		&s,
	); err != nil {
		return s, errors.Wrap(err, "error reading settings from local store")
	}
	return s, nil
}

func saveSettings(
	ctx context.Context,
	store localstore.Store,
	s settings,
) error {
	if err := store.Put(
		ctx,
		localstore.Settings,
		settingsKey,
		s,
	); err != nil {
		return errors.Wrap(err, "error writing settings to local store")
	}
	return nil
}

// getAPIAddress returns the configured API server address or a friendly
// error telling the user how to set one.
func getAPIAddress(
	ctx context.Context,
	store localstore.Store,
) (string, error) {
	s, err := getSettings(ctx, store)
	if err != nil {
		return "", err
	}
	if s.APIAddress == "" {
		return "", errors.New(
			"no API server address is configured; please use `kvitto login " +
				"--server <address>` to continue",
		)
	}
	return s.APIAddress, nil
}
