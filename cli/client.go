package main

import (
	"fmt"

	"github.com/kvittoapp/kvitto/client/localstore"
	"github.com/kvittoapp/kvitto/client/session"
	"github.com/kvittoapp/kvitto/sdk"
	"github.com/kvittoapp/kvitto/sdk/authn"
	"github.com/kvittoapp/kvitto/sdk/system"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// printLauncher satisfies the session.Launcher interface by printing the
// authentication URL for the user to visit manually instead of opening a
// browser.
type printLauncher struct{}

func (p *printLauncher) Open(url string) error {
	fmt.Printf("Please visit  %s  to complete authentication.\n", url)
	return nil
}

func getSessionManager(
	c *cli.Context,
	store localstore.Store,
	launcher session.Launcher,
) (session.Manager, error) {
	apiAddress, err := getAPIAddress(c.Context, store)
	if err != nil {
		return nil, err
	}
	allowInsecure := c.Bool(flagInsecure)
	manager, err := session.NewManager(
		c.Context,
		store,
		launcher,
		func(apiToken string) authn.SessionsClient {
			return authn.NewSessionsClient(apiAddress, apiToken, allowInsecure)
		},
		system.NewHealthClient(apiAddress, "", allowInsecure),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error constructing session manager")
	}
	return manager, nil
}

// getClient returns an API client authenticated with the current session's
// bearer token. It is an error to call this without an authenticated
// session.
func getClient(
	c *cli.Context,
	store localstore.Store,
) (sdk.APIClient, error) {
	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return nil, err
	}
	currentSession := manager.CurrentSession()
	switch currentSession.Status {
	case session.StatusAuthenticated:
	case session.StatusExpired:
		return nil, errors.New(
			"your session has expired; please use `kvitto refresh` or `kvitto " +
				"login` to continue",
		)
	default:
		return nil, errors.New(
			"you are not logged in; please use `kvitto login` to continue",
		)
	}
	apiAddress, err := getAPIAddress(c.Context, store)
	if err != nil {
		return nil, err
	}
	return sdk.NewAPIClient(
		apiAddress,
		currentSession.Token,
		c.Bool(flagInsecure),
	), nil
}
