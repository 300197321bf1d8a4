package main

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/kvittoapp/kvitto/client/session"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var loginCommand = &cli.Command{
	Name:  "login",
	Usage: "Log in to Kvitto",
	Description: "Initiates authentication using OpenID Connect. " +
		"Authentication completes out of process, in a web browser; use " +
		"`kvitto status` afterwards to confirm it succeeded.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    flagServer,
			Aliases: []string{"s"},
			Usage: "Log into the API server at the specified address; defaults " +
				"to the previously configured address",
		},
		&cli.BoolFlag{
			Name:    flagBrowse,
			Aliases: []string{"b"},
			Usage: "Use the system's default web browser to complete " +
				"authentication",
		},
	},
	Action: login,
}

var logoutCommand = &cli.Command{
	Name:  "logout",
	Usage: "Log out of Kvitto",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagPurge,
			Aliases: []string{"p"},
			Usage: "Also delete all locally cached data, including cached " +
				"receipts and settings",
		},
		&cli.BoolFlag{
			Name:    flagYes,
			Aliases: []string{"y"},
			Usage:   "Non-interactively confirm the purge of local data",
		},
	},
	Action: logout,
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Check the status of the current session",
	Description: "Asks the API server whether a pending login has completed " +
		"and reports the outcome.",
	Action: status,
}

var refreshCommand = &cli.Command{
	Name:   "refresh",
	Usage:  "Silently extend an expired session",
	Action: refresh,
}

var whoamiCommand = &cli.Command{
	Name:   "whoami",
	Usage:  "Show the identity of the currently authenticated user",
	Action: whoami,
}

var healthCommand = &cli.Command{
	Name:   "health",
	Usage:  "Query API server health",
	Action: health,
}

func login(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	if address := c.String(flagServer); address != "" {
		s, err := getSettings(c.Context, store)
		if err != nil {
			return err
		}
		s.APIAddress = address
		if err = saveSettings(c.Context, store, s); err != nil {
			return errors.Wrap(err, "error persisting configuration")
		}
	}

	var launcher session.Launcher = &printLauncher{}
	if c.Bool(flagBrowse) {
		launcher = session.NewBrowserLauncher()
	}

	manager, err := getSessionManager(c, store, launcher)
	if err != nil {
		return err
	}
	if err := manager.Login(c.Context); err != nil {
		if _, ok := err.(*session.ErrLaunchFailed); ok {
			// The login is still pending; the user just has to open the URL
			// themselves.
			fmt.Printf(
				"Could not open a browser. Please visit  %s  to complete "+
					"authentication.\n",
				manager.CurrentSession().AuthURL,
			)
			return nil
		}
		return err
	}

	fmt.Println(
		"Complete authentication in your web browser, then use `kvitto " +
			"status` to confirm you are logged in.",
	)
	return nil
}

func logout(c *cli.Context) error {
	purge := c.Bool(flagPurge)
	if purge && !c.Bool(flagYes) {
		confirmed := false
		prompt := &survey.Confirm{
			Message: "This will delete ALL locally cached data. Are you sure?",
		}
		if err := survey.AskOne(prompt, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return err
	}
	if err := manager.Logout(c.Context, purge); err != nil {
		return err
	}

	fmt.Println("Logout was successful.")
	return nil
}

func status(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return err
	}
	sessionStatus, err := manager.CheckStatus(c.Context)
	if err != nil {
		return err
	}

	switch sessionStatus {
	case session.StatusAuthenticated:
		currentSession := manager.CurrentSession()
		fmt.Printf("You are logged in as %s.\n", currentSession.Email)
	case session.StatusPendingExternalConfirmation:
		fmt.Println(
			"Authentication has not completed yet. Finish logging in using " +
				"your web browser, then try again.",
		)
	case session.StatusExpired:
		fmt.Println(
			"Your session has expired. Use `kvitto refresh` or `kvitto login` " +
				"to continue.",
		)
	default:
		fmt.Println("You are not logged in.")
	}
	return nil
}

func refresh(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return err
	}
	sessionStatus, err := manager.Refresh(c.Context)
	if err != nil {
		return err
	}

	if sessionStatus == session.StatusAuthenticated {
		fmt.Println("Your session was refreshed.")
	} else {
		fmt.Println(
			"Your session could not be refreshed. Please use `kvitto login` " +
				"to continue.",
		)
	}
	return nil
}

func whoami(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return err
	}
	currentSession := manager.CurrentSession()

	switch currentSession.Status {
	case session.StatusAuthenticated, session.StatusExpired:
		fmt.Printf("ID:       %s\n", currentSession.UserID)
		fmt.Printf("Email:    %s\n", currentSession.Email)
		fmt.Printf("Company:  %s\n", currentSession.CompanyID)
		fmt.Printf("Role:     %s\n", currentSession.Role)
		if currentSession.Status == session.StatusExpired {
			fmt.Println("\nYour session has expired.")
		}
	default:
		fmt.Println("You are not logged in.")
	}
	return nil
}

func health(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	manager, err := getSessionManager(c, store, &printLauncher{})
	if err != nil {
		return err
	}
	healthInfo := manager.HealthCheck(c.Context)

	fmt.Printf("Status:  %s\n", healthInfo.Status)
	if healthInfo.Auth != "" {
		fmt.Printf("Auth:    %s\n", healthInfo.Auth)
	}
	if healthInfo.Message != "" {
		fmt.Printf("Message: %s\n", healthInfo.Message)
	}
	return nil
}
