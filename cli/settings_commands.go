package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var settingsCommand = &cli.Command{
	Name:  "settings",
	Usage: "Manage locally persisted settings",
	Subcommands: []*cli.Command{
		{
			Name:  "set",
			Usage: "Set the value of a setting",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagKey,
					Aliases:  []string{"k"},
					Usage:    "Set the specified setting (required)",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagValue,
					Aliases:  []string{"v"},
					Usage:    "Set the setting to the specified value (required)",
					Required: true,
				},
			},
			Action: settingsSet,
		},
		{
			Name:  "get",
			Usage: "Retrieve the value of a setting",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagKey,
					Aliases:  []string{"k"},
					Usage:    "Retrieve the specified setting (required)",
					Required: true,
				},
			},
			Action: settingsGet,
		},
		{
			Name:  "list",
			Usage: "Retrieve all settings",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: settingsList,
		},
	},
}

func settingsSet(c *cli.Context) error {
	key := c.String(flagKey)
	value := c.String(flagValue)

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	s, err := getSettings(c.Context, store)
	if err != nil {
		return err
	}

	switch key {
	case "apiAddress":
		s.APIAddress = value
	default:
		return errors.Errorf("unknown setting %q", key)
	}

	if err := saveSettings(c.Context, store, s); err != nil {
		return err
	}

	fmt.Printf("Set %s to %q.\n", key, value)
	return nil
}

func settingsGet(c *cli.Context) error {
	key := c.String(flagKey)

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	s, err := getSettings(c.Context, store)
	if err != nil {
		return err
	}

	switch key {
	case "apiAddress":
		fmt.Println(s.APIAddress)
	default:
		return errors.Errorf("unknown setting %q", key)
	}
	return nil
}

func settingsList(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	s, err := getSettings(c.Context, store)
	if err != nil {
		return err
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("KEY", "VALUE")
		table.AddRow("apiAddress", s.APIAddress)
		fmt.Println(table)

	case "yaml":
		yamlBytes, err := yaml.Marshal(s)
		if err != nil {
			return errors.Wrap(err, "error formatting settings")
		}
		fmt.Println(string(yamlBytes))

	case "json":
		prettyJSON, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return errors.Wrap(err, "error formatting settings")
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}
