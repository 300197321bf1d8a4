package main

import "github.com/urfave/cli/v2"

const (
	flagAmount   = "amount"
	flagBrowse   = "browse"
	flagCategory = "category"
	flagCached   = "cached"
	flagCurrency = "currency"
	flagID       = "id"
	flagInsecure = "insecure"
	flagKey      = "key"
	flagMerchant = "merchant"
	flagNotes    = "notes"
	flagOutput   = "output"
	flagPurge    = "purge"
	flagServer   = "server"
	flagValue    = "value"
	flagYes      = "yes"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage: "Return output in the specified format; supported formats: " +
			"table, yaml, json",
		Value: "table",
	}
)
