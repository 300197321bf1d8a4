package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ghodss/yaml"
	"github.com/gosuri/uitable"
	"github.com/kvittoapp/kvitto/client/localstore"
	"github.com/kvittoapp/kvitto/sdk/receipts"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"k8s.io/apimachinery/pkg/util/duration"
)

var receiptCommand = &cli.Command{
	Name:  "receipt",
	Usage: "Manage receipts",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "Create a new receipt",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagMerchant,
					Aliases:  []string{"m"},
					Usage:    "The business the purchase was made from (required)",
					Required: true,
				},
				&cli.Int64Flag{
					Name:    flagAmount,
					Aliases: []string{"a"},
					Usage: "The receipt total in minor currency units, e.g. " +
						"öre or cents (required)",
					Required: true,
				},
				&cli.StringFlag{
					Name:     flagCurrency,
					Aliases:  []string{"c"},
					Usage:    "The ISO 4217 currency code, e.g. SEK (required)",
					Required: true,
				},
				&cli.StringFlag{
					Name:  flagCategory,
					Usage: "Optionally classify the purchase, e.g. travel",
				},
				&cli.StringFlag{
					Name:  flagNotes,
					Usage: "Optional free-form notes",
				},
			},
			Action: receiptCreate,
		},
		{
			Name:  "get",
			Usage: "Retrieve a receipt",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     flagID,
					Aliases:  []string{"i"},
					Usage:    "Retrieve the specified receipt (required)",
					Required: true,
				},
				cliFlagOutput,
			},
			Action: receiptGet,
		},
		{
			Name:  "list",
			Usage: "Retrieve all of your receipts",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name: flagCached,
					Usage: "List locally cached receipts instead of asking " +
						"the API server; works offline",
				},
				cliFlagOutput,
			},
			Action: receiptList,
		},
		{
			Name: "sync",
			Usage: "Download all of your receipts into the local cache for " +
				"offline use",
			Action: receiptSync,
		},
	},
}

func receiptCreate(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	client, err := getClient(c, store)
	if err != nil {
		return err
	}

	receipt, err := client.Receipts().Create(
		c.Context,
		receipts.Receipt{
			Merchant:    c.String(flagMerchant),
			TotalAmount: c.Int64(flagAmount),
			Currency:    strings.ToUpper(c.String(flagCurrency)),
			Category:    c.String(flagCategory),
			Notes:       c.String(flagNotes),
		},
	)
	if err != nil {
		return err
	}

	fmt.Printf("Created receipt %q.\n", receipt.ID)
	return nil
}

func receiptGet(c *cli.Context) error {
	id := c.String(flagID)
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	client, err := getClient(c, store)
	if err != nil {
		return err
	}

	receipt, err := client.Receipts().Get(c.Context, id)
	if err != nil {
		return err
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("ID", "MERCHANT", "AMOUNT", "CATEGORY", "AGE")
		table.AddRow(
			receipt.ID,
			receipt.Merchant,
			formatAmount(receipt),
			receipt.Category,
			formatAge(receipt),
		)
		fmt.Println(table)

	case "yaml":
		yamlBytes, err := yaml.Marshal(receipt)
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from get receipt operation",
			)
		}
		fmt.Println(string(yamlBytes))

	case "json":
		prettyJSON, err := json.MarshalIndent(receipt, "", "  ")
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from get receipt operation",
			)
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}

func receiptList(c *cli.Context) error {
	output := c.String(flagOutput)

	if err := validateOutputFormat(output); err != nil {
		return err
	}

	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	var receiptList receipts.ReceiptList
	if c.Bool(flagCached) {
		if receiptList, err = getCachedReceipts(c, store); err != nil {
			return err
		}
	} else {
		client, err := getClient(c, store)
		if err != nil {
			return err
		}
		if receiptList, err = client.Receipts().List(c.Context); err != nil {
			return err
		}
	}

	if len(receiptList.Items) == 0 {
		fmt.Println("No receipts found.")
		return nil
	}

	switch strings.ToLower(output) {
	case "table":
		table := uitable.New()
		table.AddRow("ID", "MERCHANT", "AMOUNT", "CATEGORY", "AGE")
		for _, receipt := range receiptList.Items {
			table.AddRow(
				receipt.ID,
				receipt.Merchant,
				formatAmount(receipt),
				receipt.Category,
				formatAge(receipt),
			)
		}
		fmt.Println(table)

	case "yaml":
		yamlBytes, err := yaml.Marshal(receiptList)
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from list receipts operation",
			)
		}
		fmt.Println(string(yamlBytes))

	case "json":
		prettyJSON, err := json.MarshalIndent(receiptList, "", "  ")
		if err != nil {
			return errors.Wrap(
				err,
				"error formatting output from list receipts operation",
			)
		}
		fmt.Println(string(prettyJSON))
	}

	return nil
}

func receiptSync(c *cli.Context) error {
	store, err := getStore(c.Context)
	if err != nil {
		return err
	}
	defer store.Close() // nolint: errcheck

	client, err := getClient(c, store)
	if err != nil {
		return err
	}

	receiptList, err := client.Receipts().List(c.Context)
	if err != nil {
		return err
	}

	for _, receipt := range receiptList.Items {
		if err := store.Put(
			c.Context,
			localstore.Receipts,
			receipt.ID,
			receipt,
		); err != nil {
			return errors.Wrapf(err, "error caching receipt %q", receipt.ID)
		}
	}

	fmt.Printf("Synced %d receipts to the local cache.\n", len(receiptList.Items))
	return nil
}

// getCachedReceipts assembles a ReceiptList from the local cache populated by
// `kvitto receipt sync`.
func getCachedReceipts(
	c *cli.Context,
	store localstore.Store,
) (receipts.ReceiptList, error) {
	receiptList := receipts.ReceiptList{}
	rawReceipts, err := store.GetAll(c.Context, localstore.Receipts)
	if err != nil {
		return receiptList, errors.Wrap(
			err,
			"error reading receipts from the local cache",
		)
	}
	for _, rawReceipt := range rawReceipts {
		receipt := receipts.Receipt{}
		if err := json.Unmarshal(rawReceipt, &receipt); err != nil {
			return receiptList, errors.Wrap(
				err,
				"error unmarshaling cached receipt",
			)
		}
		receiptList.Items = append(receiptList.Items, receipt)
	}
	return receiptList, nil
}

func formatAmount(receipt receipts.Receipt) string {
	return fmt.Sprintf("%d %s", receipt.TotalAmount, receipt.Currency)
}

func formatAge(receipt receipts.Receipt) string {
	if receipt.Created == nil {
		return ""
	}
	return duration.ShortHumanDuration(time.Since(*receipt.Created))
}
