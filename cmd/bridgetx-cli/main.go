package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ciricc/bridgetx-store/internal/pkg/app"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/accountindex"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/guard"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/record"
	"github.com/ciricc/bridgetx-store/internal/pkg/bridgetx/txstore"
	"github.com/ciricc/bridgetx-store/internal/pkg/shutdown"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
)

func main() {
	container := do.New()

	app.ProvideCommonDeps(container)
	app.ProvideStorageDeps(container)
	app.ProvideTxStoreDeps(container)

	store, err := do.Invoke[*txstore.Store](container)
	if err != nil {
		panic(err)
	}

	index, err := do.Invoke[*accountindex.Index](container)
	if err != nil {
		panic(err)
	}

	shutdowner, err := do.Invoke[*shutdown.Shutdowner](container)
	if err != nil {
		panic(err)
	}

	defer func() {
		if err := shutdowner.Shutdown(); err != nil {
			log.Println("shutdown error:", err)
		}
	}()

	cliApp := &cli.App{
		Name:  "bridgetx-cli",
		Usage: "inspect and modify bridge transaction records",
		Commands: []*cli.Command{
			{
				Name:  "keys",
				Usage: "list every record key",
				Action: func(ctx *cli.Context) error {
					keys, err := store.GetAllKeys(ctx.Context)
					if err != nil {
						return fmt.Errorf("failed to get keys: %w", err)
					}

					return printJSON(keys)
				},
			},
			{
				Name:      "get",
				Usage:     "print the record stored under a key",
				ArgsUsage: "<key>",
				Action: func(ctx *cli.Context) error {
					rec, err := store.GetRecord(ctx.Context, ctx.Args().First())
					if err != nil {
						if errors.Is(err, txstore.ErrNotFound) {
							return fmt.Errorf("record %q not found", ctx.Args().First())
						}

						return fmt.Errorf("failed to get record: %w", err)
					}

					return printJSON(rec)
				},
			},
			{
				Name:      "set",
				Usage:     "write a record through the status guard",
				ArgsUsage: "<key>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from"},
					&cli.StringFlag{Name: "to"},
					&cli.StringFlag{Name: "origin"},
					&cli.StringFlag{Name: "target"},
					&cli.StringFlag{Name: "tx"},
					&cli.StringFlag{Name: "status", Required: true},
					&cli.StringFlag{Name: "amount"},
				},
				Action: func(ctx *cli.Context) error {
					err := store.SetRecord(ctx.Context, ctx.Args().First(), &record.Record{
						From:   ctx.String("from"),
						To:     ctx.String("to"),
						Origin: ctx.String("origin"),
						Target: ctx.String("target"),
						Tx:     ctx.String("tx"),
						Status: record.Status(ctx.String("status")),
						Amount: ctx.String("amount"),
					})
					if err != nil {
						if errors.Is(err, guard.ErrRejected) {
							return fmt.Errorf("write rejected: %w", err)
						}

						return fmt.Errorf("failed to set record: %w", err)
					}

					return printJSON(map[string]bool{"ok": true})
				},
			},
			{
				Name:      "delete",
				Usage:     "delete the record stored under a key",
				ArgsUsage: "<key>",
				Action: func(ctx *cli.Context) error {
					return printJSON(map[string]bool{"ok": store.DeleteValue(ctx.Context, ctx.Args().First())})
				},
			},
			{
				Name:      "account-keys",
				Usage:     "list the keys of the records sent from an account",
				ArgsUsage: "<account>",
				Action: func(ctx *cli.Context) error {
					keys, err := index.GetAccountIndexes(ctx.Context, ctx.Args().First())
					if err != nil {
						return fmt.Errorf("failed to get account keys: %w", err)
					}

					return printJSON(keys)
				},
			},
			{
				Name:      "account-txs",
				Usage:     "list the records sent from an account",
				ArgsUsage: "<account>",
				Action: func(ctx *cli.Context) error {
					txs, err := index.GetAccountTxs(ctx.Context, ctx.Args().First())
					if err != nil {
						return fmt.Errorf("failed to get account records: %w", err)
					}

					return printJSON(txs)
				},
			},
			{
				Name:      "account-summary",
				Usage:     "count and sum the records sent from an account per status",
				ArgsUsage: "<account>",
				Action: func(ctx *cli.Context) error {
					summary, err := index.GetAccountSummary(ctx.Context, ctx.Args().First())
					if err != nil {
						return fmt.Errorf("failed to get account summary: %w", err)
					}

					return printJSON(summary)
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Println(err)

		if shutdownErr := shutdowner.Shutdown(); shutdownErr != nil {
			log.Println("shutdown error:", shutdownErr)
		}

		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}
