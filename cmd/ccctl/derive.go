package main

import (
	dr "github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/urfave/cli/v2"
)

var termFlags = []cli.Flag{
	programFlag,
	&cli.StringFlag{Name: "seller", Required: true},
	&cli.StringFlag{Name: "buyer", Required: true},
	&cli.StringFlag{Name: "mint-base", Required: true},
	&cli.StringFlag{Name: "mint-quote", Required: true},
	&cli.Uint64Flag{Name: "amount-base", Required: true},
	&cli.Uint64Flag{Name: "amount-quote", Required: true},
	&cli.Int64Flag{Name: "expiry", Usage: "unix seconds", Required: true},
}

var derive = cli.Command{
	Name:   "derive",
	Usage:  "print the escrow address, bump and vault for a set of terms",
	Flags:  termFlags,
	Action: deriveAction,
}

func termsFromFlags(ctx *cli.Context) (types.CoveredCallTerms, error) {
	terms := types.CoveredCallTerms{
		AmountBase:      ctx.Uint64("amount-base"),
		AmountQuote:     ctx.Uint64("amount-quote"),
		TimestampExpiry: ctx.Int64("expiry"),
	}
	var err error
	if terms.Seller, err = pubkeyFlag(ctx, "seller"); err != nil {
		return terms, err
	}
	if terms.Buyer, err = pubkeyFlag(ctx, "buyer"); err != nil {
		return terms, err
	}
	if terms.MintBase, err = pubkeyFlag(ctx, "mint-base"); err != nil {
		return terms, err
	}
	if terms.MintQuote, err = pubkeyFlag(ctx, "mint-quote"); err != nil {
		return terms, err
	}
	return terms, nil
}

func deriveAction(ctx *cli.Context) error {
	id, err := programID(ctx)
	if err != nil {
		return err
	}
	terms, err := termsFromFlags(ctx)
	if err != nil {
		return err
	}
	addrs, err := dr.CoveredCallAddresses(id, terms)
	if err != nil {
		return err
	}
	return printJSON(ctx, addrs)
}
