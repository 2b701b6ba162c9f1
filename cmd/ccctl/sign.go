package main

import (
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	dr "github.com/goatnetwork/covered-call/internal/derive"
	"github.com/goatnetwork/covered-call/internal/program"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/urfave/cli/v2"
)

var sign = cli.Command{
	Name:  "sign",
	Usage: "sign an initialize request with the seller key",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: "key", Usage: "seller ed25519 private key, hex", Required: true},
		&cli.StringFlag{Name: "funding", Usage: "seller token account holding the base asset", Required: true},
		&cli.UintFlag{Name: "decimals-base", Usage: "optional base mint decimals hint"},
	}, termFlags...),
	Action: signAction,
}

// signedInitialize matches the body of POST /api/v1/covered-calls.
type signedInitialize struct {
	Seller          types.Pubkey  `json:"seller"`
	Buyer           types.Pubkey  `json:"buyer"`
	MintBase        types.Pubkey  `json:"mint_base"`
	MintQuote       types.Pubkey  `json:"mint_quote"`
	Funding         types.Pubkey  `json:"funding"`
	Escrow          types.Pubkey  `json:"escrow"`
	Vault           types.Pubkey  `json:"vault"`
	AmountBase      uint64        `json:"amount_base"`
	AmountQuote     uint64        `json:"amount_quote"`
	TimestampExpiry int64         `json:"timestamp_expiry"`
	DecimalsBase    *uint8        `json:"decimals_base,omitempty"`
	Signature       hexutil.Bytes `json:"signature"`
}

func signAction(ctx *cli.Context) error {
	id, err := programID(ctx)
	if err != nil {
		return err
	}
	terms, err := termsFromFlags(ctx)
	if err != nil {
		return err
	}
	funding, err := pubkeyFlag(ctx, "funding")
	if err != nil {
		return err
	}

	raw, err := hexutil.Decode(ctx.String("key"))
	if err != nil {
		return fmt.Errorf("invalid --key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return fmt.Errorf("invalid --key: want %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	key := ed25519.PrivateKey(raw)
	if types.PubkeyFromEd25519(key.Public().(ed25519.PublicKey)) != terms.Seller {
		return fmt.Errorf("--key does not belong to seller %s", terms.Seller)
	}

	addrs, err := dr.CoveredCallAddresses(id, terms)
	if err != nil {
		return err
	}

	args := program.InitializeArgs{
		AmountBase:      terms.AmountBase,
		AmountQuote:     terms.AmountQuote,
		TimestampExpiry: terms.TimestampExpiry,
	}
	if ctx.IsSet("decimals-base") {
		d := ctx.Uint("decimals-base")
		if d > 255 {
			return fmt.Errorf("invalid --decimals-base: %d", d)
		}
		decimals := uint8(d)
		args.DecimalsBase = &decimals
	}
	accts := program.InitializeAccounts{
		Seller:    terms.Seller,
		Buyer:     terms.Buyer,
		Escrow:    addrs.Escrow,
		MintBase:  terms.MintBase,
		MintQuote: terms.MintQuote,
		Funding:   funding,
		Vault:     addrs.Vault,
	}

	return printJSON(ctx, signedInitialize{
		Seller:          terms.Seller,
		Buyer:           terms.Buyer,
		MintBase:        terms.MintBase,
		MintQuote:       terms.MintQuote,
		Funding:         funding,
		Escrow:          addrs.Escrow,
		Vault:           addrs.Vault,
		AmountBase:      args.AmountBase,
		AmountQuote:     args.AmountQuote,
		TimestampExpiry: args.TimestampExpiry,
		DecimalsBase:    args.DecimalsBase,
		Signature:       program.SignInitialize(key, id, accts, args),
	})
}
