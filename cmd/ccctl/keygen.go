package main

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/urfave/cli/v2"
)

var keygen = cli.Command{
	Name:   "keygen",
	Usage:  "generate an ed25519 keypair for a seller or buyer",
	Action: keygenAction,
}

type keypair struct {
	Pubkey     types.Pubkey  `json:"pubkey"`
	PrivateKey hexutil.Bytes `json:"privateKey"`
}

func keygenAction(ctx *cli.Context) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	return printJSON(ctx, keypair{
		Pubkey:     types.PubkeyFromEd25519(pub),
		PrivateKey: hexutil.Bytes(priv),
	})
}
