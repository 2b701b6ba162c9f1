package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goatnetwork/covered-call/internal/config"
	"github.com/goatnetwork/covered-call/internal/types"
	"github.com/urfave/cli/v2"
)

var programFlag = &cli.StringFlag{
	Name:  "program",
	Usage: "covered call program id",
	Value: config.DefaultProgramID,
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[ccctl] %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "ccctl"
	app.Usage = "Offline tooling for covered call escrows"
	app.Commands = append(
		app.Commands,
		&keygen,
		&derive,
		&sign,
	)
	return app
}

func programID(ctx *cli.Context) (types.Pubkey, error) {
	id, err := types.PubkeyFromBase58(ctx.String(programFlag.Name))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("invalid program id: %w", err)
	}
	return id, nil
}

func pubkeyFlag(ctx *cli.Context, name string) (types.Pubkey, error) {
	pk, err := types.PubkeyFromBase58(ctx.String(name))
	if err != nil {
		return types.Pubkey{}, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return pk, nil
}

func printJSON(ctx *cli.Context, v interface{}) error {
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
