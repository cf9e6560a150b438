package main

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

var (
	app     = cli.NewApp()
	Version = "1.0.0"
)

func init() {
	app.Copyright = "Copyright 2024 OpenLiq Authors"
	app.Name = "nft-vault"
	app.Usage = "nft-vault"
	app.Authors = []*cli.Author{{Name: "OpenLiq"}}
	app.Version = Version
	app.EnableBashCompletion = true
	app.Commands = []*cli.Command{
		&vaultCommand,
	}

}

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
