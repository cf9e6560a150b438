package main

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/openliq/nft-vault/config"
	"github.com/openliq/nft-vault/core"
	"github.com/openliq/nft-vault/internal/chain"
	"github.com/openliq/nft-vault/internal/flag"
	"github.com/openliq/nft-vault/pkg/utils"
)

var vaultCommand = cli.Command{
	Name:        "vault",
	Usage:       "run the cross-chain custody vaults",
	Description: "The vault command runs one custody vault per configured chain",
	Action:      run,
	Flags:       append(app.Flags, flag.ConfigFile),
}

func run(cli *cli.Context) error {
	l := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LvlInfo, true))
	log.SetDefault(l)
	cfg, err := config.Local(cli.String(flag.ConfigFile.Name))
	if err != nil {
		log.Error("config init failed", "err", err)
		return err
	}

	utils.Init(cfg.Other.Env, cfg.Other.MonitorUrl)
	chainers, err := chain.Init(cfg, l)
	if err != nil {
		log.Error("chain init failed", "err", err)
		return err
	}

	sysErr := make(chan error)
	c := core.New(sysErr)
	for _, ch := range chainers {
		c.AddChain(ch)
	}
	c.Start()
	return nil
}
